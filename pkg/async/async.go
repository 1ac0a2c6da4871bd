package async

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

func pcall(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("async/pcall: Error=%v, Stack=%s", err, debug.Stack())
		}
	}()

	fn()
}

// Run executes fn on a new goroutine, recovering and logging any panic.
func Run(fn func()) {
	go pcall(fn)
}
