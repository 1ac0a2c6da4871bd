package async

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunRecoversPanic(t *testing.T) {
	done := make(chan struct{})
	Run(func() {
		defer close(done)
		panic("boom")
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async.Run did not execute")
	}
}

func TestRunExecutes(t *testing.T) {
	ch := make(chan int, 1)
	Run(func() { ch <- 42 })
	assert.Equal(t, 42, <-ch)
}
