package navigation

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nano/citypath/pkg/coord"
)

// QueryStat describes one completed FindPath call.
type QueryStat struct {
	Start    coord.Cell
	Goal     coord.Cell
	Rows     int
	Cols     int
	Mode     ExecMode
	Found    bool
	Cached   bool
	Length   int
	Cost     float64
	Expanded int
	Elapsed  time.Duration
	At       time.Time
}

// Recorder receives a QueryStat after every successful FindPath. It is called
// on the caller's goroutine and must not block.
type Recorder interface {
	RecordQuery(stat QueryStat)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(stat QueryStat)

func (f RecorderFunc) RecordQuery(stat QueryStat) { f(stat) }

// LogRecorder writes query stats at debug level.
type LogRecorder struct {
	Entry *log.Entry
}

func (r LogRecorder) RecordQuery(stat QueryStat) {
	entry := r.Entry
	if entry == nil {
		entry = logger
	}
	entry.WithFields(log.Fields{
		"start":    stat.Start.String(),
		"goal":     stat.Goal.String(),
		"mode":     stat.Mode.String(),
		"found":    stat.Found,
		"cached":   stat.Cached,
		"length":   stat.Length,
		"cost":     stat.Cost,
		"expanded": stat.Expanded,
		"elapsed":  stat.Elapsed,
	}).Debug("path query")
}

// MultiRecorder fans a stat out to every recorder in order.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordQuery(stat QueryStat) {
	for _, r := range m {
		r.RecordQuery(stat)
	}
}
