package db

import (
	"sync"

	"github.com/nano/citypath/db/model"
	"github.com/nano/citypath/internal/navigation"
)

const journalBacklog = 1024

// Journal records path queries to the path_query table from a single
// background goroutine. When the backlog is full new records are dropped.
type Journal struct {
	ch      chan *model.PathQuery
	insert  func(*model.PathQuery) error
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	dropped int64
}

func NewJournal() *Journal {
	return newJournal(InsertPathQuery, journalBacklog)
}

func newJournal(insert func(*model.PathQuery) error, backlog int) *Journal {
	j := &Journal{
		ch:     make(chan *model.PathQuery, backlog),
		insert: insert,
		done:   make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *Journal) RecordQuery(stat navigation.QueryStat) {
	select {
	case j.ch <- newPathQuery(stat):
	default:
		j.mu.Lock()
		j.dropped++
		j.mu.Unlock()
	}
}

// Dropped returns how many records were discarded because the backlog was full.
func (j *Journal) Dropped() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Close flushes queued records and stops the writer. RecordQuery must not be
// called afterwards.
func (j *Journal) Close() {
	j.once.Do(func() {
		close(j.ch)
		<-j.done
	})
}

func (j *Journal) run() {
	defer close(j.done)
	for q := range j.ch {
		if err := j.insert(q); err != nil {
			logger.Errorf("记录寻路日志失败: %s", err.Error())
		}
	}
}

func newPathQuery(stat navigation.QueryStat) *model.PathQuery {
	return &model.PathQuery{
		StartR:    stat.Start.R,
		StartC:    stat.Start.C,
		GoalR:     stat.Goal.R,
		GoalC:     stat.Goal.C,
		Rows:      stat.Rows,
		Cols:      stat.Cols,
		Mode:      stat.Mode.String(),
		Found:     stat.Found,
		Cached:    stat.Cached,
		Length:    stat.Length,
		Cost:      stat.Cost,
		Expanded:  stat.Expanded,
		ElapsedUs: stat.Elapsed.Microseconds(),
		CreatedAt: stat.At,
	}
}
