package navigation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/errutil"
)

const DefaultWorkerBacklog = 64

type workerReply struct {
	resp *findResponse
	err  error
}

type engineKey struct {
	heuristic astar.Heuristic
	frontier  astar.FrontierKind
}

// Worker runs search jobs on its own goroutine, one at a time. Jobs and results
// cross the boundary only as encoded frames; each submitted job gets a one-shot
// listener that receives its reply. Replies arrive in completion order.
type Worker struct {
	requests chan []byte
	results  chan []byte
	stop     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	listeners map[uuid.UUID]chan workerReply
	closed    bool

	// engines is owned by the run goroutine
	engines map[engineKey]*astar.Engine
	logger  *log.Entry
}

func NewWorker(backlog int) *Worker {
	if backlog <= 0 {
		backlog = DefaultWorkerBacklog
	}
	w := &Worker{
		requests:  make(chan []byte, backlog),
		results:   make(chan []byte, backlog),
		stop:      make(chan struct{}),
		listeners: make(map[uuid.UUID]chan workerReply),
		engines:   make(map[engineKey]*astar.Engine),
		logger:    logger.WithField("worker", uuid.NewString()[:8]),
	}
	go w.run()
	go w.dispatch()
	return w
}

func (w *Worker) submit(req *findRequest) (<-chan workerReply, error) {
	frame, err := encodeFind(req)
	if err != nil {
		return nil, err
	}
	return w.submitFrame(req.ID, frame)
}

func (w *Worker) submitFrame(id uuid.UUID, frame []byte) (<-chan workerReply, error) {
	ch := make(chan workerReply, 1)
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errutil.ErrWorkerClosed
	}
	w.listeners[id] = ch
	w.mu.Unlock()

	select {
	case w.requests <- frame:
		return ch, nil
	case <-w.stop:
		w.forget(id)
		return nil, errutil.ErrWorkerClosed
	}
}

func (w *Worker) forget(id uuid.UUID) {
	w.mu.Lock()
	delete(w.listeners, id)
	w.mu.Unlock()
}

// Pending returns the number of jobs still waiting for a reply.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

// Close stops the worker. Every pending listener receives ErrWorkerClosed.
func (w *Worker) Close() {
	w.shutdown(errutil.ErrWorkerClosed)
}

func (w *Worker) shutdown(err error) {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.failAll(err, true)
	})
}

func (w *Worker) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Worker) failAll(err error, closing bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if closing {
		w.closed = true
	}
	for id, ch := range w.listeners {
		ch <- workerReply{err: err}
		delete(w.listeners, id)
	}
}

func (w *Worker) run() {
	for {
		select {
		case <-w.stop:
			return
		case frame := <-w.requests:
			out := w.handle(frame)
			select {
			case w.results <- out:
			case <-w.stop:
				return
			}
		}
	}
}

func (w *Worker) handle(frame []byte) (out []byte) {
	id, _ := frameID(frame)
	defer func() {
		if err := recover(); err != nil {
			w.logger.Errorf("path job %s panic: %v", id, err)
			out = encodeFailure(id, fmt.Sprintf("panic: %v", err))
		}
	}()

	req, err := decodeFind(frame)
	if err != nil {
		return encodeFailure(id, err.Error())
	}
	engine, err := w.engine(req.Heuristic, req.Frontier)
	if err != nil {
		return encodeFailure(req.ID, err.Error())
	}
	res, err := engine.Search(context.Background(), &req.Problem, req.Start, req.Goal)
	if err != nil {
		return encodeFailure(req.ID, err.Error())
	}
	return encodeResult(&findResponse{ID: req.ID, Result: res})
}

func (w *Worker) engine(h astar.Heuristic, k astar.FrontierKind) (*astar.Engine, error) {
	key := engineKey{heuristic: h, frontier: k}
	if e, ok := w.engines[key]; ok {
		return e, nil
	}
	e, err := astar.NewEngine(astar.WithMovement(h.Movement), astar.WithHeuristic(h), astar.WithFrontier(k))
	if err != nil {
		return nil, err
	}
	w.engines[key] = e
	return e, nil
}

func (w *Worker) dispatch() {
	for {
		select {
		case <-w.stop:
			return
		case frame := <-w.results:
			w.deliver(frame)
		}
	}
}

func (w *Worker) deliver(frame []byte) {
	resp, err := decodeResult(frame)
	if err != nil {
		// the channel can no longer be trusted
		w.logger.Warnf("undecodable result frame, shutting down: %v", err)
		w.shutdown(err)
		return
	}
	w.mu.Lock()
	ch, ok := w.listeners[resp.ID]
	delete(w.listeners, resp.ID)
	w.mu.Unlock()

	if !ok {
		if resp.ID == uuid.Nil {
			w.logger.Warnf("unroutable failure: %s", resp.Failure)
			w.failAll(fmt.Errorf("%w: %s", errutil.ErrWorkerTransport, resp.Failure), false)
			return
		}
		w.logger.Debugf("dropping result for unknown job %s", resp.ID)
		return
	}
	if resp.Failure != "" {
		ch <- workerReply{err: fmt.Errorf("%w: %s", errutil.ErrWorkerTransport, resp.Failure)}
		return
	}
	ch <- workerReply{resp: resp}
}
