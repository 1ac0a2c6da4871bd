package navigation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

func await(t *testing.T, ch <-chan workerReply) workerReply {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not reply")
	}
	return workerReply{}
}

func TestWorkerSearch(t *testing.T) {
	w := NewWorker(4)
	defer w.Close()

	ch, err := w.submit(sampleRequest())
	require.NoError(t, err)
	reply := await(t, ch)
	require.NoError(t, reply.err)
	assert.True(t, reply.resp.Result.Found)
	assert.Equal(t, coord.New(0, 1), reply.resp.Result.Path[0])
	assert.Equal(t, coord.New(1, 2), reply.resp.Result.Path[len(reply.resp.Result.Path)-1])
	assert.Equal(t, 0, w.Pending())
}

func TestWorkerRoutesRepliesByID(t *testing.T) {
	w := NewWorker(16)
	defer w.Close()

	type job struct {
		goal coord.Cell
		ch   <-chan workerReply
	}
	var jobs []job
	for c := 0; c < 3; c++ {
		req := sampleRequest()
		req.Problem.Passable = []uint8{1, 1, 1, 1, 1, 1}
		req.Goal = coord.New(1, c)
		ch, err := w.submit(req)
		require.NoError(t, err)
		jobs = append(jobs, job{goal: req.Goal, ch: ch})
	}
	for _, j := range jobs {
		reply := await(t, j.ch)
		require.NoError(t, reply.err)
		path := reply.resp.Result.Path
		assert.Equal(t, j.goal, path[len(path)-1])
	}
}

func TestWorkerMalformedFrame(t *testing.T) {
	w := NewWorker(4)
	defer w.Close()

	id := uuid.New()
	frame := make([]byte, 20)
	frame[0] = kindFind
	copy(frame[1:], id[:])
	ch, err := w.submitFrame(id, frame)
	require.NoError(t, err)
	reply := await(t, ch)
	assert.ErrorIs(t, reply.err, errutil.ErrWorkerTransport)
	assert.False(t, w.Closed())
}

func TestWorkerUnroutableFrame(t *testing.T) {
	w := NewWorker(4)
	defer w.Close()

	ch, err := w.submitFrame(uuid.New(), []byte{kindFind, 1})
	require.NoError(t, err)
	reply := await(t, ch)
	assert.ErrorIs(t, reply.err, errutil.ErrWorkerTransport)
}

func TestWorkerUndecodableResultShutsDown(t *testing.T) {
	w := NewWorker(4)
	id := uuid.New()
	ch, err := w.submitFrame(id, []byte{})
	require.NoError(t, err)
	// drain the worker's own failure reply first
	await(t, ch)

	ch2 := make(chan workerReply, 1)
	w.mu.Lock()
	w.listeners[id] = ch2
	w.mu.Unlock()
	w.deliver([]byte{42})

	reply := await(t, ch2)
	assert.Error(t, reply.err)
	assert.True(t, w.Closed())
}

func TestWorkerClose(t *testing.T) {
	w := NewWorker(1)
	w.Close()
	w.Close()
	_, err := w.submit(sampleRequest())
	assert.ErrorIs(t, err, errutil.ErrWorkerClosed)
}

func TestWorkerCloseFailsPending(t *testing.T) {
	w := NewWorker(1)
	ch := make(chan workerReply, 1)
	id := uuid.New()
	w.mu.Lock()
	w.listeners[id] = ch
	w.mu.Unlock()

	w.Close()
	reply := await(t, ch)
	assert.ErrorIs(t, reply.err, errutil.ErrWorkerClosed)
}
