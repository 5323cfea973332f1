package extract

import (
	"context"
	"sync"

	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/utils/logging"
)

const defaultQueueSize = 16

// Task is one extraction unit handed off from the conversational path
type Task struct {
	SessionID model.SessionID
	Turns     []model.Turn
}

// Dispatcher runs extraction as fire-and-forget background work. The
// conversational caller only pays for a queue insert; the outcome of a task
// is never reported back to it. Tasks are not cancellable once started, and
// a full queue drops the task rather than blocking the reply path. The
// conversation itself is the source of truth, fragments are a derived index.
type Dispatcher struct {
	uc    *UseCase
	queue chan Task
	wg    sync.WaitGroup

	// mu serializes enqueue against close so a late Dispatch can never hit
	// a closed channel
	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a Dispatcher and starts its worker
func NewDispatcher(uc *UseCase, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		uc:    uc,
		queue: make(chan Task, queueSize),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for task := range d.queue {
		// Detached from the originating request on purpose: the task must
		// outlive the reply that triggered it.
		ctx := logging.With(context.Background(), logging.Default())

		if _, err := d.uc.ExtractAndStore(ctx, task.SessionID, task.Turns); err != nil {
			logging.Default().Warn("background extraction failed", "error", err, "session_id", task.SessionID)
		}
	}
}

// Dispatch enqueues an extraction task. It never blocks and never reports
// task outcome; after Close it is a logged no-op.
func (d *Dispatcher) Dispatch(sessionID model.SessionID, turns []model.Turn) {
	// Snapshot the transcript so the caller can keep appending turns
	task := Task{
		SessionID: sessionID,
		Turns:     make([]model.Turn, len(turns)),
	}
	copy(task.Turns, turns)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		logging.Default().Warn("dispatcher closed, dropping extraction task", "session_id", sessionID)
		return
	}

	select {
	case d.queue <- task:
	default:
		logging.Default().Warn("extraction queue full, dropping task", "session_id", sessionID)
	}
}

// Close stops accepting tasks and waits for queued ones to finish
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
