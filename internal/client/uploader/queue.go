// Package uploader serializes pending uploads and drives the
// single-concurrency pipeline: at most one task is uploading at any
// instant, tasks start in FIFO order, and one task's failure never
// blocks the rest.
package uploader

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/wayfare/internal/client/transport"
	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/logging"
)

// Destination is re-exported so callers enqueue without importing the
// transport package directly.
type Destination = transport.Destination

// Transport performs one cancelable upload. Satisfied by
// *transport.Client.
type Transport interface {
	Upload(ctx context.Context, name string, data []byte, dest Destination, onProgress func(pct int)) (*transport.Record, error)
}

// Result is the single completion value of one upload attempt: a record,
// an error, or an abort. All three paths flow through the same finish
// routine, so the queue advances exactly once per attempt.
type Result struct {
	Record *transport.Record
	Err    error
}

// Aborted reports whether the attempt was canceled rather than failed.
func (r Result) Aborted() bool {
	return errors.Is(r.Err, common.ErrAborted)
}

// File describes one file handed to Enqueue.
type File struct {
	Name string
	Data []byte
	Dest Destination
	// ReleasePreview, when non-nil, is called once when the task leaves
	// the queue (success, abort, or removal) so the UI can free its
	// local preview. Not called on error: the task is still visible.
	ReleasePreview func()
}

// OnComplete receives the result of every finished attempt, after queue
// state has been updated. Optional.
type OnComplete func(taskID string, r Result)

// Queue is the client upload queue. All methods are safe for concurrent
// use.
type Queue struct {
	mu         sync.Mutex
	tasks      []*Task
	transport  Transport
	logger     logging.Logger
	onComplete OnComplete

	uploadingID string
	cancel      context.CancelFunc
}

func NewQueue(t Transport, logger logging.Logger, onComplete OnComplete) *Queue {
	return &Queue{
		transport:  t,
		logger:     logger.With("module", "uploader"),
		onComplete: onComplete,
	}
}

// Enqueue creates a queued task per file, preserving order. Uploads do
// not start until ProcessNext is called.
func (q *Queue) Enqueue(files ...File) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(files))
	for _, f := range files {
		t := &Task{
			ID:             uuid.NewString(),
			SourceName:     f.Name,
			Data:           f.Data,
			Dest:           f.Dest,
			State:          Queued{},
			releasePreview: f.ReleasePreview,
		}
		q.tasks = append(q.tasks, t)
		ids = append(ids, t.ID)
	}
	return ids
}

// ProcessNext promotes the oldest queued task to uploading and starts the
// transport. No-op while another task is uploading.
func (q *Queue) ProcessNext() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.advance()
}

// advance starts the next queued task if the uploading slot is free.
// Callers must hold q.mu.
func (q *Queue) advance() {
	if q.uploadingID != "" {
		return
	}

	var next *Task
	for _, t := range q.tasks {
		if _, ok := t.State.(Queued); ok {
			next = t
			break
		}
	}
	if next == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	next.State = Uploading{Progress: 0}
	q.uploadingID = next.ID
	q.cancel = cancel

	go q.run(ctx, next)
}

// run performs one upload attempt and funnels its outcome into finish.
func (q *Queue) run(ctx context.Context, t *Task) {
	rec, err := q.transport.Upload(ctx, t.SourceName, t.Data, t.Dest, func(pct int) {
		q.setProgress(t.ID, pct)
	})
	q.finish(t.ID, Result{Record: rec, Err: err})
}

func (q *Queue) setProgress(taskID string, pct int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.find(taskID)
	if t == nil {
		return
	}
	if _, ok := t.State.(Uploading); ok {
		t.State = Uploading{Progress: pct}
	}
}

// finish applies one Result: success and abort remove the task and
// release its preview, an error keeps it visible for retry. It then
// frees the uploading slot and advances the queue — the only place
// either happens.
func (q *Queue) finish(taskID string, r Result) {
	q.mu.Lock()

	if q.uploadingID == taskID {
		q.uploadingID = ""
		q.cancel = nil
	}

	t := q.find(taskID)
	if t != nil {
		switch {
		case r.Err == nil:
			q.remove(taskID)
		case r.Aborted():
			q.logger.Debug(context.Background(), "upload aborted", "task", taskID)
			q.remove(taskID)
		default:
			q.logger.Error(context.Background(), "upload failed", "task", taskID, "error", r.Err.Error())
			t.State = Errored{Message: r.Err.Error()}
		}
	}

	q.advance()
	onComplete := q.onComplete
	q.mu.Unlock()

	if onComplete != nil {
		onComplete(taskID, r)
	}
}

// Retry resets an errored task to queued and advances the queue. Calling
// it on a task in any other state, or on an absent task, is a no-op.
func (q *Queue) Retry(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.find(taskID)
	if t == nil {
		return
	}
	if _, ok := t.State.(Errored); !ok {
		return
	}

	t.State = Queued{}
	q.advance()
}

// Cancel stops an uploading task via its transport context, removes a
// queued or errored task directly, and ignores absent tasks. Removal of
// the uploading task itself happens when the transport surfaces the
// abort.
func (q *Queue) Cancel(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.find(taskID)
	if t == nil {
		return
	}

	if q.uploadingID == taskID {
		if q.cancel != nil {
			q.cancel()
		}
		return
	}

	q.remove(taskID)
}

// Tasks returns a snapshot of the queue in FIFO order.
func (q *Queue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, *t)
	}
	return out
}

// find returns the task with the given id. Callers must hold q.mu.
func (q *Queue) find(taskID string) *Task {
	for _, t := range q.tasks {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}

// remove deletes the task and releases its preview. Callers must hold
// q.mu.
func (q *Queue) remove(taskID string) {
	for i, t := range q.tasks {
		if t.ID != taskID {
			continue
		}
		q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
		if t.releasePreview != nil {
			t.releasePreview()
		}
		return
	}
}
