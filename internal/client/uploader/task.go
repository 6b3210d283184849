package uploader

// State is the tagged status of one upload task. Exactly one concrete
// state is held at a time, so "uploading with an error message" or two
// progress counters are unrepresentable.
type State interface {
	isState()
}

// Queued means the task waits its FIFO turn.
type Queued struct{}

// Uploading carries the last reported progress percentage.
type Uploading struct {
	Progress int
}

// Errored holds the user-visible failure message; the task stays in the
// queue and can be retried.
type Errored struct {
	Message string
}

func (Queued) isState()    {}
func (Uploading) isState() {}
func (Errored) isState()   {}

// Task is the ephemeral client-side record of one pending upload.
// Successful and aborted tasks are removed, not kept in a terminal state.
type Task struct {
	ID         string
	SourceName string
	Data       []byte
	Dest       Destination
	State      State

	// releasePreview frees the UI-side preview resource. Called exactly
	// once, when the task leaves the queue for any reason but error.
	releasePreview func()
}

// Progress returns the task's progress percentage, 0 unless uploading.
func (t *Task) Progress() int {
	if u, ok := t.State.(Uploading); ok {
		return u.Progress
	}
	return 0
}
