package dispatcher

// Task is a unit of work. Run is called first, then Cleanup, both exactly once and on
// the same worker goroutine. Any state the task needs is captured by the implementation;
// the dispatcher never inspects or owns it.
//
// Example:
//
//	counter := new(atomic.Int64)
//	t := dispatcher.NewTask(
//		func() { counter.Add(1) },
//		func() { log.Println("done") },
//	)
//	_ = d.Push(t, 7)
type Task interface {
	Run()
	Cleanup()
}

// TaskFunc adapts a plain function to Task. Its Cleanup does nothing.
type TaskFunc func()

func (f TaskFunc) Run()     { f() }
func (f TaskFunc) Cleanup() {}

// NewTask builds a Task from a run and a cleanup function. cleanup may be nil.
// A nil run yields a nil Task, which Push rejects with ErrNilTask.
func NewTask(run, cleanup func()) Task {
	if run == nil {
		return nil
	}
	return &funcTask{run: run, cleanup: cleanup}
}

type funcTask struct {
	run     func()
	cleanup func()
}

func (t *funcTask) Run() { t.run() }

func (t *funcTask) Cleanup() {
	if t.cleanup != nil {
		t.cleanup()
	}
}

// validTask reports whether t can be enqueued.
func validTask(t Task) bool {
	if t == nil {
		return false
	}
	if f, ok := t.(TaskFunc); ok && f == nil {
		return false
	}
	return true
}
