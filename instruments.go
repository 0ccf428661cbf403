package dispatcher

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ygrebnov/dispatcher/metrics"
)

// instruments is the set of metrics a worker group records into.
type instruments struct {
	pushed    metrics.Counter
	executed  metrics.Counter
	discarded metrics.Counter
	panicked  metrics.Counter
	queued    metrics.UpDownCounter
	duration  metrics.Histogram
}

// newInstruments registers the instruments under prefix ("dispatcher" or "pool").
func newInstruments(p metrics.Provider, prefix string) instruments {
	return instruments{
		pushed: p.Counter(prefix+"_tasks_pushed_total",
			metrics.WithDescription("tasks accepted by Push"), metrics.WithUnit("1")),
		executed: p.Counter(prefix+"_tasks_executed_total",
			metrics.WithDescription("tasks whose Run and Cleanup returned"), metrics.WithUnit("1")),
		discarded: p.Counter(prefix+"_tasks_discarded_total",
			metrics.WithDescription("queued tasks dropped by Clean or Destroy"), metrics.WithUnit("1")),
		panicked: p.Counter(prefix+"_tasks_panicked_total",
			metrics.WithDescription("tasks whose Run or Cleanup panicked"), metrics.WithUnit("1")),
		queued: p.UpDownCounter(prefix+"_tasks_queued",
			metrics.WithDescription("tasks waiting in worker queues"), metrics.WithUnit("1")),
		duration: p.Histogram(prefix+"_task_duration_seconds",
			metrics.WithDescription("time spent in Run and Cleanup"), metrics.WithUnit("seconds")),
	}
}

// execute runs t.Run then t.Cleanup on the calling goroutine.
// A panic in either is recovered, logged and reported as ok == false; the caller's
// worker must then stop serving.
func execute(t Task, in instruments, log *zap.Logger) (ok bool) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			in.panicked.Add(1)
			log.Error("task panicked, worker exits",
				zap.String("panic", fmt.Sprint(p)),
				zap.Stack("stack"),
			)
			ok = false
		}
	}()

	t.Run()
	t.Cleanup()

	in.duration.Record(time.Since(start).Seconds())
	in.executed.Add(1)
	return true
}
