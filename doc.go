// Package dispatcher runs application tasks on a fixed set of long-lived workers.
//
// Two worker groups are provided:
//   - Dispatcher: every worker owns a private FIFO queue. Push(task, color) routes the
//     task to worker color % n, so tasks sharing a color run one at a time, in push
//     order. PushRoundRobin spreads tasks evenly across the workers.
//   - Pool: all workers consume one shared FIFO queue. No ordering between tasks.
//
// Lifecycle
// A group is created Stopped. Tasks pushed while stopped are queued and run after
// Start. Stop parks the workers without dropping anything; a task already taken from a
// queue always runs to completion. Clean drops queued tasks and is only allowed while
// stopped. Destroy is terminal: it waits for every worker goroutine to exit and drops
// whatever is still queued.
//
// Tasks
// A Task has Run and Cleanup, called in that order on one worker goroutine. The group
// does not supervise tasks: a task that blocks forever holds its worker forever, and a
// task that panics is logged and takes its worker down with it (there is no restart).
//
// Defaults
// Unless overridden, a newly created group uses:
//   - Logger: zap.NewNop()
//   - Metrics: metrics.NoopProvider
//   - Name: a random UUID
//   - StartImmediately: false
//   - LockOSThread: false, no CPU pinning
package dispatcher
