package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ygrebnov/dispatcher"
	"github.com/ygrebnov/dispatcher/metrics"
)

var errPending = errors.New("tasks still pending")

// Summary reports one demo run.
type Summary struct {
	RunID           string
	Mode            string
	Workers         uint
	Tasks           int
	Pushed          int64
	Executed        int64
	Discarded       int64
	Panicked        int64
	OrderViolations int
	Elapsed         time.Duration
}

// OK reports whether every task ran exactly once and, in sticky mode, in push order per color.
func (s *Summary) OK() bool {
	return s.Pushed == int64(s.Tasks) &&
		s.Executed == s.Pushed &&
		s.Discarded == 0 &&
		s.Panicked == 0 &&
		s.OrderViolations == 0
}

func (s *Summary) Print(w io.Writer) {
	status := color.New(color.FgGreen, color.Bold).Sprint("OK")
	if !s.OK() {
		status = color.New(color.FgRed, color.Bold).Sprint("FAIL")
	}
	fmt.Fprintf(w, "run %s mode=%s workers=%d tasks=%d\n", s.RunID, s.Mode, s.Workers, s.Tasks)
	fmt.Fprintf(w, "pushed=%d executed=%d discarded=%d panicked=%d order_violations=%d elapsed=%s\n",
		s.Pushed, s.Executed, s.Discarded, s.Panicked, s.OrderViolations, s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "result: %s\n", status)
}

// workers is what run needs from a Dispatcher or a Pool.
type workers interface {
	Start()
	Stop()
	Destroy()
}

// run builds the workers for cfg.Mode, pushes cfg.Tasks tasks while stopped, starts,
// waits up to cfg.Wait for all of them to execute, then stops and destroys.
func run(ctx context.Context, cfg *Config, log *zap.Logger) (*Summary, error) {
	s := &Summary{
		RunID:   uuid.NewString(),
		Mode:    cfg.Mode,
		Workers: cfg.Workers,
		Tasks:   cfg.Tasks,
	}
	log = log.With(zap.String("run", s.RunID))
	provider := metrics.NewBasicProvider()

	opts := []dispatcher.Option{
		dispatcher.WithLogger(log),
		dispatcher.WithMetrics(provider),
		dispatcher.WithName(cfg.Mode + "-" + s.RunID[:8]),
	}
	if cfg.LockOSThread {
		opts = append(opts, dispatcher.WithLockOSThread())
	}

	w, push, prefix, err := build(cfg, opts)
	if err != nil {
		return nil, err
	}
	destroyed := false
	defer func() {
		if !destroyed {
			w.Destroy()
		}
	}()

	order := newOrderTracker()
	for i := range cfg.Tasks {
		c := uint32(i) % cfg.Colors
		t := dispatcher.TaskFunc(func() {
			if cfg.Delay > 0 {
				time.Sleep(cfg.Delay)
			}
			order.observe(c, i)
		})
		if err := push(i, t); err != nil {
			return nil, fmt.Errorf("push task %d: %w", i, err)
		}
	}
	log.Info("tasks pushed", zap.Int("tasks", cfg.Tasks), zap.String("mode", cfg.Mode))

	started := time.Now()
	w.Start()

	executed := func() int64 { return provider.Snapshot().Counters[prefix+"_tasks_executed_total"] }
	_, err = backoff.Retry(ctx, func() (int64, error) {
		n := executed()
		if n < int64(cfg.Tasks) {
			return n, errPending
		}
		return n, nil
	},
		backoff.WithBackOff(newPollBackOff()),
		backoff.WithMaxElapsedTime(cfg.Wait),
	)
	s.Elapsed = time.Since(started)
	if err != nil {
		log.Warn("gave up waiting for tasks", zap.Error(err), zap.Int64("executed", executed()))
	}

	w.Stop()
	w.Destroy()
	destroyed = true

	snap := provider.Snapshot()
	s.Pushed = snap.Counters[prefix+"_tasks_pushed_total"]
	s.Executed = snap.Counters[prefix+"_tasks_executed_total"]
	s.Discarded = snap.Counters[prefix+"_tasks_discarded_total"]
	s.Panicked = snap.Counters[prefix+"_tasks_panicked_total"]
	if cfg.Mode == modeSticky {
		s.OrderViolations = order.violations()
	}
	return s, nil
}

// build creates the workers for cfg.Mode and a push function keyed by task index.
func build(cfg *Config, opts []dispatcher.Option) (workers, func(i int, t dispatcher.Task) error, string, error) {
	switch cfg.Mode {
	case modePool:
		p, err := dispatcher.NewPool(cfg.Workers, opts...)
		if err != nil {
			return nil, nil, "", err
		}
		return p, func(_ int, t dispatcher.Task) error { return p.Push(t) }, "pool", nil
	case modeSticky:
		d, err := dispatcher.New(cfg.Workers, opts...)
		if err != nil {
			return nil, nil, "", err
		}
		return d, func(i int, t dispatcher.Task) error {
			return d.Push(t, uint32(i)%cfg.Colors)
		}, "dispatcher", nil
	default:
		d, err := dispatcher.New(cfg.Workers, opts...)
		if err != nil {
			return nil, nil, "", err
		}
		return d, func(_ int, t dispatcher.Task) error { return d.PushRoundRobin(t) }, "dispatcher", nil
	}
}

func newPollBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

// orderTracker counts tasks that ran before an earlier task of the same color.
type orderTracker struct {
	mu   sync.Mutex
	last map[uint32]int
	bad  int
}

func newOrderTracker() *orderTracker {
	return &orderTracker{last: make(map[uint32]int)}
}

func (o *orderTracker) observe(color uint32, index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if last, ok := o.last[color]; ok && index <= last {
		o.bad++
	}
	o.last[color] = index
}

func (o *orderTracker) violations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bad
}
