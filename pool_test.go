package dispatcher_test

import (
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ygrebnov/dispatcher"
	"github.com/ygrebnov/dispatcher/metrics"
)

var _ = Describe("Pool", func() {
	var (
		pool     *dispatcher.Pool
		provider *metrics.BasicProvider
	)

	BeforeEach(func() {
		provider = metrics.NewBasicProvider()
		var err error
		pool, err = dispatcher.NewPool(4, dispatcher.WithMetrics(provider), dispatcher.WithName("suite"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Destroy)
	})

	It("is created stopped", func() {
		Expect(pool.State()).To(Equal(dispatcher.Stopped))
		Expect(pool.Workers()).To(Equal(4))
		Expect(pool.Name()).To(Equal("suite"))
	})

	It("rejects a zero worker count", func() {
		p, err := dispatcher.NewPool(0)
		Expect(p).To(BeNil())
		Expect(err).To(MatchError(dispatcher.ErrInvalidConfig))
	})

	It("holds tasks until started", func() {
		var ran atomic.Int64
		for range 10 {
			Expect(pool.Push(dispatcher.TaskFunc(func() { ran.Add(1) }))).To(Succeed())
		}
		Expect(pool.Pending()).To(Equal(10))
		Consistently(ran.Load, 50*time.Millisecond).Should(BeZero())

		pool.Start()
		Eventually(ran.Load).Should(Equal(int64(10)))
		Expect(pool.Pending()).To(BeZero())
	})

	It("runs every task exactly once across workers", func() {
		const n = 500
		var mu sync.Mutex
		seen := make(map[int]int, n)

		pool.Start()
		for i := range n {
			Expect(pool.Push(dispatcher.TaskFunc(func() {
				mu.Lock()
				seen[i]++
				mu.Unlock()
			}))).To(Succeed())
		}

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(seen)
		}).Should(Equal(n))
		mu.Lock()
		defer mu.Unlock()
		for i, c := range seen {
			Expect(c).To(Equal(1), "task %d", i)
		}
	})

	It("runs tasks in parallel", func() {
		pool.Start()

		// Four tasks that each wait for the others: only completes with four busy workers.
		var arrived sync.WaitGroup
		arrived.Add(4)
		var done atomic.Int64
		for range 4 {
			Expect(pool.Push(dispatcher.TaskFunc(func() {
				arrived.Done()
				arrived.Wait()
				done.Add(1)
			}))).To(Succeed())
		}
		Eventually(done.Load, 2*time.Second).Should(Equal(int64(4)))
	})

	It("keeps queued tasks across Stop", func() {
		pool.Start()
		pool.Stop()
		Expect(pool.State()).To(Equal(dispatcher.Stopped))

		var ran atomic.Int64
		for range 3 {
			Expect(pool.Push(dispatcher.TaskFunc(func() { ran.Add(1) }))).To(Succeed())
		}
		Consistently(ran.Load, 50*time.Millisecond).Should(BeZero())

		pool.Start()
		Eventually(ran.Load).Should(Equal(int64(3)))
	})

	Describe("Clean", func() {
		It("drops queued tasks while stopped", func() {
			var ran atomic.Int64
			for range 5 {
				Expect(pool.Push(dispatcher.TaskFunc(func() { ran.Add(1) }))).To(Succeed())
			}
			Expect(pool.Clean()).To(Succeed())
			Expect(pool.Pending()).To(BeZero())

			pool.Start()
			Consistently(ran.Load, 50*time.Millisecond).Should(BeZero())
			Expect(provider.Snapshot().Counters["pool_tasks_discarded_total"]).To(Equal(int64(5)))
		})

		It("fails while running", func() {
			pool.Start()
			Expect(pool.Clean()).To(MatchError(dispatcher.ErrRunning))
		})
	})

	Describe("Destroy", func() {
		It("drops queued tasks and rejects new ones", func() {
			var ran atomic.Int64
			for range 7 {
				Expect(pool.Push(dispatcher.TaskFunc(func() { ran.Add(1) }))).To(Succeed())
			}
			pool.Destroy()

			Expect(pool.State()).To(Equal(dispatcher.Destroying))
			Expect(pool.Pending()).To(BeZero())
			Expect(ran.Load()).To(BeZero())
			Expect(pool.Push(dispatcher.TaskFunc(func() {}))).To(MatchError(dispatcher.ErrDestroyed))
			Expect(pool.Clean()).To(MatchError(dispatcher.ErrDestroyed))
			Expect(provider.Snapshot().Counters["pool_tasks_discarded_total"]).To(Equal(int64(7)))
		})

		It("waits for in-flight tasks", func() {
			pool.Start()
			entered := make(chan struct{})
			var finished atomic.Bool
			Expect(pool.Push(dispatcher.NewTask(
				func() { close(entered); time.Sleep(50 * time.Millisecond) },
				func() { finished.Store(true) },
			))).To(Succeed())
			Eventually(entered).Should(BeClosed())

			pool.Destroy()
			Expect(finished.Load()).To(BeTrue())
		})

		It("is idempotent", func() {
			pool.Destroy()
			pool.Destroy()
			pool.Start()
			Expect(pool.State()).To(Equal(dispatcher.Destroying))
		})
	})

	It("rejects nil tasks", func() {
		Expect(pool.Push(nil)).To(MatchError(dispatcher.ErrNilTask))
		Expect(pool.Push(dispatcher.TaskFunc(nil))).To(MatchError(dispatcher.ErrNilTask))
	})

	It("records metrics under the pool prefix", func() {
		pool.Start()
		for range 8 {
			Expect(pool.Push(dispatcher.TaskFunc(func() {}))).To(Succeed())
		}
		Eventually(func() int64 {
			return provider.Snapshot().Counters["pool_tasks_executed_total"]
		}).Should(Equal(int64(8)))

		s := provider.Snapshot()
		Expect(s.Counters["pool_tasks_pushed_total"]).To(Equal(int64(8)))
		Expect(s.UpDowns["pool_tasks_queued"]).To(BeZero())
	})
})
