package hdl

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gmeasure"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Kernel", func() {
	var (
		mockCtrl *gomock.Controller
		kernel   *Kernel
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		kernel = NewKernel()
	})

	AfterEach(func() {
		kernel.Dispose()
		mockCtrl.Finish()
	})

	It("should activate registered processes, later registrations first", func() {
		var order []string

		for _, name := range []string{"p1", "p2", "p3"} {
			n := name
			kernel.RegisterProcess(n, func(k *Kernel) {
				order = append(order, n)
			})
		}

		Expect(kernel.Run()).To(Succeed())

		Expect(order).To(Equal([]string{"p3", "p2", "p1"}))
		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(0)))
	})

	It("should advance time by the sum of consumed delays", func() {
		kernel.RegisterProcess("p", func(k *Kernel) {
			k.Delay(3)
			k.Delay(4)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(7)))
	})

	It("should treat a zero delay as a yield within the current tick", func() {
		var trace []string

		kernel.RegisterProcess("a", func(k *Kernel) {
			trace = append(trace, "a1")
			k.Delay(0)
			trace = append(trace, "a2")
		})
		kernel.RegisterProcess("b", func(k *Kernel) {
			trace = append(trace, "b")
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(trace).To(Equal([]string{"b", "a1", "a2"}))
		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(0)))
	})

	It("should interleave processes by wake-up time", func() {
		var trace []string
		mark := func(k *Kernel, s string) {
			trace = append(trace, fmt.Sprintf("(%d) %s", k.CurrentTime(), s))
		}

		kernel.RegisterProcess("a", func(k *Kernel) {
			k.Delay(5)
			mark(k, "a")
		})
		kernel.RegisterProcess("b", func(k *Kernel) {
			k.Delay(2)
			mark(k, "b")
			k.Delay(3)
			mark(k, "b")
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(trace).To(Equal([]string{"(2) b", "(5) a", "(5) b"}))
	})

	It("should not expose a pending write before the delta cycle", func() {
		sig := NewSignal("s")
		var before, after uint64

		kernel.RegisterProcess("p", func(k *Kernel) {
			k.Set(sig, 9)
			before = sig.Value()
			k.Delay(1)
			after = sig.Value()
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(before).To(Equal(uint64(0)))
		Expect(after).To(Equal(uint64(9)))
	})

	It("should coalesce writes within a tick, last write winning", func() {
		sig := NewSignal("s")
		wakes := 0
		var seen uint64

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			for {
				k.Wait(OnChange(sig))
				wakes++
				seen = sig.Value()
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(sig, 1)
			k.Set(sig, 2)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(wakes).To(Equal(1))
		Expect(seen).To(Equal(uint64(2)))
	})

	It("should ignore a write of the committed value", func() {
		sig := NewSignal("s")
		wakes := 0

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			for {
				k.Wait(OnChange(sig))
				wakes++
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(sig, 0)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(wakes).To(Equal(0))
		Expect(sig.Value()).To(Equal(uint64(0)))
	})

	It("should wake an any-change watcher on a round trip back to the old value", func() {
		sig := NewSignal("s")
		wakes := 0
		seen := uint64(99)

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			for {
				k.Wait(OnChange(sig))
				wakes++
				seen = sig.Value()
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(sig, 1)
			k.Set(sig, 0)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(wakes).To(Equal(1))
		Expect(seen).To(Equal(uint64(0)))
	})

	It("should not wake an edge watcher on a round trip back to the old value", func() {
		sig := NewSignal("s")
		wakes := 0

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			for {
				k.Wait(OnPosedge(sig))
				wakes++
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(sig, 1)
			k.Set(sig, 0)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(wakes).To(Equal(0))
	})

	It("should wake rising and falling watchers on their own edges only", func() {
		clk := NewSignal("clk")
		var rises, falls []VTimeInTicks

		kernel.RegisterProcess("riser", func(k *Kernel) {
			for {
				k.Wait(OnPosedge(clk))
				rises = append(rises, k.CurrentTime())
			}
		})
		kernel.RegisterProcess("faller", func(k *Kernel) {
			for {
				k.Wait(OnNegedge(clk))
				falls = append(falls, k.CurrentTime())
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(clk, 1)
			k.Delay(1)
			k.Set(clk, 0)
			k.Delay(1)
			k.Set(clk, 1)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(rises).To(Equal([]VTimeInTicks{0, 2}))
		Expect(falls).To(Equal([]VTimeInTicks{1}))
		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(3)))
	})

	It("should wake a both-edges watcher on rising and falling edges", func() {
		clk := NewSignal("clk")
		var times []VTimeInTicks

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			for {
				k.Wait(OnEdge(clk, BothEdges))
				times = append(times, k.CurrentTime())
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(clk, 1)
			k.Delay(1)
			k.Set(clk, 0)
			k.Delay(1)
			k.Set(clk, 2)
			k.Delay(1)
			k.Set(clk, 3)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(times).To(Equal([]VTimeInTicks{0, 1, 2}))
	})

	It("should wake a process once when several triggers match in one delta cycle", func() {
		s1 := NewSignal("s1")
		s2 := NewSignal("s2")
		wakes := 0

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			for {
				k.Wait(OnChange(s1), OnChange(s2))
				wakes++
			}
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(s1, 1)
			k.Set(s2, 1)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(wakes).To(Equal(1))
	})

	It("should release sensitivities as soon as the process resumes", func() {
		sig := NewSignal("s")
		wakes := 0

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			k.Wait(OnChange(sig))
			wakes++
			k.Delay(10)
		})
		kernel.RegisterProcess("driver", func(k *Kernel) {
			k.Set(sig, 1)
			k.Delay(1)
			k.Set(sig, 2)
			k.Delay(1)
			k.Set(sig, 3)
			k.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(wakes).To(Equal(1))
		Expect(sig.watchers).To(BeNil())
		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(10)))
	})

	It("should run a toggler against an any-change observer", func() {
		out := NewSignal("out")
		count := 0

		kernel.RegisterProcess("observer", func(k *Kernel) {
			for {
				k.Wait(OnChange(out))
				count++
			}
		})
		kernel.RegisterProcess("toggler", func(k *Kernel) {
			v := uint64(0)
			for i := 0; i < 5; i++ {
				v = 1 - v
				k.Set(out, v)
				k.Delay(1)
			}
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(count).To(Equal(5))
		Expect(out.Value()).To(Equal(uint64(1)))
		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(5)))
	})

	It("should stop the run when a process calls Finish", func() {
		kernel.RegisterProcess("spinner", func(k *Kernel) {
			for {
				k.Delay(1)
			}
		})
		kernel.RegisterProcess("master", func(k *Kernel) {
			k.Delay(5)
			k.Finish()
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(5)))
	})

	It("should tolerate repeated Finish calls", func() {
		kernel.RegisterProcess("master", func(k *Kernel) {
			k.Delay(2)
			k.Finish()
			k.Finish()
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(2)))
	})

	It("should invoke hooks around resumptions, commits, and time advances", func() {
		sig := NewSignal("s")
		var seen []string

		hook := NewMockHook(mockCtrl)
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx HookCtx) {
				switch ctx.Pos {
				case HookPosBeforeResume:
					seen = append(seen, "before "+ctx.Item.(*Process).Name())
				case HookPosAfterResume:
					seen = append(seen, "after "+ctx.Item.(*Process).Name())
				case HookPosSignalCommit:
					s := ctx.Item.(*Signal)
					seen = append(seen,
						fmt.Sprintf("commit %s=%d was %d", s.Name(), s.Value(), ctx.Detail))
				case HookPosTimeAdvance:
					seen = append(seen, fmt.Sprintf("advance %d", ctx.Item.(VTimeInTicks)))
				}
			}).
			AnyTimes()
		kernel.AcceptHook(hook)
		Expect(kernel.Hooks()).To(HaveLen(1))

		kernel.RegisterProcess("p", func(k *Kernel) {
			k.Set(sig, 1)
			k.Delay(2)
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(seen).To(Equal([]string{
			"before p",
			"after p",
			"commit s=1 was 0",
			"advance 2",
			"before p",
			"after p",
		}))
	})

	It("should refuse a duplicate process name", func() {
		kernel.RegisterProcess("p", func(k *Kernel) {})

		Expect(func() {
			kernel.RegisterProcess("p", func(k *Kernel) {})
		}).To(Panic())
	})

	It("should refuse a process without a routine", func() {
		Expect(func() {
			kernel.RegisterProcess("p", nil)
		}).To(Panic())
	})

	It("should refuse registration after the run has started", func() {
		kernel.RegisterProcess("p", func(k *Kernel) {})
		Expect(kernel.Run()).To(Succeed())

		Expect(func() {
			kernel.RegisterProcess("q", func(k *Kernel) {})
		}).To(Panic())
	})

	It("should refuse to run twice", func() {
		Expect(kernel.Run()).To(Succeed())

		Expect(func() {
			_ = kernel.Run()
		}).To(Panic())
	})

	It("should panic on kernel calls from outside a running process", func() {
		sig := NewSignal("s")

		Expect(func() { kernel.Delay(1) }).To(Panic())
		Expect(func() { kernel.Set(sig, 1) }).To(Panic())
		Expect(func() { kernel.Wait(OnChange(sig)) }).To(Panic())
		Expect(func() { kernel.Finish() }).To(Panic())
	})

	It("should panic on kernel calls from a goroutine spawned by a routine", func() {
		var misuse any

		kernel.RegisterProcess("p", func(k *Kernel) {
			done := make(chan struct{})
			go func() {
				defer func() {
					misuse = recover()
					close(done)
				}()
				k.Delay(1)
			}()
			<-done
		})

		Expect(kernel.Run()).To(Succeed())

		Expect(misuse).NotTo(BeNil())
	})

	It("should surface a routine panic as a run error", func() {
		p := kernel.RegisterProcess("bad", func(k *Kernel) {
			k.Delay(1)
			panic("blown fuse")
		})

		err := kernel.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("bad"))
		Expect(err.Error()).To(ContainSubstring("blown fuse"))
		Expect(p.Finished()).To(BeTrue())
		Expect(kernel.CurrentTime()).To(Equal(VTimeInTicks(1)))
	})

	It("should fault a process that waits on nothing", func() {
		kernel.RegisterProcess("empty", func(k *Kernel) {
			k.Wait()
		})

		err := kernel.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("waits on no triggers"))
	})

	It("should fault a process that sets a nil signal", func() {
		kernel.RegisterProcess("bad", func(k *Kernel) {
			k.Set(nil, 1)
		})

		err := kernel.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("sets a nil signal"))
	})

	It("should release attached bindings when a wait faults on a nil signal", func() {
		sig := NewSignal("s")

		kernel.RegisterProcess("bad", func(k *Kernel) {
			k.Wait(OnChange(sig), Trigger{})
		})

		err := kernel.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("waits on a nil signal"))
		Expect(sig.watchers).To(BeNil())
	})

	It("should release the bindings of parked processes on dispose", func() {
		sig := NewSignal("s")

		kernel.RegisterProcess("watcher", func(k *Kernel) {
			k.Wait(OnChange(sig))
		})
		kernel.RegisterProcess("master", func(k *Kernel) {
			k.Delay(3)
		})

		Expect(kernel.Run()).To(Succeed())
		Expect(sig.watchers).NotTo(BeNil())

		kernel.Dispose()
		kernel.Dispose()

		Expect(sig.watchers).To(BeNil())
	})

	It("should dispose a kernel that never ran", func() {
		kernel.RegisterProcess("p", func(k *Kernel) {})

		kernel.Dispose()
	})

	It("measure resumption speed", func() {
		experiment := gmeasure.NewExperiment("Kernel Resumption Speed")
		AddReportEntry(experiment.Name, experiment)

		experiment.MeasureDuration("runtime", func() {
			k := NewKernel()
			k.RegisterProcess("p", func(k *Kernel) {
				for i := 0; i < 100000; i++ {
					k.Delay(1)
				}
			})

			_ = k.Run()
			k.Dispose()
		})
	})
})
