package engine

import (
	"errors"

	"github.com/sarchlab/worksim/sim"
	"github.com/sarchlab/worksim/tracing"
	"github.com/sarchlab/worksim/workload"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testTask = workload.Task[string]
type testWorker = workload.Worker[string]

func newWorker(name string, tasks ...*testTask) *testWorker {
	w := workload.MakeWorkerBuilder[string]().Build(name)
	for _, t := range tasks {
		w.Enqueue(t)
	}

	return w
}

var _ = Describe("Engine", func() {
	var e *Engine[string]

	BeforeEach(func() {
		e = MakeBuilder[string]().Build()
	})

	It("should finish immediately without workers", func() {
		result, err := e.Run(nil, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(0)))
		Expect(result.Completions).To(BeEmpty())
	})

	It("should run a single queue serially", func() {
		a := workload.NewTask("a", "R", 10)
		b := workload.NewTask("b", "R", 20)
		c := workload.NewTask("c", "R", 30)
		w := newWorker("w0", a, b, c)

		result, err := e.Run([]*testWorker{w}, []*testTask{a, b, c})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(60)))
		Expect(result.Completions).To(Equal([]Completion{
			{ID: "1", Task: "a", Worker: "w0", Start: 0, End: 10},
			{ID: "2", Task: "b", Worker: "w0", Start: 10, End: 30},
			{ID: "3", Task: "c", Worker: "w0", Start: 30, End: 60},
		}))
		Expect(a.Completed() && b.Completed() && c.Completed()).To(BeTrue())
	})

	It("should run independent workers in parallel", func() {
		tasks := []*testTask{
			workload.NewTask("a", "R", 100),
			workload.NewTask("b", "R", 100),
			workload.NewTask("c", "R", 100),
		}
		workers := []*testWorker{
			newWorker("w0", tasks[0]),
			newWorker("w1", tasks[1]),
			newWorker("w2", tasks[2]),
		}

		result, err := e.Run(workers, tasks)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(100)))
		Expect(result.Completions).To(HaveLen(3))
		for i, c := range result.Completions {
			Expect(c.WorkerIndex).To(Equal(i))
		}
	})

	It("should wait for dependencies on other workers", func() {
		t1 := workload.NewTask("task1", "R", 100)
		t2 := workload.NewTask("task2", "R", 50, t1)

		result, err := e.Run(
			[]*testWorker{newWorker("A", t1), newWorker("B", t2)},
			[]*testTask{t1, t2})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(150)))
		Expect(result.CompletionsOf("B")).To(Equal([]Completion{
			{ID: "2", Task: "task2", Worker: "B", WorkerIndex: 1,
				Start: 100, End: 150},
		}))
	})

	It("should scale durations by skill", func() {
		t1 := workload.NewTask("t1", "R", 100)
		w := workload.MakeWorkerBuilder[string]().
			WithSkill("R", 2).
			Build("fast")
		w.Enqueue(t1)

		result, err := e.Run([]*testWorker{w}, []*testTask{t1})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(25)))
	})

	It("should not start a task before the previous one ends", func() {
		a := workload.NewTask("a", "R", 100)
		b := workload.NewTask("b", "R", 10)
		c := workload.NewTask("c", "R", 5)

		result, err := e.Run(
			[]*testWorker{newWorker("w0", a, b), newWorker("w1", c)},
			[]*testTask{a, b, c})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(110)))
		Expect(result.CompletionsOf("w0")[1].Start).To(Equal(sim.VTime(100)))
	})

	It("should resolve simultaneous events in dispatch order", func() {
		a := workload.NewTask("a", "R", 10)
		b := workload.NewTask("b", "R", 10)

		result, err := e.Run(
			[]*testWorker{newWorker("w0", a), newWorker("w1", b)},
			[]*testTask{a, b})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Completions[0].Task).To(Equal("a"))
		Expect(result.Completions[1].Task).To(Equal("b"))
	})

	It("should skip tasks that are already completed", func() {
		done := workload.NewTask("done", "R", 1000)
		Expect(done.AttemptComplete()).To(Succeed())
		next := workload.NewTask("next", "R", 10)

		result, err := e.Run(
			[]*testWorker{newWorker("w0", done, next)},
			[]*testTask{done, next})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(10)))
		Expect(result.Completions).To(HaveLen(1))
	})

	It("should run zero-duration tasks", func() {
		a := workload.NewTask("a", "R", 0)
		b := workload.NewTask("b", "R", 0, a)

		result, err := e.Run(
			[]*testWorker{newWorker("w0", b), newWorker("w1", a)},
			[]*testTask{a, b})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Makespan).To(Equal(sim.VTime(0)))
		Expect(result.Completions).To(HaveLen(2))
	})

	It("should report a negative skill", func() {
		a := workload.NewTask("a", "R", 10)
		w := workload.MakeWorkerBuilder[string]().
			WithSkill("R", -1).
			Build("w0")
		w.Enqueue(a)

		_, err := e.Run([]*testWorker{w}, []*testTask{a})

		Expect(err).To(MatchError(workload.ErrInvalidArgument))
		Expect(err.Error()).To(ContainSubstring("w0"))
	})

	Context("when the run stalls", func() {
		It("should detect an unassigned dependency", func() {
			y := workload.NewTask("Y", "R", 10)
			x := workload.NewTask("X", "R", 10, y)

			_, err := e.Run([]*testWorker{newWorker("w0", x)},
				[]*testTask{x, y})

			Expect(err).To(MatchError(ErrDeadlock))

			var deadlock *DeadlockError
			Expect(errors.As(err, &deadlock)).To(BeTrue())
			Expect(deadlock.At).To(Equal(sim.VTime(0)))
			Expect(deadlock.Blocked).To(Equal([]BlockedTask{
				{
					Task:       "X",
					Worker:     "w0",
					Waiting:    []string{"Y"},
					Unassigned: []string{"Y"},
				},
				{Task: "Y"},
			}))
			Expect(err.Error()).To(ContainSubstring("X@w0 waits on [Y]"))
		})

		It("should detect a cycle", func() {
			a := workload.NewTask("a", "R", 10)
			b := workload.NewTask("b", "R", 10)
			c := workload.NewTask("c", "R", 10, a, b)
			d := workload.NewTask("d", "R", 10, c)
			e2 := workload.NewTask("e", "R", 10, d)

			// b sits behind d, d waits for c, and c waits for b.
			_, err := e.Run(
				[]*testWorker{newWorker("w0", a, c), newWorker("w1", d, b)},
				[]*testTask{a, b, c, d, e2})

			var deadlock *DeadlockError
			Expect(errors.As(err, &deadlock)).To(BeTrue())
			Expect(deadlock.At).To(Equal(sim.VTime(10)))
			Expect(deadlock.Blocked).To(Equal([]BlockedTask{
				{Task: "c", Worker: "w0", Waiting: []string{"b"}},
				{Task: "d", Worker: "w1", Waiting: []string{"c"}},
				{Task: "b", Worker: "w1", Behind: "d"},
				{Task: "e"},
			}))
		})
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should invoke hooks around events and tasks", func() {
			var positions []string
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx sim.HookCtx) {
					positions = append(positions, ctx.Pos.Name)
				}).
				AnyTimes()

			e = MakeBuilder[string]().WithHook(hook).Build()

			t1 := workload.NewTask("task1", "R", 100)
			t2 := workload.NewTask("task2", "R", 50, t1)

			_, err := e.Run(
				[]*testWorker{newWorker("A", t1), newWorker("B", t2)},
				[]*testTask{t1, t2})

			Expect(err).NotTo(HaveOccurred())
			Expect(positions).To(Equal([]string{
				tracing.HookPosTaskStart.Name,
				tracing.HookPosTaskStart.Name,
				tracing.HookPosTaskStep.Name,
				sim.HookPosBeforeEvent.Name,
				tracing.HookPosTaskEnd.Name,
				sim.HookPosAfterEvent.Name,
				tracing.HookPosTaskEnd.Name,
				tracing.HookPosTaskStart.Name,
				sim.HookPosBeforeEvent.Name,
				tracing.HookPosTaskEnd.Name,
				sim.HookPosAfterEvent.Name,
			}))
		})

		It("should let tracers measure busy time", func() {
			t1 := workload.NewTask("task1", "R", 100)
			t2 := workload.NewTask("task2", "R", 50, t1)

			busy := tracing.NewBusyTimeTracer(e, func(t tracing.Task) bool {
				return t.Where == "B" && t.Kind != WaitKind
			})
			waiting := tracing.NewBusyTimeTracer(e, tracing.OfKind(WaitKind))
			tracing.CollectTrace(e, busy)
			tracing.CollectTrace(e, waiting)

			_, err := e.Run(
				[]*testWorker{newWorker("A", t1), newWorker("B", t2)},
				[]*testTask{t1, t2})

			Expect(err).NotTo(HaveOccurred())
			Expect(busy.BusyTime()).To(Equal(sim.VTime(50)))
			Expect(waiting.BusyTime()).To(Equal(sim.VTime(100)))
		})
	})

	Context("with a logger", func() {
		It("should log the run in verbose mode", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			e = MakeBuilder[string]().
				WithLogger(zap.New(core)).
				WithVerbose().
				Build()

			a := workload.NewTask("a", "R", 10)
			b := workload.NewTask("b", "R", 20)

			_, err := e.Run([]*testWorker{newWorker("w0", a, b)},
				[]*testTask{a, b})

			Expect(err).NotTo(HaveOccurred())
			Expect(logs.FilterMessage("initial queue").Len()).To(Equal(1))

			completed := logs.FilterMessage("task completed").All()
			Expect(completed).To(HaveLen(2))
			Expect(completed[1].ContextMap()).To(HaveKeyWithValue("done", int64(2)))
			Expect(completed[1].ContextMap()).To(HaveKeyWithValue("total", int64(2)))

			final := logs.FilterMessage("simulation complete").All()
			Expect(final).To(HaveLen(1))
			Expect(final[0].ContextMap()).To(HaveKeyWithValue("makespan", 30.0))
		})

		It("should stay quiet without verbose", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			e = MakeBuilder[string]().WithLogger(zap.New(core)).Build()

			a := workload.NewTask("a", "R", 10)
			_, err := e.Run([]*testWorker{newWorker("w0", a)}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(logs.Len()).To(Equal(0))
		})

		It("should log events through the event logger", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			e = MakeBuilder[string]().
				WithHook(sim.NewEventLogger(zap.New(core))).
				Build()

			a := workload.NewTask("a", "R", 10)
			_, err := e.Run([]*testWorker{newWorker("w0", a)}, nil)

			Expect(err).NotTo(HaveOccurred())

			events := logs.FilterMessage("event").All()
			Expect(events).To(HaveLen(1))
			Expect(events[0].ContextMap()).To(HaveKeyWithValue("now", 10.0))
		})
	})

	It("should panic on an unnamed engine", func() {
		Expect(func() {
			MakeBuilder[string]().WithName("").Build()
		}).To(Panic())
	})
})
