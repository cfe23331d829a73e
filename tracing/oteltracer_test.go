package tracing

import (
	"time"

	"github.com/sarchlab/worksim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

var _ = Describe("OTelTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		recorder   *tracetest.SpanRecorder
		t          *OTelTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		recorder = tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(recorder))

		t = NewOTelTracer(timeTeller, provider.Tracer("test"))
		t.Unit = time.Millisecond
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should map tasks to spans in virtual time", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(10))
		t.StartTask(Task{ID: "1", Kind: "grading", What: "g1", Where: "w4"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(12.5))
		t.StepTask(Task{ID: "1", Steps: []TaskStep{{What: "blocked"}}})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(20))
		t.EndTask(Task{ID: "1"})

		spans := recorder.Ended()
		Expect(spans).To(HaveLen(1))

		span := spans[0]
		Expect(span.Name()).To(Equal("g1"))
		Expect(span.StartTime()).To(
			BeTemporally("==", t.Epoch.Add(10*time.Millisecond)))
		Expect(span.EndTime()).To(
			BeTemporally("==", t.Epoch.Add(20*time.Millisecond)))
		Expect(span.Attributes()).To(ContainElement(
			attribute.String("worksim.task.where", "w4")))

		Expect(span.Events()).To(HaveLen(1))
		Expect(span.Events()[0].Name).To(Equal("blocked"))
		Expect(span.Events()[0].Time).To(
			BeTemporally("==", t.Epoch.Add(12500*time.Microsecond)))
	})

	It("should ignore unknown tasks", func() {
		t.StepTask(Task{ID: "9", Steps: []TaskStep{{What: "x"}}})
		t.EndTask(Task{ID: "9"})

		Expect(recorder.Ended()).To(BeEmpty())
	})
})
