package simulation

import (
	"github.com/rs/xid"
	"github.com/sarchlab/worksim/datarecording"
	"github.com/sarchlab/worksim/engine"
	"github.com/sarchlab/worksim/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Builder can be used to build a simulation.
type Builder[K comparable] struct {
	engineBuilder  engine.Builder[K]
	recordingOn    bool
	outputFileName string
	utilizationOn  bool
	spanTracer     trace.Tracer
	blockersOn     bool
}

// MakeBuilder creates a new builder.
func MakeBuilder[K comparable]() Builder[K] {
	return Builder[K]{
		engineBuilder: engine.MakeBuilder[K](),
	}
}

// WithEngineBuilder sets how the engine of the simulation is built.
func (b Builder[K]) WithEngineBuilder(eb engine.Builder[K]) Builder[K] {
	b.engineBuilder = eb
	return b
}

// WithDataRecording makes the simulation write a task trace into a SQLite
// database.
func (b Builder[K]) WithDataRecording() Builder[K] {
	b.recordingOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder[K]) WithOutputFileName(filename string) Builder[K] {
	b.outputFileName = filename
	return b
}

// WithUtilizationTracking makes the simulation measure how long each worker
// is busy.
func (b Builder[K]) WithUtilizationTracking() Builder[K] {
	b.utilizationOn = true
	return b
}

// WithBlockerTracking makes the simulation count how many times each task
// keeps a free worker waiting.
func (b Builder[K]) WithBlockerTracking() Builder[K] {
	b.blockersOn = true
	return b
}

// WithSpanTracer makes the simulation report every task as an OpenTelemetry
// span started by tracer.
func (b Builder[K]) WithSpanTracer(tracer trace.Tracer) Builder[K] {
	b.spanTracer = tracer
	return b
}

func (b Builder[K]) parametersMustBeValid() {
	if !b.recordingOn && b.outputFileName != "" {
		panic("output file name cannot be set when data recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder[K]) Build() *Simulation[K] {
	b.parametersMustBeValid()

	s := &Simulation[K]{
		id:              xid.New().String(),
		workerNameIndex: make(map[string]int),
		taskNameIndex:   make(map[string]int),
		trackUtil:       b.utilizationOn,
		busyTracers:     make(map[string]*tracing.BusyTimeTracer),
	}

	s.engine = b.engineBuilder.Build()

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "worksim_sim_" + s.id
		}

		s.dataRecorder = datarecording.New(outputPath)
		s.visTracer = tracing.NewDBTracer(s.engine, s.dataRecorder)
		tracing.CollectTrace(s.engine, s.visTracer)
	}

	if b.blockersOn {
		s.blockers = tracing.NewStepCountTracer(
			tracing.OfKind(engine.WaitKind))
		tracing.CollectTrace(s.engine, s.blockers)
	}

	if b.spanTracer != nil {
		s.spanTracer = tracing.NewOTelTracer(s.engine, b.spanTracer)
		tracing.CollectTrace(s.engine, s.spanTracer)
	}

	return s
}
