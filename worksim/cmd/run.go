package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/worksim/engine"
	"github.com/sarchlab/worksim/scenario"
	"github.com/sarchlab/worksim/sim"
	"github.com/sarchlab/worksim/simulation"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type runOptions struct {
	traceDB     string
	otelTrace   string
	verbose     bool
	utilization bool
	completions bool
	blockers    bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Simulate a scenario and print its makespan.",
	Long: "`run scenario.yaml` validates the scenario, simulates it, and " +
		"prints the makespan. A stalled simulation is reported with the " +
		"tasks that can never start.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOpts
		if opts.traceDB == "" {
			opts.traceDB = os.Getenv(envTraceDB)
		}

		return runScenario(cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOpts.traceDB, "trace-db", "",
		"Write the task trace into this SQLite database "+
			"(default $"+envTraceDB+")")
	runCmd.Flags().StringVar(&runOpts.otelTrace, "otel-trace", "",
		"Write every task as an OpenTelemetry span into this JSON file")
	runCmd.Flags().BoolVarP(&runOpts.verbose, "verbose", "v", false,
		"Log queues and every event at debug level")
	runCmd.Flags().BoolVarP(&runOpts.utilization, "utilization", "u", false,
		"Print the share of the makespan each worker is busy")
	runCmd.Flags().BoolVarP(&runOpts.completions, "completions", "c", false,
		"Print every completed task")
	runCmd.Flags().BoolVarP(&runOpts.blockers, "blockers", "b", false,
		"Print how many times each task kept a free worker waiting")
}

func runScenario(out io.Writer, path string, opts runOptions) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	workers, tasks, err := s.Build()
	if err != nil {
		return err
	}

	logger := zap.L()

	eb := engine.MakeBuilder[string]().WithLogger(logger)
	if opts.verbose {
		eb = eb.WithVerbose().WithHook(sim.NewEventLogger(logger))
	}

	b := simulation.MakeBuilder[string]().WithEngineBuilder(eb)
	if opts.traceDB != "" {
		b = b.WithDataRecording().WithOutputFileName(opts.traceDB)
	}

	if opts.utilization {
		b = b.WithUtilizationTracking()
	}

	if opts.blockers {
		b = b.WithBlockerTracking()
	}

	if opts.otelTrace != "" {
		provider, err := newSpanProvider(opts.otelTrace)
		if err != nil {
			return err
		}

		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Error("failed to write spans", zap.Error(err))
			}
		}()

		b = b.WithSpanTracer(provider.Tracer("worksim"))
	}

	simu := b.Build()

	for _, w := range workers {
		simu.RegisterWorker(w)
	}

	for _, t := range tasks {
		simu.RegisterTask(t)
	}

	result, runErr := simu.Run()

	if err := simu.Terminate(); err != nil {
		logger.Error("failed to close trace database", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(out, "makespan: %.2f\n", float64(result.Makespan))

	if opts.completions {
		printCompletions(out, result)
	}

	if opts.utilization {
		if err := printUtilization(out, simu); err != nil {
			return err
		}
	}

	if opts.blockers {
		return printBlockers(out, simu)
	}

	return nil
}

// newSpanProvider creates a tracer provider that writes spans to path as they
// end. Shutting down the provider closes the file.
func newSpanProvider(path string) (*sdktrace.TracerProvider, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(&closingExporter{SpanExporter: exporter, f: f}),
	)

	return provider, nil
}

type closingExporter struct {
	sdktrace.SpanExporter
	f *os.File
}

func (e *closingExporter) Shutdown(ctx context.Context) error {
	if err := e.SpanExporter.Shutdown(ctx); err != nil {
		e.f.Close()
		return err
	}

	return e.f.Close()
}

func printCompletions(out io.Writer, result engine.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tWORKER\tSTART\tEND")

	for _, c := range result.Completions {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n",
			c.Task, c.Worker, float64(c.Start), float64(c.End))
	}

	tw.Flush()
}

func printUtilization(out io.Writer, simu *simulation.Simulation[string]) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tBUSY\tUTILIZATION")

	for _, w := range simu.Workers() {
		util, err := simu.Utilization(w.Name())
		if err != nil {
			return err
		}

		busy, _ := simu.BusyTime(w.Name())

		fmt.Fprintf(tw, "%s\t%.2f\t%.1f%%\n",
			w.Name(), float64(busy), util*100)
	}

	return tw.Flush()
}

func printBlockers(out io.Writer, simu *simulation.Simulation[string]) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BLOCKER\tTIMES")

	for _, b := range simu.Blockers() {
		fmt.Fprintf(tw, "%s\t%d\n", b.Task, b.Times)
	}

	return tw.Flush()
}
