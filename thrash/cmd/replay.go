package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/thrash/cache"
	"github.com/sarchlab/thrash/cache/trace"
	"github.com/sarchlab/thrash/datarecording"
	"github.com/sarchlab/thrash/metrics/prom"
	"github.com/sarchlab/thrash/monitoring"
	"github.com/sarchlab/thrash/sim/hooking"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Touches between progress updates and cancellation checks.
const replayChunk = 4096

type replayOptions struct {
	spec        cache.Spec
	parallel    bool
	record      bool
	recordPath  string
	monitor     bool
	monitorPort int
	open        bool
	logTouches  bool
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [trace files...]",
		Short: "Replay address traces through the Global cache channel.",
		Long: "`replay a.trace b.trace` touches every address of the traces " +
			"on the Global channel and prints the final report. Use - to " +
			"read a trace from stdin.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := replayOptionsFrom(cmd)
			if err != nil {
				return err
			}

			files, err := readTraceFiles(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			_, err = replay(ctx, opts, files, cmd.OutOrStdout())

			return err
		},
	}

	addSpecFlags(cmd)
	cmd.Flags().Bool("parallel", false,
		"Replay all traces at the same time instead of one after another.")
	cmd.Flags().Bool("record", false,
		"Record every touch into a SQLite database.")
	cmd.Flags().String("record-db", "",
		"Name of the recording database, without the .sqlite3 suffix. "+
			"Implies --record.")
	cmd.Flags().Bool("monitor", false,
		"Serve the monitoring API until interrupted.")
	cmd.Flags().Int("monitor-port", 0,
		"Port of the monitoring server. Implies --monitor.")
	cmd.Flags().Bool("log-touches", false,
		"Print the outcome of every touch to stderr.")
	cmd.Flags().Bool("open", false,
		"Open the monitoring API in a browser. Implies --monitor.")

	return cmd
}

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func replayOptionsFrom(cmd *cobra.Command) (replayOptions, error) {
	spec, err := specSetting(cmd)
	if err != nil {
		return replayOptions{}, err
	}

	port, err := intSetting(cmd, "monitor-port", envMonitorPort)
	if err != nil {
		return replayOptions{}, err
	}

	opts := replayOptions{
		spec:        spec,
		recordPath:  stringSetting(cmd, "record-db", envRecordDB),
		monitorPort: port,
	}
	opts.parallel, _ = cmd.Flags().GetBool("parallel")
	opts.record, _ = cmd.Flags().GetBool("record")
	opts.monitor, _ = cmd.Flags().GetBool("monitor")
	opts.open, _ = cmd.Flags().GetBool("open")
	opts.logTouches, _ = cmd.Flags().GetBool("log-touches")

	opts.record = opts.record || opts.recordPath != ""
	opts.monitor = opts.monitor || opts.open || opts.monitorPort != 0

	return opts, nil
}

// replay runs the traces on the Global channel and writes the report to out.
// With monitoring on, it keeps serving until ctx is done.
func replay(
	ctx context.Context,
	opts replayOptions,
	files []traceFile,
	out io.Writer,
) (cache.Report, error) {
	registry := cache.RegistryOf[cache.Global]()

	evictions := hooking.NewPosCountTracer()
	registry.AcceptHook(evictions)
	defer registry.RemoveHook(evictions)

	if opts.logTouches {
		logger := hooking.NewLogHook(log.New(os.Stderr, "", log.Lmicroseconds))
		registry.AcceptHook(logger)
		defer registry.RemoveHook(logger)
	}

	var tracer *trace.DBTracer
	if opts.record {
		recorder := datarecording.New(opts.recordPath)
		defer recorder.Close()

		tracer = trace.NewDBTracer(recorder)
		registry.AcceptHook(tracer)
		defer registry.RemoveHook(tracer)
	}

	var monitor *monitoring.Monitor
	if opts.monitor {
		var adapter *prom.Adapter
		monitor, adapter = startMonitor(registry, opts)
		defer registry.RemoveHook(adapter)
	}

	registry.Configure(opts.spec)
	defer registry.Finish()

	err := replayFiles(ctx, registry, files, opts.parallel, monitor)
	if err != nil {
		return cache.Report{}, err
	}

	report, _ := registry.Report()
	if tracer != nil {
		tracer.RecordReport(registry.Name(), report)
	}

	fmt.Fprintf(out, "%s\n", report)
	fmt.Fprintf(out, "evictions: %d\n", evictions.GetCount(cache.HookPosEvict))

	if monitor != nil {
		log.Printf("Replay done, serving until interrupted")
		<-ctx.Done()
	}

	return report, nil
}

func replayFiles(
	ctx context.Context,
	registry *cache.Registry,
	files []traceFile,
	parallel bool,
	monitor *monitoring.Monitor,
) error {
	g, ctx := errgroup.WithContext(ctx)
	if !parallel {
		g.SetLimit(1)
	}

	for _, f := range files {
		var bar *monitoring.ProgressBar
		if monitor != nil {
			bar = monitor.CreateProgressBar(f.name, uint64(len(f.addresses)))
		}

		g.Go(func() error {
			err := replayFile(ctx, registry, f, bar)
			if bar != nil {
				monitor.CompleteProgressBar(bar)
			}

			return err
		})
	}

	return g.Wait()
}

func replayFile(
	ctx context.Context,
	registry *cache.Registry,
	f traceFile,
	bar *monitoring.ProgressBar,
) error {
	for start := 0; start < len(f.addresses); start += replayChunk {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("replaying %s: %w", f.name, err)
		}

		end := min(start+replayChunk, len(f.addresses))
		for _, address := range f.addresses[start:end] {
			registry.Touch(address)
		}

		if bar != nil {
			bar.IncrementFinished(uint64(end - start))
		}
	}

	return nil
}

func startMonitor(
	registry *cache.Registry,
	opts replayOptions,
) (*monitoring.Monitor, *prom.Adapter) {
	metrics := prometheus.NewRegistry()
	adapter := prom.Attach(metrics, registry)

	monitor := monitoring.NewMonitor().
		WithPortNumber(opts.monitorPort).
		WithGatherer(metrics)

	port := monitor.StartServer()

	if opts.open {
		url := fmt.Sprintf("http://localhost:%d/api/channels", port)
		if err := browser.OpenURL(url); err != nil {
			log.Printf("Cannot open %s: %v", url, err)
		}
	}

	return monitor, adapter
}
