package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"csv-import/internal/config"
	"csv-import/internal/logger"
	"csv-import/internal/model"
	"csv-import/internal/pipeline"
	"csv-import/internal/sink"
	"csv-import/internal/store"
	"csv-import/internal/sysinfo"
	"csv-import/pkg/utils"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRunCommand(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import every input file once and print the totals.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = Import(ctx, cfg, Options{Stdout: stdout, Verbose: verbose})
			return err
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Write DEBUG lines to the log file.")
	importFlags(flags)
	return cmd
}

// importFlags declares one flag per configuration key, named after the key
// with underscores turned into dashes.
func importFlags(flags *pflag.FlagSet) {
	flags.String("mongodb-host", "localhost", "MongoDB host.")
	flags.Int("mongodb-port", 27017, "MongoDB port.")
	flags.String("mongodb-database", "", "Target database.")
	flags.String("mongodb-collection", "", "Target collection.")
	flags.String("mongodb-username", "", "MongoDB user; empty connects without credentials.")
	flags.String("mongodb-password", "", "MongoDB password.")
	flags.Int("max-threads", config.DefaultMaxWorkers, "Files imported at the same time; 0 means one worker per file.")
	flags.Int("memory-limit-percent", config.DefaultMemoryLimitPercent, "Hold new workers while host memory usage is at or above this percentage; 0 disables.")
	flags.String("memory-poll-interval", config.DefaultMemoryPollInterval.String(), "How often a held worker re-checks memory usage.")
	flags.String("input-dir", "files_csv", "Directory holding the pagina_*.csv files.")
	flags.String("mapping-file", "config/field_mapping.json", "Field-mapping description (JSON, JSONC or YAML).")
	flags.String("log-file", "import.log", "Log file, appended to.")
	flags.String("ledger-path", "pipeline.db", "SQLite run ledger; empty disables it.")
	flags.String("report-file", "", "Write the run report as JSON to this file.")
	flags.Int("progress-every", config.DefaultProgressEvery, "Log a progress line every N imported records per file.")
	flags.Bool("dry-run", false, "Transform every row but keep the documents in memory instead of MongoDB.")
}

func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, errors.Wrap(err, "getting config flag")
	}
	v, err := config.New(cmd.Flags())
	if err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}
	return config.Load(v, path)
}

// Options are the process-level knobs of Import.
type Options struct {
	Stdout  io.Writer
	Verbose bool
	// Dialer replaces the sink chosen from the configuration.
	Dialer sink.Dialer
}

// Import runs one import as configured and prints the totals to
// opts.Stdout. An interrupted run still prints and records its totals and is
// not an error.
func Import(ctx context.Context, cfg *model.Config, opts Options) (model.RunSummary, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	log, err := logger.Open(cfg.LogFile, opts.Verbose)
	if err != nil {
		return model.RunSummary{}, err
	}
	defer log.Close()

	defer reopenOnHangup(log)()

	var ledger pipeline.Ledger
	if cfg.LedgerPath != "" {
		st, err := store.Open(cfg.LedgerPath)
		if err != nil {
			log.Warnf("run ledger disabled: %v", err)
		} else {
			defer st.Close()
			ledger = st
		}
	}

	dialer := opts.Dialer
	if dialer == nil {
		if cfg.DryRun {
			dialer = sink.NewMemory()
		} else {
			dialer = sink.MongoDialer{AppName: "csvimport"}
		}
	}

	c := &pipeline.Coordinator{
		Config: cfg,
		Dialer: dialer,
		Log:    log,
		Ledger: ledger,
		Admission: &pipeline.Admission{
			LimitPercent: float64(cfg.MemoryLimitPercent),
			Interval:     cfg.MemoryPollInterval,
			Probe:        sysinfo.SystemMemory{},
			Log:          log,
		},
		Out: stdout,
	}
	summary, err := c.Run(ctx)
	if err != nil && !interrupted(err) {
		log.Errorf("import aborted: %v", err)
		return summary, err
	}

	printReport(stdout, summary)
	if cfg.ReportFile != "" {
		if err := utils.WriteJSON(cfg.ReportFile, summary); err != nil {
			log.Warnf("writing run report: %v", err)
		}
	}
	return summary, nil
}

// interrupted reports whether err only says the run was stopped early.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// reopenOnHangup reopens the log file on SIGHUP until the returned function
// is called.
func reopenOnHangup(log *logger.FileLogger) func() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range hup {
			if err := log.Reopen(); err != nil {
				log.Warnf("reopening log file: %v", err)
			}
		}
	}()
	return func() {
		signal.Stop(hup)
		close(hup)
		<-done
	}
}

func printReport(w io.Writer, s model.RunSummary) {
	fmt.Fprintf(w, "\nTotal lines read: %d\n", s.TotalLines)
	fmt.Fprintf(w, "Total documents inserted: %d\n", s.TotalInserted)
	if s.TotalSkipped > 0 || s.FailedFiles > 0 {
		fmt.Fprintf(w, "Lines skipped: %d, files failed: %d\n", s.TotalSkipped, s.FailedFiles)
	}
	fmt.Fprintf(w, "Elapsed time: %.2f seconds\n", s.Elapsed.Seconds())
}
