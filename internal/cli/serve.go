package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"csv-import/internal/api"
	"csv-import/internal/api/handler"
	"csv-import/internal/logger"
	"csv-import/internal/store"
	"csv-import/pkg/router"

	"github.com/spf13/cobra"
)

func newServeCommand(stdout, stderr io.Writer) *cobra.Command {
	var addr, ledgerPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run ledger over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ledgerPath)
			if err != nil {
				return err
			}
			defer st.Close()

			log := logger.NewStandardLogger(stderr)
			r := router.New(log)
			api.RegisterRoutes(r, handler.NewRunHandler(st, log))
			return r.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address.")
	cmd.Flags().StringVar(&ledgerPath, "ledger-path", "pipeline.db", "SQLite run ledger to serve.")
	return cmd
}

// Serve is the entry point of the standalone API binary.
func Serve(args []string, stdout, stderr io.Writer) error {
	cmd := newServeCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceUsage = true
	return cmd.Execute()
}
