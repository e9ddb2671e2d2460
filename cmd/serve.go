package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gradekit/repograde/pkg/cli"
	"github.com/gradekit/repograde/pkg/server"
	"github.com/gradekit/repograde/pkg/store"
)

var (
	serveAddr string
	serveJobs int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assessment HTTP API",
	Long: `Serve exposes the scoring engine over HTTP: submit measurement
documents, validate weight configurations, browse the catalog, and read
back stored assessments. The server shuts down gracefully on SIGINT or
SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	serveCmd.Flags().IntVar(&serveJobs, "jobs", 0, "scoring goroutines per request (default: one per attribute)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	applyOutputConfig(cmd, cfg)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	// The server logs structured JSON; the text handler from
	// setupLogging is for interactive use.
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var st *store.Store
	if cfg.History.IsEnabled() {
		st, err = store.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("serve: opening history store: %w", err)
		}
		defer st.Close()
	} else {
		logger.Warn("history store disabled; assessment endpoints will not persist results")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{Addr: addr, Jobs: serveJobs}, st, logger)
	return srv.Start(ctx)
}
