package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ashita-ai/rptrun/internal/cmdline"
	"github.com/ashita-ai/rptrun/internal/config"
	"github.com/ashita-ai/rptrun/internal/ctxutil"
	"github.com/ashita-ai/rptrun/internal/datasource"
	"github.com/ashita-ai/rptrun/internal/engine/sqlreport"
	"github.com/ashita-ai/rptrun/internal/fileutil"
	"github.com/ashita-ai/rptrun/internal/paramfile"
	"github.com/ashita-ai/rptrun/internal/runner"
	"github.com/ashita-ai/rptrun/internal/telemetry"
	"github.com/ashita-ai/rptrun/internal/viewer"
)

// version is set at build time via -ldflags.
var version = "dev"

const program = "rptrun"

// errInvalidRequest means a mandatory input was neither given nor configured.
var errInvalidRequest = errors.New("report path and data source are required")

func main() {
	os.Exit(run0(os.Args[1:], os.Stdout, os.Stderr))
}

func run0(args []string, stdout, stderr io.Writer) int {
	if cmdline.IsHelp(args) {
		cmdline.PrintUsage(stdout, program)
		return 0
	}

	// Load .env file if present.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	logger, closeLog, err := newLogger(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	defer closeLog()
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = ctxutil.WithRunID(ctx, runID)

	logger.Info("=== rptrun started ===", "version", version)
	code := 0
	err = run(ctx, args, cfg, logger, stdout)
	switch {
	case errors.Is(err, errInvalidRequest):
		logger.Error("invalid request", "error", err)
		_, _ = fmt.Fprintf(stderr, "ERROR: %v\n\n", err)
		cmdline.PrintUsage(stdout, program)
		code = 1
	case err != nil:
		logger.Error("fatal error", "error", err)
		printError(stderr, err)
		code = 1
	}
	logger.Info("=== rptrun finished ===", "exit_code", code)
	return code
}

func run(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	_, _ = fmt.Fprintf(out, "%s %s - unattended report runner\n\n", program, version)

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.OTELEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     version,
		Insecure:    cfg.OTELInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	files := fileutil.New()
	flags := cmdline.Parse(args, logger)
	resolver := cmdline.NewResolver(cfg, paramfile.NewLoader(files, logger), logger)
	req := resolver.Resolve(ctx, flags)
	if !req.IsValid() {
		return errInvalidRequest
	}
	_, _ = fmt.Fprintf(out, "Report: %s\nDSN:    %s\n", req.ReportPath, req.DSN)

	registry, err := datasource.LoadRegistry(datasource.Paths(cfg.OdbcIni, cfg.OdbcSysIni), logger)
	if err != nil {
		return err
	}

	r := runner.New(runner.Deps{
		Engine: sqlreport.New(files, registry, logger),
		Files:  files,
		Viewer: viewer.New(cfg.Viewer, logger),
		Out:    out,
		Logger: logger,
	})
	if err := r.Run(ctx, req); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "\nReport processed successfully.")
	return nil
}

// newLogger builds the run logger from cfg. Logs go to stderr unless a
// log file is configured.
func newLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	w, closeFn := stderr, func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, func() { _ = f.Close() }
	}
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closeFn, nil
}

// printError writes err followed by the chain of errors it wraps.
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "ERROR: %v\n", err)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		_, _ = fmt.Fprintf(w, "  caused by: %v\n", cause)
	}
}
