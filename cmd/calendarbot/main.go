package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/calendarbot/internal/calendar"
	"github.com/rewired-gh/calendarbot/internal/config"
	"github.com/rewired-gh/calendarbot/internal/logger"
	"github.com/rewired-gh/calendarbot/internal/metrics"
	"github.com/rewired-gh/calendarbot/internal/runner"
	"github.com/rewired-gh/calendarbot/internal/storage"
	"github.com/rewired-gh/calendarbot/internal/telegram"
)

const usage = "Usage: calendarbot [summary|alerts] [--force]"

type options struct {
	configPath string
	force      bool
	dryRun     bool
}

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "calendarbot [summary|alerts]",
		Short:        "Send today's economic calendar to Telegram",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := runner.ModeSummary
			if len(args) > 0 {
				mode = strings.ToLower(strings.TrimSpace(args[0]))
			}
			if mode != runner.ModeSummary && mode != runner.ModeAlerts {
				fmt.Fprintln(cmd.OutOrStdout(), usage)
				return nil
			}
			return execute(cmd.Context(), mode, opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to configuration file")
	flags.BoolVar(&opts.force, "force", false, "Ignore quiet hours (also FORCE_RUN=1)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print messages to stdout instead of sending them")

	return cmd
}

func execute(ctx context.Context, mode string, opts *options, out io.Writer) error {
	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.force {
		cfg.Schedule.Force = true
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("Configuration loaded from %s", opts.configPath)

	runOpts, err := runner.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg, runOpts, opts.dryRun, out)
	if err != nil {
		return err
	}

	httpClient, err := calendar.NewHTTPClient(cfg.Calendar)
	if err != nil {
		return err
	}
	fetcher, err := calendar.NewFetcher(cfg.Calendar, httpClient)
	if err != nil {
		return err
	}
	svc := calendar.NewService(fetcher, runOpts.Location, cfg.Calendar.Importance, cfg.Calendar.Countries)

	formatter := telegram.NewFormatter(cfg.Schedule.ZoneLabel, svc.Importance(), cfg.Schedule.AlertLead)
	rec := metrics.New()
	r := runner.New(svc, notifier, formatter, rec, runOpts)

	if cfg.Storage.LedgerPath != "" && mode == runner.ModeAlerts {
		store, err := storage.New(cfg.Storage.LedgerPath)
		if err != nil {
			return fmt.Errorf("failed to initialize alert ledger: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close alert ledger: %v", err)
			}
		}()
		r.WithLedger(store)
	}

	runErr := r.Run(ctx, mode)
	if runErr != nil {
		logger.Error("%v", runErr)
	}

	if cfg.Metrics.PushgatewayURL != "" {
		if err := rec.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, mode); err != nil {
			logger.Warn("%v", err)
		}
	}

	return runErr
}

// newNotifier picks the delivery target. Credentials are required unless this is a
// dry run or quiet hours will keep the invocation from sending anything.
func newNotifier(cfg *config.Config, runOpts runner.Options, dryRun bool, out io.Writer) (runner.Notifier, error) {
	if dryRun {
		return telegram.NewPrinter(out), nil
	}

	if err := cfg.RequireCredentials(); err != nil {
		if !runOpts.Suppressed(time.Now()) {
			return nil, err
		}
		logger.Debug("Telegram credentials not set; nothing is sent during quiet hours")
		return unavailable{err: err}, nil
	}

	client, err := telegram.NewClient(cfg.Telegram, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	return client, nil
}

// unavailable stands in for a client that could not be configured
type unavailable struct {
	err error
}

func (u unavailable) Send(string) error {
	return u.err
}
