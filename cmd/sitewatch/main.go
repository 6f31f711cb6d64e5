package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/scheduler"
	"github.com/hamed0406/sitewatch/internal/state"
)

const (
	exitFailure = 1
	exitDown    = 2
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file with configuration; missing file is ignored")
	once := pflag.Bool("once", false, "check every site once, print the result and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(exitFailure)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(exitFailure)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	targets := domain.Targets(cfg.Sites)
	logger.Info("checking_sites", zap.Strings("sites", cfg.Sites), zap.Bool("strict_down_check", cfg.StrictDownCheck))
	for _, s := range cfg.InvalidSites() {
		logger.Warn("site_not_http_url", zap.String("url", s))
	}

	checker := probe.NewBatchChecker(probe.WithRetries(
		probe.NewHTTPChecker(cfg.ProbeTimeout, cfg.StrictDownCheck),
		cfg.ProbeAttempts,
		cfg.ProbeRetryBackoff,
	))

	if *once {
		os.Exit(runOnce(ctx, logger, checker, targets))
	}

	if cfg.UsesPlaceholderCredentials() {
		logger.Warn("placeholder_credentials", zap.String("hint", "set BOT_TOKEN and CHAT_ID"))
	}

	if err := run(ctx, cfg, logger, checker, targets); err != nil {
		logger.Error("exit_error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(exitFailure)
	}
}

func newSender(cfg config.Config) notify.Sender {
	if cfg.SlackWebhook != "" {
		return notify.NewSlack(cfg.SlackWebhook)
	}
	return notify.NewTelegram(cfg.TelegramAPIURL, cfg.BotToken, cfg.ChatID)
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, checker *probe.BatchChecker, targets []domain.Target) error {
	down := state.New()

	schedCfg := scheduler.Config{
		Interval:        cfg.Interval,
		NervousInterval: cfg.NervousInterval,
		Templates: scheduler.Templates{
			Down:      cfg.TemplateDown,
			Up:        cfg.TemplateUp,
			AliveSelf: cfg.TemplateAliveSelf,
		},
	}
	if alive, err := scheduler.ParseCalendar(cfg.CronAliveSelf); err != nil {
		// liveness is optional; a bad expression only disables it
		logger.Warn("invalid_cron_alive_self", zap.String("expr", cfg.CronAliveSelf), zap.Error(err))
	} else {
		schedCfg.AliveSchedule = alive
	}

	monitor := scheduler.NewMonitor(
		logger,
		targets,
		checker,
		down,
		notify.New(newSender(cfg), logger.Named("notify")),
		schedCfg,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(gctx) })

	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger.Named("httpapi"), targets, down)
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.Router(cfg.StatusAPIKeys, cfg.StatusRPM, cfg.StatusBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("api_listen", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status api: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		logger.Info("shutdown", zap.String("reason", ctx.Err().Error()))
	}
	return multierr.Append(err, ignoreSyncErr(logger.Sync()))
}

// ignoreSyncErr drops the error zap reports when stderr is a terminal or pipe.
func ignoreSyncErr(err error) error {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}
