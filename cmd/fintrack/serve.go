package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

// application is the wired API plus what must be released or run beside it.
type application struct {
	server  *apphttp.Server
	janitor *cache.Janitor
	sweep   time.Duration
	closers []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// newApplication wires services, reports and change sinks around store.
func newApplication(ctx context.Context, cfg *config.Config, logger *log.Logger, store storage.Store) *application {
	app := &application{}

	var cacheSink, brokerSink core.ChangeSink
	engine := report.NewEngine(store, core.SystemClock{})
	var reports report.Reporter = engine
	if cfg.ReportCacheEnabled() {
		lru := cache.NewLRUCache[[]core.Transaction](cfg.ReportCacheSize, cfg.ReportCacheTTL)
		cached := report.NewCached(engine, engine.Today, lru, logger)
		cacheSink = cached
		reports = cached
		app.janitor = cache.NewJanitor(logger.WithComponent(log.ComponentCache).Logger, lru)
		app.sweep = cfg.ReportCacheTTL
		logger.InfoContext(ctx, "Report cache enabled", "ttl", cfg.ReportCacheTTL, "size", cfg.ReportCacheSize)
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without export", log.FieldError, err)
		} else {
			logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			brokerSink = client
			app.closers = append(app.closers, client.Close)
		}
	}
	sinks := changeSinks(cacheSink, brokerSink)

	opts := []services.Option{services.WithLogger(logger)}
	app.server = apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, apphttp.Dependencies{
		Categories:   services.NewCategoryService(store, sinks, opts...),
		Transactions: services.NewTransactionService(store, sinks, opts...),
		Reports:      reports,
		Auth:         auth.NewHeaderProvider(cfg.AuthHeader),
		Store:        store,
	})
	return app
}

// changeSinks notifies the in-process cache before the broker, whose publish
// may block on a reconnect.
func changeSinks(cacheSink, brokerSink core.ChangeSink) core.ChangeSinks {
	var sinks core.ChangeSinks
	for _, sink := range []core.ChangeSink{cacheSink, brokerSink} {
		if sink != nil {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	ctx, stop := cli.SignalContext(cmd.Context(), logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}()

	app := newApplication(ctx, cfg, logger, res.Store)
	defer app.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting fintrack server", "addr", cfg.Addr(), "backend", cfg.DataBackend, "version", version)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		logger.Info("Server stopped gracefully")
		return nil
	})
	if app.janitor != nil {
		g.Go(func() error { return app.janitor.Run(gctx, app.sweep) })
	}
	return g.Wait()
}
