// orderfeed connects to an order WebSocket feed and renders one table row
// per order event.
// Usage: go run ./cmd/orderfeed --config configs/orderfeed.example.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/orderfeed/internal/config"
	"github.com/rickgao/orderfeed/internal/connection"
	"github.com/rickgao/orderfeed/internal/database"
	"github.com/rickgao/orderfeed/internal/display"
	"github.com/rickgao/orderfeed/internal/feed"
	"github.com/rickgao/orderfeed/internal/server"
	"github.com/rickgao/orderfeed/internal/version"
	"github.com/rickgao/orderfeed/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/orderfeed.example.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Rows may go to stdout, so diagnostics go to stderr.
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting orderfeed",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("orderfeed failed", "error", err)
		os.Exit(1)
	}

	logger.Info("orderfeed stopped")
}

func run(cfg *config.FeedConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Display targets
	table := display.NewTable()
	targets := display.Multi{table}
	if cfg.Display.Stdout {
		targets = append(targets, display.NewLineWriter(os.Stdout))
	}

	if cfg.Archive.Enabled {
		archive, stop, err := startArchive(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stop()
		targets = append(targets, archive)
	}

	renderer, err := feed.NewRenderer(targets, logger)
	if err != nil {
		return err
	}

	// Feed connection
	connCfg := connection.DefaultClientConfig()
	connCfg.URL = cfg.Feed.URL()
	connCfg.HandshakeTimeout = cfg.Feed.HandshakeTimeout
	if cfg.Feed.PingInterval != nil {
		connCfg.PingInterval = *cfg.Feed.PingInterval
	}
	connCfg.WriteTimeout = cfg.Feed.WriteTimeout
	connCfg.QueueSize = cfg.Feed.QueueSize
	connCfg.UserAgent = version.UserAgent()

	client := connection.NewClient(connCfg, logger)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           server.New(table, client, logger).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting http server", "port", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		logger.Info("connecting to order feed", "url", connCfg.URL)

		// A dial failure is reported as error and closed events, which the
		// renderer logs; dispatch still runs to drain them.
		if err := client.Connect(gctx); err != nil {
			logger.Debug("connect returned error", "error", err)
		}

		stats := connection.Dispatch(gctx, client, renderer)
		rs := renderer.Stats()
		qs := client.QueueStats()
		logger.Info("order feed finished",
			"events", stats.Events,
			"messages", stats.Messages,
			"failed_messages", stats.FailedMessages,
			"rows", rs.Rendered,
			"malformed", rs.Malformed,
			"queue_capacity", qs.Capacity,
			"queue_resizes", qs.Resizes,
		)

		if !cfg.Server.Enabled {
			cancel()
			return nil
		}

		// No reconnection; keep serving the rows already rendered.
		logger.Info("feed closed, serving rendered rows until shutdown", "rows", table.Len())
		<-gctx.Done()
		return nil
	})

	return g.Wait()
}

// startArchive connects to Postgres and starts the archive writer.
func startArchive(ctx context.Context, cfg *config.FeedConfig, logger *slog.Logger) (*writer.ArchiveWriter, func(), error) {
	db := cfg.Archive.Database

	logger.Info("connecting to archive database",
		"host", db.Host,
		"port", db.Port,
		"database", db.Name,
	)

	pool, err := database.Connect(ctx, db, cfg.Instance.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("connect archive database: %w", err)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	archive := writer.NewArchiveWriter(writer.WriterConfig{
		BatchSize:     cfg.Archive.BatchSize,
		FlushInterval: cfg.Archive.FlushInterval,
		InstanceID:    cfg.Instance.ID,
	}, pool, logger)

	if err := archive.Start(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("start archive writer: %w", err)
	}

	stop := func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := archive.Stop(shutdownCtx); err != nil {
			logger.Warn("archive writer stop", "error", err)
		}
		pool.Close()
	}

	return archive, stop, nil
}
