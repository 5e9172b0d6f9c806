package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/adapters/command"
	"github.com/samirrijal/horao/internal/adapters/http"
	natsadapter "github.com/samirrijal/horao/internal/adapters/nats"
	"github.com/samirrijal/horao/internal/adapters/postgres"
	"github.com/samirrijal/horao/internal/adapters/scene"
	"github.com/samirrijal/horao/internal/adapters/valkey"
	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/core/ports"
	"github.com/samirrijal/horao/internal/core/usecases"
	"github.com/samirrijal/horao/internal/pkg/config"
	"github.com/samirrijal/horao/internal/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("horao")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	eye, err := domain.ParseCenter(cfg.Pager.Eye)
	if err != nil {
		log.Fatalf("pager.eye: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Feature source, one pool per conn_info
	features := postgres.NewFeatureRepo(cfg.Database.MaxConns)
	defer features.Close()

	// Mesh cache
	var (
		cache  ports.CacheService
		pinger http.Pinger
	)
	if cfg.Cache.Enabled {
		c, err := valkey.New(cfg.Cache.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, meshes will not be cached", "error", err)
		} else {
			defer c.Close()
			cache, pinger = c, c
		}
	}
	tiles := usecases.NewTileService(features, cache, cfg.Cache.TTLSeconds)

	graph := scene.NewGraph(cfg.Pager.Workers)
	graph.RegisterLoader(domain.ResourceSuffix, tiles)

	// NATS
	var (
		conn      *nats.Conn
		publisher ports.EventPublisher
	)
	if cfg.NATS.Enabled {
		conn, err = natsadapter.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			pub, err := natsadapter.NewPublisher(conn, cfg.NATS.EventSubject)
			if err != nil {
				slog.Warn("layer events disabled", "error", err)
			} else {
				publisher = pub
			}
			defer conn.Drain()
		}
	}

	layers := usecases.NewLayerService(graph, graph, usecases.NewLODPlanner(&usecases.Floor{}), publisher)
	interp := command.NewInterpreter(layers)

	lines := make(chan string, 64)
	persistent := conn != nil || cfg.Admin.Enabled

	if conn != nil {
		sub := natsadapter.NewSubscriber(conn, cfg.NATS.CommandSubject)
		err := sub.SubscribeCommands(ctx, func(ctx context.Context, line string) error {
			select {
			case lines <- line:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			slog.Warn("nats command input disabled", "error", err)
		} else {
			defer sub.Close()
			slog.Info("listening for commands", "subject", cfg.NATS.CommandSubject)
		}
	}

	var app *fiber.App
	if cfg.Admin.Enabled {
		deps := &http.Dependencies{
			Layers:   layers,
			Scene:    graph,
			Commands: lines,
			Cache:    pinger,
		}
		if conn != nil {
			deps.NATS = conn.IsConnected
		}
		app = fiber.New(fiber.Config{
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
			BodyLimit:             1024 * 1024,
			AppName:               "horao admin",
			DisableStartupMessage: true,
		})
		app.Use(recover.New())
		http.SetupRoutes(app, deps)

		go func() {
			addr := fmt.Sprintf(":%d", cfg.Admin.Port)
			slog.Info("admin server starting", "addr", addr)
			if err := app.Listen(addr); err != nil {
				slog.Error("admin server stopped", "error", err)
			}
		}()
	}

	input := cfg.Input
	if len(os.Args) > 1 {
		input = os.Args[1]
	}

	// Feed may block on stdin after shutdown; it is not waited for.
	go func() {
		if err := command.Feed(ctx, lines, input, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("command input failed", "error", err)
		}
		if !persistent {
			close(lines)
		}
	}()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		page(ctx, graph, eye, time.Duration(cfg.Pager.IntervalMS)*time.Millisecond)
	}()

	if err := interp.Run(ctx, lines, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("interpreter stopped", "error", err)
	}
	slog.Info("shutting down")
	stop()

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("forced shutdown", "error", err)
		}
	}
	wg.Wait()
	slog.Info("stopped")
}

// page refreshes paged tiles around eye until ctx is done.
func page(ctx context.Context, graph *scene.Graph, eye r3.Vec, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := graph.Update(ctx, eye)
			if err != nil {
				slog.Warn("tile paging failed", "failed", stats.Failed, "error", err)
			}
			if stats.Loaded > 0 || stats.Expired > 0 {
				slog.Debug("tiles paged", "loaded", stats.Loaded, "expired", stats.Expired)
			}
		}
	}
}
