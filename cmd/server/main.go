package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"schematic/internal/config"
	"schematic/internal/handler"
	"schematic/internal/hub"
	"schematic/internal/metric"
	"schematic/internal/repository/sqlite"
	"schematic/internal/scene"
	"schematic/internal/service"
	"schematic/internal/surface"
	"schematic/internal/viewport"
	"schematic/internal/watcher"
)

func main() {
	// Command line flags override the config file
	configPath := flag.String("config", "", "Config file path (default: discovered)")
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	snapshot := flag.String("snapshot", "", "Snapshot file imported at startup")
	watch := flag.Bool("watch", false, "Re-import the snapshot file when it changes")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting schematic server...")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *snapshot != "" {
		cfg.Snapshot.Path = *snapshot
	}
	if *watch {
		cfg.Snapshot.Watch = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Println(cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	metrics := metric.NewRegistry()

	// SSE hub carries frames and service events to clients
	sseHub := hub.New(hub.WithClientObserver(metrics.Metrics.ClientsChanged))

	// Scene drawing to a frame surface
	frames := surface.NewFrameSurface(cfg.Viewport.Width, cfg.Viewport.Height, sseHub, metrics.Metrics)
	resolver := service.NewCatalogResolver(repo)
	manager := scene.NewManager(frames, resolver, resolver,
		scene.WithRecorder(metrics.Metrics),
		scene.WithLogger(log.Default()),
		scene.WithDefaultColor(cfg.Render.DefaultColor),
		scene.WithGridSpacing(cfg.Grid.Spacing),
		scene.WithZoomLimits(cfg.Viewport.MinZoom, cfg.Viewport.MaxZoom),
	)
	frames.Bind(manager)

	stream := viewport.NewStream()
	if err := manager.Subscribe(stream); err != nil {
		log.Fatalf("Failed to subscribe scene to viewport: %v", err)
	}
	defer func() {
		manager.Close()
		stream.Close()
	}()

	eventBus := service.NewEventBus()
	svc := service.NewSceneService(repo, manager, frames, stream, eventBus, cfg.ViewingContext())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sseHub.Run(gctx)
		return nil
	})

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case event := <-eventChan:
				sseHub.Publish(string(event.Type), event)
			}
		}
	})

	// Initial scene
	if cfg.Snapshot.Path != "" {
		if _, err := svc.ImportFile(ctx, cfg.Snapshot.Path); err != nil {
			log.Printf("Failed to import snapshot: %v", err)
		}
	} else if err := svc.Reload(ctx); err != nil {
		log.Printf("Failed to load scene: %v", err)
	}

	if cfg.Snapshot.Watch {
		w := watcher.New(cfg.Snapshot.Path, func() {
			if _, err := svc.ImportFile(gctx, cfg.Snapshot.Path); err != nil {
				log.Printf("Failed to re-import snapshot: %v", err)
			}
		}).WithDebounce(cfg.Snapshot.Debounce.Duration())

		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Snapshot watcher stopped: %v", err)
			}
			return nil
		})
	}

	// Routes
	mux := http.NewServeMux()
	handler.NewSceneHandler(svc).Register(mux)
	mux.Handle("GET /events", sseHub)
	if cfg.Server.Metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS(cfg.Server.CORSOrigins...),
		handler.Logger(metrics.Metrics),
	)

	// No write timeout: SSE streams stay open
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("Server stopped")
}

// loadConfig reads the given file, or discovers one
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg   *config.Config
		found string
		err   error
	)
	if path != "" {
		cfg, found, err = config.LoadFromPath(path)
	} else {
		cfg, found, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if found != "" {
		log.Printf("Config loaded: %s", found)
	} else {
		log.Println("No config file found, using defaults")
	}
	return cfg, nil
}
