package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meur/wftracker/internal/api"
	"github.com/meur/wftracker/internal/catalog"
	"github.com/meur/wftracker/internal/config"
	"github.com/meur/wftracker/internal/inventory"
	"github.com/meur/wftracker/internal/logging"
	"github.com/meur/wftracker/internal/metrics"
	"github.com/meur/wftracker/internal/models"
	"github.com/meur/wftracker/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags
	port := flag.String("port", cfg.Port, "Server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	staticDir := flag.String("static", "", "Directory with frontend files to serve on /")
	flag.Parse()

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.LogDevelopment,
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize storage
	db, err := storage.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := inventory.Open(db, inventory.WithKey(cfg.InventoryKey), inventory.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to load inventory", zap.Error(err))
	}
	m.SetInventorySize(store.Len())
	store.Subscribe(m.ObserveEvent)

	cat := catalog.New(logger)
	srv := api.New(store, cat, api.Options{
		Logger:         logger,
		AllowedOrigins: cfg.CORSOrigins,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	defer srv.Close()

	if *staticDir != "" {
		abs, _ := filepath.Abs(*staticDir)
		FileServer(srv.Router(), "/", http.Dir(abs))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The catalog loads in the background; a failure is reported once and
	// leaves the catalog empty until the next start or scheduled refresh.
	loader := catalogLoader(cfg, db)
	go func() {
		err := cat.Load(ctx, loader)
		m.CatalogLoaded(cat.Len(), err)
	}()

	if cfg.CatalogRefresh != "" {
		sched, err := catalog.Schedule(ctx, cat, loader, cfg.CatalogRefresh, m.CatalogLoaded)
		if err != nil {
			logger.Fatal("failed to schedule catalog refresh", zap.Error(err))
		}
		defer sched.Stop()
		logger.Info("catalog refresh scheduled", zap.String("schedule", cfg.CatalogRefresh))
	}

	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: srv,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("wftracker API starting", zap.String("addr", "http://localhost:"+*port))
	logger.Info("database", zap.String("path", *dbPath), zap.String("catalog_source", cfg.CatalogSource))
	if cfg.CatalogSource == config.SourceCache {
		n, err := db.CountCatalogItems()
		if err != nil {
			logger.Warn("failed to count cached catalog", zap.Error(err))
		} else {
			logger.Info("cached catalog", zap.Int("items", n))
		}
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// catalogLoader picks the dataset source
func catalogLoader(cfg config.Config, db *storage.Store) catalog.Loader {
	if cfg.CatalogSource == config.SourceCache {
		return catalog.LoaderFunc(func(ctx context.Context) ([]models.CatalogItem, error) {
			return cachedCatalog(db)
		})
	}
	return catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout)
}

func cachedCatalog(db *storage.Store) ([]models.CatalogItem, error) {
	items, err := db.GetCatalogItems()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errEmptyCache
	}
	return items, nil
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, req)
	})
}
