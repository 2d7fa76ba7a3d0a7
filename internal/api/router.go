package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/meur/wftracker/internal/catalog"
	"github.com/meur/wftracker/internal/inventory"
	"github.com/meur/wftracker/internal/models"
	"go.uber.org/zap"
)

// Options are the optional Server dependencies
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	Metrics        http.Handler // served on /metrics when set
}

// Server holds the HTTP server dependencies
type Server struct {
	inventory   *inventory.Store
	catalog     *catalog.Catalog
	logger      *zap.Logger
	validate    *validator.Validate
	events      *Hub
	unsubscribe func()
	origins     []string
	metrics     http.Handler
	router      chi.Router

	writeSpreadsheet func(io.Writer, []models.UserItem) error
}

// New creates a new API server over the inventory store and the catalog
func New(store *inventory.Store, cat *catalog.Catalog, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}

	s := &Server{
		inventory: store,
		catalog:   cat,
		logger:    logger.Named("api"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		origins:   origins,
		metrics:   opts.Metrics,
		router:    chi.NewRouter(),

		writeSpreadsheet: inventory.WriteSpreadsheet,
	}
	s.events = NewHub(s.logger)
	s.unsubscribe = store.Subscribe(s.events.Broadcast)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so binaries can mount extra handlers
func (s *Server) Router() chi.Router {
	return s.router
}

// Close detaches from the store and disconnects event listeners
func (s *Server) Close() {
	s.unsubscribe()
	s.events.Close()
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Change notifications; kept out of the compressed group
		r.Get("/events", s.events.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))

			r.Get("/meta", s.handleGetMeta)

			// Catalog
			r.Get("/catalog", s.handleSearchCatalog)
			r.Get("/catalog/status", s.handleCatalogStatus)
			r.Get("/catalog/lookup", s.handleLookupCatalogItem)

			// Inventory
			r.Get("/inventory", s.handleListInventory)
			r.Post("/inventory", s.handleAddItem)
			r.Get("/inventory/export", s.handleExportJSON)
			r.Get("/inventory/export.xlsx", s.handleExportXLSX)
			r.Post("/inventory/import", s.handleImport)
			r.Get("/inventory/{id}", s.handleGetItem)
			r.Patch("/inventory/{id}", s.handleUpdateItem)
			r.Delete("/inventory/{id}", s.handleDeleteItem)
			r.Post("/inventory/{id}/components/{index}/toggle", s.handleToggleComponent)

			r.Get("/stats", s.handleGetStats)
		})
	})

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
