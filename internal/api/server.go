// Package api provides the HTTP front-end of the reputation service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// Store interfaces for dependency injection and testing. The concrete
// implementations live in internal/reputation.

// BlacklistService defines the blacklist operations the API exposes.
type BlacklistService interface {
	Add(ctx context.Context, address, reason, addedBy string, entryType types.EntryType, provisional bool) bool
	Check(ctx context.Context, address string) *models.BlacklistEntry
	Remove(ctx context.Context, address string) bool
}

// WhitelistService defines the whitelist operations the API exposes.
type WhitelistService interface {
	AddAddress(ctx context.Context, address string, role types.Role, reason, addedBy string, provisional bool) bool
	CheckAddress(ctx context.Context, address string, role types.Role) *models.WhitelistEntry
	RemoveAddress(ctx context.Context, address string, role types.Role) bool
	AddPair(ctx context.Context, payment, provider, addedBy string, provisional bool) bool
	CheckPair(ctx context.Context, payment, provider string) *models.WhitelistPair
}

// EvaluateService defines the pair evaluation operation.
type EvaluateService interface {
	Evaluate(ctx context.Context, payment, provider string) *types.EvaluateResult
}

// SettingsService defines the runtime toggle operations.
type SettingsService interface {
	IsAssociationEnabled(ctx context.Context) bool
	SetAssociationEnabled(ctx context.Context, enabled bool) bool
}

// StatsService defines the merged stats snapshot.
type StatsService interface {
	Snapshot(ctx context.Context) (*types.ReputationStats, error)
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	blacklist  BlacklistService
	whitelist  WhitelistService
	evaluator  EvaluateService
	settings   SettingsService
	stats      StatsService
	logger     *logging.Logger
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	blacklist BlacklistService,
	whitelist WhitelistService,
	evaluator EvaluateService,
	settings SettingsService,
	stats StatsService,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Server{
		router:    mux.NewRouter(),
		blacklist: blacklist,
		whitelist: whitelist,
		evaluator: evaluator,
		settings:  settings,
		stats:     stats,
		logger:    logger,
		config:    config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// middleware order matters
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Blacklist endpoints
	api.HandleFunc("/blacklist", s.handleBlacklistAdd).Methods("POST")
	api.HandleFunc("/blacklist/{address}", s.handleBlacklistCheck).Methods("GET")
	api.HandleFunc("/blacklist/{address}", s.handleBlacklistRemove).Methods("DELETE")

	// Whitelist endpoints: single addresses and pairs
	api.HandleFunc("/whitelist/addresses", s.handleWhitelistAddAddress).Methods("POST")
	api.HandleFunc("/whitelist/addresses/{address}", s.handleWhitelistCheckAddress).Methods("GET")
	api.HandleFunc("/whitelist/addresses/{address}", s.handleWhitelistRemoveAddress).Methods("DELETE")
	api.HandleFunc("/whitelist/pairs", s.handleWhitelistAddPair).Methods("POST")
	api.HandleFunc("/whitelist/pairs/{payment}/{provider}", s.handleWhitelistCheckPair).Methods("GET")

	// Pair evaluation with propagation
	api.HandleFunc("/evaluate", s.handleEvaluate).Methods("POST")

	// Operational endpoints
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/settings/association", s.handleGetAssociationSetting).Methods("GET")
	api.HandleFunc("/settings/association", s.handlePutAssociationSetting).Methods("PUT")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tron-reputation",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
