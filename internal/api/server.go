package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cardtable/blackjack-go/internal/service"
	"github.com/cardtable/blackjack-go/internal/store"
)

const timeFormat = time.RFC3339

// Server handles HTTP requests
type Server struct {
	db           store.DB
	players      *service.PlayerService
	games        *service.GameService
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time
}

// NewServer creates a new API server
func NewServer(db store.DB, players *service.PlayerService, games *service.GameService, logger *log.Logger) *Server {
	return &Server{
		db:           db,
		players:      players,
		games:        games,
		errorHandler: NewErrorHandler(logger),
		logger:       logger.WithPrefix("api"),
		startTime:    time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/version", s.handleVersion)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/players", func(r chi.Router) {
			r.Get("/", s.handleListPlayers)
			r.Post("/", s.handleCreatePlayer)
			r.Get("/top", s.handleTopPlayers)
			r.Get("/wealthy", s.handleWealthyPlayers)
			r.Post("/reset-daily-stats", s.handleResetDailyStats)
			r.Get("/username/{username}", s.handleGetPlayerByUsername)
			r.Route("/{playerID}", func(r chi.Router) {
				r.Get("/", s.handleGetPlayer)
				r.Put("/", s.handleUpdatePlayer)
				r.Delete("/", s.handleDeletePlayer)
				r.Post("/deposit", s.handleDeposit)
				r.Get("/stats", s.handlePlayerStats)
				r.Get("/games", s.handlePlayerGames)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/", s.handleStartGame)
			r.Get("/high-stakes", s.handleHighStakes)
			r.Delete("/cleanup", s.handleCleanup)
			r.Route("/{gameID}", func(r chi.Router) {
				r.Get("/", s.handleGetGame)
				r.Post("/hit", s.handleHit)
				r.Post("/stand", s.handleStand)
				r.Post("/split", s.handleSplit)
				r.Post("/insurance", s.handleInsurance)
			})
		})
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}
