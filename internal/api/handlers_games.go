package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cardtable/blackjack-go/internal/blackjack"
	"github.com/cardtable/blackjack-go/internal/store"
)

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}
	if req.PlayerID == "" {
		s.errorHandler.HandleValidationError(w, r, "player_id", "player_id is required")
		return
	}

	game, err := s.games.Start(req.PlayerID, req.Bet)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newGameResponse(game))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.games.Get(chi.URLParam(r, "gameID"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newGameResponse(game))
}

// handleAction runs one game mutation and returns the new snapshot.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, fn func(gameID string) (*blackjack.Game, error)) {
	game, err := fn(chi.URLParam(r, "gameID"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newGameResponse(game))
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.games.Hit)
}

func (s *Server) handleStand(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.games.Stand)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.games.Split)
}

func (s *Server) handleInsurance(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.games.Insurance)
}

func (s *Server) handlePlayerGames(w http.ResponseWriter, r *http.Request) {
	query := store.GamesQuery{
		Status:  r.URL.Query().Get("status"),
		Page:    intQuery(r, "page", 1),
		PerPage: intQuery(r, "perPage", 20),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, "from", "must be RFC3339")
			return
		}
		query.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, "to", "must be RFC3339")
			return
		}
		query.To = t
	}

	list, err := s.games.ListPlayerGames(chi.URLParam(r, "playerID"), query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	resp := GamesListResponse{
		Games:      make([]GameSummary, 0, len(list.Games)),
		TotalCount: list.TotalCount,
		Page:       list.Page,
		PerPage:    list.PerPage,
		TotalPages: list.TotalPages,
	}
	for _, g := range list.Games {
		resp.Games = append(resp.Games, newGameSummary(g))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHighStakes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		s.errorHandler.HandleValidationError(w, r, "threshold", "threshold is required")
		return
	}
	threshold, err := decimal.NewFromString(raw)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, "threshold", "must be a decimal number")
		return
	}

	games, err := s.games.HighStakes(threshold, intQuery(r, "limit", 10))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	summaries := make([]GameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, newGameSummary(g))
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"games": summaries})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	hours := intQuery(r, "older_than_hours", 24)
	if hours <= 0 {
		s.errorHandler.HandleValidationError(w, r, "older_than_hours", "must be positive")
		return
	}

	removed, err := s.games.Cleanup(time.Duration(hours) * time.Hour)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CleanupResponse{Removed: removed})
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
