package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}

	player, err := s.players.Create(req.Username, req.Email)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newPlayerResponse(player))
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.players.Get(chi.URLParam(r, "playerID"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerResponse(player))
}

func (s *Server) handleGetPlayerByUsername(w http.ResponseWriter, r *http.Request) {
	player, err := s.players.GetByUsername(chi.URLParam(r, "username"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerResponse(player))
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}

	player, err := s.players.Update(chi.URLParam(r, "playerID"), req.Username, req.Email)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerResponse(player))
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.players.Delete(chi.URLParam(r, "playerID")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON body")
		return
	}

	player, err := s.players.Deposit(chi.URLParam(r, "playerID"), req.Amount)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerResponse(player))
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	player, err := s.players.Get(chi.URLParam(r, "playerID"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PlayerStatsResponse{
		PlayerID:         player.ID,
		GamesPlayed:      player.GamesPlayed,
		GamesWon:         player.GamesWon,
		GamesPlayedToday: player.GamesPlayedToday,
		GamesWonToday:    player.GamesWonToday,
		WinRate:          player.WinRate(),
		TotalWinnings:    player.TotalWinnings,
	})
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.List()
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayersListResponse(players))
}

func (s *Server) handleTopPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.Top(intQuery(r, "limit", 10))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayersListResponse(players))
}

func (s *Server) handleWealthyPlayers(w http.ResponseWriter, r *http.Request) {
	threshold := decimal.NewFromInt(100)
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		var err error
		if threshold, err = decimal.NewFromString(raw); err != nil {
			s.errorHandler.HandleValidationError(w, r, "threshold", "must be a decimal number")
			return
		}
	}

	players, err := s.players.Wealthy(threshold)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayersListResponse(players))
}

func (s *Server) handleResetDailyStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.players.ResetDailyStats()
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ResetDailyStatsResponse{PlayersReset: n})
}
