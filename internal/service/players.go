package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"github.com/cardtable/blackjack-go/internal/store"
)

// PlayerService manages player accounts and balances.
type PlayerService struct {
	db              store.DB
	clock           quartz.Clock
	logger          *log.Logger
	startingBalance decimal.Decimal
}

// NewPlayerService creates a player service. New accounts open with the
// given starting balance.
func NewPlayerService(db store.DB, clock quartz.Clock, logger *log.Logger, startingBalance decimal.Decimal) *PlayerService {
	return &PlayerService{
		db:              db,
		clock:           clock,
		logger:          logger.WithPrefix("players"),
		startingBalance: startingBalance,
	}
}

// Create registers a new player account.
func (s *PlayerService) Create(username, email string) (*store.Player, error) {
	if err := validateProfile(username, email); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	player := &store.Player{
		Username:      username,
		Email:         email,
		Balance:       s.startingBalance,
		TotalWinnings: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.CreatePlayer(player); err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}

	s.logger.Info("player created", "player_id", player.ID, "username", username)
	return player, nil
}

// Get returns a player by ID.
func (s *PlayerService) Get(id string) (*store.Player, error) {
	player, err := s.db.GetPlayer(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	return player, err
}

// GetByUsername returns a player by username.
func (s *PlayerService) GetByUsername(username string) (*store.Player, error) {
	player, err := s.db.GetPlayerByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	return player, err
}

// Update changes a player's profile fields.
func (s *PlayerService) Update(id, username, email string) (*store.Player, error) {
	if err := validateProfile(username, email); err != nil {
		return nil, err
	}

	player, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	player.Username = username
	player.Email = email
	player.UpdatedAt = s.clock.Now().UTC()
	if err := s.db.UpdatePlayer(player); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("update player: %w", err)
	}
	return player, nil
}

// Delete removes a player account.
func (s *PlayerService) Delete(id string) error {
	err := s.db.DeletePlayer(id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPlayerNotFound
	}
	if err == nil {
		s.logger.Info("player deleted", "player_id", id)
	}
	return err
}

// List returns every player account.
func (s *PlayerService) List() ([]store.Player, error) {
	return s.db.ListPlayers()
}

// Top returns the win-rate leaderboard. Players need at least ten
// completed games to qualify.
func (s *PlayerService) Top(limit int) ([]store.Player, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.db.TopPlayers(limit)
}

// Wealthy returns players whose balance is at or above the threshold.
func (s *PlayerService) Wealthy(threshold decimal.Decimal) ([]store.Player, error) {
	if threshold.IsNegative() {
		return nil, fmt.Errorf("%w: threshold must not be negative", ErrInvalidInput)
	}
	return s.db.WealthyPlayers(threshold)
}

// ResetDailyStats zeroes the daily counters for all players and
// returns how many accounts were reset.
func (s *PlayerService) ResetDailyStats() (int64, error) {
	n, err := s.db.ResetDailyStats()
	if err != nil {
		return 0, err
	}
	s.logger.Info("daily statistics reset", "players", n)
	return n, nil
}

// Deposit credits a positive amount to the player's balance.
func (s *PlayerService) Deposit(id string, amount decimal.Decimal) (*store.Player, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: deposit must be positive", ErrInvalidInput)
	}

	player, err := s.db.AdjustBalance(id, amount)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit", "player_id", id, "amount", amount, "balance", player.Balance)
	return player, nil
}

func validateProfile(username, email string) error {
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("%w: username must be between 3 and 50 characters", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email must be valid", ErrInvalidInput)
	}
	return nil
}
