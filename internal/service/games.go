package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"github.com/cardtable/blackjack-go/internal/blackjack"
	"github.com/cardtable/blackjack-go/internal/store"
)

// GameService orchestrates blackjack games: it charges and credits
// player balances around engine actions and persists the engine state
// between requests. A per-game lock serializes mutations so each action
// sees the state the previous one left behind.
type GameService struct {
	db     store.DB
	locks  *keyedMutex
	clock  quartz.Clock
	logger *log.Logger
	rules  blackjack.Rules

	// newSource supplies the shoe randomness; tests inject seeded
	// sources here.
	newSource func() rand.Source
}

// NewGameService creates a game service using crypto-agnostic
// time-seeded shuffles.
func NewGameService(db store.DB, clock quartz.Clock, logger *log.Logger, rules blackjack.Rules) *GameService {
	return &GameService{
		db:     db,
		locks:  newKeyedMutex(),
		clock:  clock,
		logger: logger.WithPrefix("games"),
		rules:  rules,
		newSource: func() rand.Source {
			return rand.NewSource(clock.Now().UnixNano())
		},
	}
}

// Start deals a new game for the player, debiting the bet up front. A
// dealt blackjack completes immediately and the payout is credited
// before the game is returned.
func (s *GameService) Start(playerID string, bet decimal.Decimal) (*blackjack.Game, error) {
	if _, err := s.db.GetPlayer(playerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	game, err := blackjack.NewGame(playerID, bet, s.rules, s.newSource())
	if err != nil {
		return nil, err
	}

	if _, err := s.db.AdjustBalance(playerID, bet.Neg()); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	row, err := s.toRow(game)
	if err != nil {
		return nil, err
	}
	if err := s.db.SaveGame(row); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}

	s.logger.Info("game started", "game_id", game.ID, "player_id", playerID, "bet", bet)

	if game.Status == blackjack.StatusCompleted {
		if err := s.settle(game); err != nil {
			return nil, err
		}
	}
	return game, nil
}

// Hit draws a card into the player's current hand.
func (s *GameService) Hit(gameID string) (*blackjack.Game, error) {
	return s.apply(gameID, func(g *blackjack.Game) error {
		return g.Hit()
	})
}

// Stand finishes the current hand.
func (s *GameService) Stand(gameID string) (*blackjack.Game, error) {
	return s.apply(gameID, func(g *blackjack.Game) error {
		return g.Stand()
	})
}

// Split separates an eligible pair into two hands, debiting a duplicate
// bet from the player first. Any failure after the debit, including a
// failure to persist the mutated game, refunds it.
func (s *GameService) Split(gameID string) (*blackjack.Game, error) {
	return s.applyDebited(gameID, "split",
		func(g *blackjack.Game) bool { return g.CanSplit() },
		func(g *blackjack.Game) decimal.Decimal { return g.Bet },
		(*blackjack.Game).Split)
}

// Insurance places the insurance side bet, debiting half the original
// bet from the player first. Any failure after the debit refunds it.
func (s *GameService) Insurance(gameID string) (*blackjack.Game, error) {
	return s.applyDebited(gameID, "insurance",
		func(g *blackjack.Game) bool { return g.CanTakeInsurance() },
		func(g *blackjack.Game) decimal.Decimal {
			return g.Bet.DivRound(decimal.NewFromInt(2), 2)
		},
		(*blackjack.Game).Insurance)
}

// applyDebited runs a mutation that stakes additional funds: the stake
// is debited once the eligibility check passes, and refunded whenever
// anything after the debit fails, engine rejection and persistence
// failure alike.
func (s *GameService) applyDebited(gameID, action string, eligible func(*blackjack.Game) bool, stakeOf func(*blackjack.Game) decimal.Decimal, fn func(*blackjack.Game) error) (*blackjack.Game, error) {
	var debited decimal.Decimal
	var playerID string

	game, err := s.apply(gameID, func(g *blackjack.Game) error {
		if !eligible(g) {
			return blackjack.ErrNotEligible
		}
		stake := stakeOf(g)
		if _, err := s.db.AdjustBalance(g.PlayerID, stake.Neg()); err != nil {
			if errors.Is(err, store.ErrInsufficientFunds) {
				return ErrInsufficientFunds
			}
			return err
		}
		debited, playerID = stake, g.PlayerID
		return fn(g)
	})

	if err != nil && debited.IsPositive() {
		if _, refundErr := s.db.AdjustBalance(playerID, debited); refundErr != nil {
			s.logger.Error("refund failed",
				"action", action, "game_id", gameID,
				"player_id", playerID, "amount", debited, "error", refundErr)
		}
	}
	return game, err
}

// Get loads a game snapshot.
func (s *GameService) Get(gameID string) (*blackjack.Game, error) {
	row, err := s.db.GetGame(gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return decodeState(row)
}

// ListPlayerGames returns the player's games, newest first.
func (s *GameService) ListPlayerGames(playerID string, query store.GamesQuery) (*store.GamesList, error) {
	if _, err := s.db.GetPlayer(playerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	query.PlayerID = playerID
	return s.db.ListGames(query)
}

// HighStakes returns the largest games at or above the bet threshold.
func (s *GameService) HighStakes(threshold decimal.Decimal, limit int) ([]store.Game, error) {
	if threshold.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: threshold must be positive", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}
	return s.db.ListHighStakeGames(threshold, limit)
}

// Cleanup deletes completed games older than the retention window and
// returns how many were removed.
func (s *GameService) Cleanup(retention time.Duration) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-retention)
	n, err := s.db.DeleteCompletedBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("cleaned up completed games", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

// RunCleanupLoop deletes expired games on the given interval until the
// context is cancelled.
func (s *GameService) RunCleanupLoop(ctx context.Context, interval, retention time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Cleanup(retention); err != nil {
				s.logger.Error("cleanup failed", "error", err)
			}
		}
	}
}

// apply runs one mutation against a game under its lock: load, decode,
// act, persist, and settle the balance if the action completed the
// game. Engine rejections leave both the row and the balance untouched.
func (s *GameService) apply(gameID string, fn func(*blackjack.Game) error) (*blackjack.Game, error) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	row, err := s.db.GetGame(gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	game, err := decodeState(row)
	if err != nil {
		return nil, err
	}

	wasCompleted := game.Status == blackjack.StatusCompleted
	if err := fn(game); err != nil {
		return nil, err
	}

	updated, err := s.toRow(game)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = row.CreatedAt
	if err := s.db.UpdateGame(updated); err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}

	if !wasCompleted && game.Status == blackjack.StatusCompleted {
		if err := s.settle(game); err != nil {
			return nil, err
		}
	}
	return game, nil
}

// settle credits the completed game's payout and records the result in
// the player's statistics. Winnings are net of everything staked,
// insurance included.
func (s *GameService) settle(g *blackjack.Game) error {
	if g.Payout.IsPositive() {
		if _, err := s.db.AdjustBalance(g.PlayerID, g.Payout); err != nil {
			return fmt.Errorf("credit payout: %w", err)
		}
	}

	staked := g.InsuranceBet
	for _, hand := range g.Hands {
		staked = staked.Add(hand.Wager)
	}
	net := g.Payout.Sub(staked)
	if err := s.db.RecordGameResult(g.PlayerID, g.Won(), net); err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	s.logger.Info("game settled",
		"game_id", g.ID, "player_id", g.PlayerID,
		"payout", g.Payout, "net", net, "won", g.Won())
	return nil
}

// toRow snapshots the engine state into a persistable row.
func (s *GameService) toRow(g *blackjack.Game) (*store.Game, error) {
	state, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode game state: %w", err)
	}

	results := make([]string, 0, len(g.Outcomes))
	for _, o := range g.Outcomes {
		results = append(results, string(o.Result))
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	now := s.clock.Now().UTC()
	row := &store.Game{
		ID:        g.ID,
		PlayerID:  g.PlayerID,
		Bet:       g.Bet,
		Status:    string(g.Status),
		Results:   string(resultsJSON),
		Payout:    g.Payout,
		StateJSON: string(state),
		CreatedAt: now,
	}
	if g.InsuranceTaken {
		row.InsuranceBet = decimal.NewNullDecimal(g.InsuranceBet)
	}
	if g.Status == blackjack.StatusCompleted {
		row.CompletedAt = sql.NullTime{Time: now, Valid: true}
	}
	return row, nil
}

func decodeState(row *store.Game) (*blackjack.Game, error) {
	var game blackjack.Game
	if err := json.Unmarshal([]byte(row.StateJSON), &game); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return &game, nil
}
