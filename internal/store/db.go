package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a player or game does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientFunds is returned when a balance adjustment would take
// a player below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// DB represents the database interface
type DB interface {
	Close() error
	Migrate() error
	Ping() error

	CreatePlayer(p *Player) error
	GetPlayer(id string) (*Player, error)
	GetPlayerByUsername(username string) (*Player, error)
	ListPlayers() ([]Player, error)
	TopPlayers(limit int) ([]Player, error)
	WealthyPlayers(threshold decimal.Decimal) ([]Player, error)
	UpdatePlayer(p *Player) error
	DeletePlayer(id string) error
	AdjustBalance(playerID string, delta decimal.Decimal) (*Player, error)
	RecordGameResult(playerID string, won bool, winnings decimal.Decimal) error
	ResetDailyStats() (int64, error)

	SaveGame(g *Game) error
	UpdateGame(g *Game) error
	GetGame(id string) (*Game, error)
	ListGames(query GamesQuery) (*GamesList, error)
	ListHighStakeGames(threshold decimal.Decimal, limit int) ([]Game, error)
	DeleteCompletedBefore(cutoff time.Time) (int64, error)
}

// Player represents a player account row. The *Today counters are
// rolling daily statistics, zeroed by ResetDailyStats.
type Player struct {
	ID               string          `json:"id" db:"id"`
	Username         string          `json:"username" db:"username"`
	Email            string          `json:"email" db:"email"`
	Balance          decimal.Decimal `json:"balance" db:"balance"`
	GamesPlayed      int             `json:"games_played" db:"games_played"`
	GamesWon         int             `json:"games_won" db:"games_won"`
	GamesPlayedToday int             `json:"games_played_today" db:"games_played_today"`
	GamesWonToday    int             `json:"games_won_today" db:"games_won_today"`
	TotalWinnings    decimal.Decimal `json:"total_winnings" db:"total_winnings"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// WinRate returns games won over games played.
func (p *Player) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.GamesWon) / float64(p.GamesPlayed)
}

// Game represents a persisted game row. StateJSON carries the full
// engine snapshot (shoe included) so active games survive a restart;
// the remaining columns are denormalized for querying.
type Game struct {
	ID           string              `json:"id" db:"id"`
	PlayerID     string              `json:"player_id" db:"player_id"`
	Bet          decimal.Decimal     `json:"bet" db:"bet"`
	InsuranceBet decimal.NullDecimal `json:"insurance_bet" db:"insurance_bet"`
	Status       string              `json:"status" db:"status"`
	Results      string              `json:"results" db:"results"` // JSON array of result codes
	Payout       decimal.Decimal     `json:"payout" db:"payout"`
	StateJSON    string              `json:"-" db:"state_json"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	CompletedAt  sql.NullTime        `json:"completed_at" db:"completed_at"`
}

// GamesQuery represents query parameters for listing games. From and
// To bound the completion time, so a date range matches completed
// games only.
type GamesQuery struct {
	PlayerID string    `json:"player_id,omitempty"`
	Status   string    `json:"status,omitempty"`
	From     time.Time `json:"from,omitempty"`
	To       time.Time `json:"to,omitempty"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
}

// GamesList represents a paginated games response
type GamesList struct {
	Games      []Game `json:"games"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PerPage    int    `json:"perPage"`
	TotalPages int    `json:"totalPages"`
}
