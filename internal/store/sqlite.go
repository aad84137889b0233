package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive
func (s *SQLiteDB) Ping() error {
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			balance TEXT NOT NULL DEFAULT '0',
			games_played INTEGER NOT NULL DEFAULT 0,
			games_won INTEGER NOT NULL DEFAULT 0,
			games_played_today INTEGER NOT NULL DEFAULT 0,
			games_won_today INTEGER NOT NULL DEFAULT 0,
			total_winnings TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			bet TEXT NOT NULL,
			insurance_bet TEXT,
			status TEXT NOT NULL,
			results TEXT NOT NULL DEFAULT '[]',
			payout TEXT NOT NULL DEFAULT '0',
			state_json TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			FOREIGN KEY (player_id) REFERENCES players(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_player_id ON games(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_games_status ON games(player_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_games_completed_at ON games(completed_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

const playerColumns = `id, username, email, balance, games_played, games_won,
	games_played_today, games_won_today, total_winnings, created_at, updated_at`

// CreatePlayer inserts a new player row
func (s *SQLiteDB) CreatePlayer(p *Player) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `INSERT INTO players (
		id, username, email, balance, games_played, games_won,
		games_played_today, games_won_today, total_winnings,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		p.ID, p.Username, p.Email, p.Balance.String(),
		p.GamesPlayed, p.GamesWon, p.GamesPlayedToday, p.GamesWonToday,
		p.TotalWinnings.String(), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetPlayer retrieves a player by ID
func (s *SQLiteDB) GetPlayer(id string) (*Player, error) {
	return s.getPlayer("SELECT "+playerColumns+" FROM players WHERE id = ?", id)
}

// GetPlayerByUsername retrieves a player by username
func (s *SQLiteDB) GetPlayerByUsername(username string) (*Player, error) {
	return s.getPlayer("SELECT "+playerColumns+" FROM players WHERE username = ?", username)
}

// ListPlayers retrieves all player rows
func (s *SQLiteDB) ListPlayers() ([]Player, error) {
	return s.queryPlayers("SELECT " + playerColumns + " FROM players ORDER BY username")
}

// TopPlayers returns the win-rate leaderboard. Only players with at
// least ten games qualify, so a lucky first hand does not top the list.
func (s *SQLiteDB) TopPlayers(limit int) ([]Player, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + playerColumns + ` FROM players
		WHERE games_played >= 10
		ORDER BY CAST(games_won AS REAL) / games_played DESC, games_played DESC
		LIMIT ?`
	return s.queryPlayers(query, limit)
}

// WealthyPlayers returns players whose balance is at or above the
// threshold, richest first
func (s *SQLiteDB) WealthyPlayers(threshold decimal.Decimal) ([]Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players
		WHERE CAST(balance AS REAL) >= ?
		ORDER BY CAST(balance AS REAL) DESC`
	f, _ := threshold.Float64()
	return s.queryPlayers(query, f)
}

func (s *SQLiteDB) queryPlayers(query string, args ...any) ([]Player, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (s *SQLiteDB) getPlayer(query string, arg any) (*Player, error) {
	row := s.db.QueryRow(query, arg)
	p, err := scanPlayer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func scanPlayer(scan func(...any) error) (*Player, error) {
	var p Player
	var balance, winnings string

	err := scan(
		&p.ID, &p.Username, &p.Email, &balance,
		&p.GamesPlayed, &p.GamesWon, &p.GamesPlayedToday, &p.GamesWonToday,
		&winnings, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	if p.TotalWinnings, err = decimal.NewFromString(winnings); err != nil {
		return nil, fmt.Errorf("invalid total_winnings %q: %w", winnings, err)
	}

	return &p, nil
}

// UpdatePlayer updates a player's profile fields
func (s *SQLiteDB) UpdatePlayer(p *Player) error {
	query := `UPDATE players SET username = ?, email = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.Exec(query, p.Username, p.Email, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeletePlayer removes a player row
func (s *SQLiteDB) DeletePlayer(id string) error {
	res, err := s.db.Exec("DELETE FROM players WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AdjustBalance applies a signed delta to a player's balance inside a
// transaction. A delta that would take the balance below zero fails
// with ErrInsufficientFunds and changes nothing.
func (s *SQLiteDB) AdjustBalance(playerID string, delta decimal.Decimal) (*Player, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT "+playerColumns+" FROM players WHERE id = ?", playerID)
	p, err := scanPlayer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	next := p.Balance.Add(delta)
	if next.IsNegative() {
		return nil, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	if _, err := tx.Exec("UPDATE players SET balance = ?, updated_at = ? WHERE id = ?",
		next.String(), now, playerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p.Balance = next
	p.UpdatedAt = now
	return p, nil
}

// RecordGameResult bumps a player's statistics after a completed game
func (s *SQLiteDB) RecordGameResult(playerID string, won bool, winnings decimal.Decimal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT "+playerColumns+" FROM players WHERE id = ?", playerID)
	p, err := scanPlayer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	p.GamesPlayed++
	p.GamesPlayedToday++
	if won {
		p.GamesWon++
		p.GamesWonToday++
		p.TotalWinnings = p.TotalWinnings.Add(winnings)
	}

	if _, err := tx.Exec(
		"UPDATE players SET games_played = ?, games_won = ?, games_played_today = ?, games_won_today = ?, total_winnings = ?, updated_at = ? WHERE id = ?",
		p.GamesPlayed, p.GamesWon, p.GamesPlayedToday, p.GamesWonToday,
		p.TotalWinnings.String(), time.Now().UTC(), playerID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ResetDailyStats zeroes every player's daily counters and returns how
// many rows were touched
func (s *SQLiteDB) ResetDailyStats() (int64, error) {
	res, err := s.db.Exec(
		"UPDATE players SET games_played_today = 0, games_won_today = 0, updated_at = ?",
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveGame inserts a new game row
func (s *SQLiteDB) SaveGame(g *Game) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}

	query := `INSERT INTO games (
		id, player_id, bet, insurance_bet, status, results, payout, state_json,
		created_at, completed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		g.ID, g.PlayerID, g.Bet.String(), nullDecimalString(g.InsuranceBet),
		g.Status, g.Results, g.Payout.String(), g.StateJSON,
		g.CreatedAt, g.CompletedAt,
	)
	return err
}

// UpdateGame updates an existing game row
func (s *SQLiteDB) UpdateGame(g *Game) error {
	query := `UPDATE games SET
		bet = ?, insurance_bet = ?, status = ?, results = ?, payout = ?,
		state_json = ?, completed_at = ?
		WHERE id = ?`

	res, err := s.db.Exec(query,
		g.Bet.String(), nullDecimalString(g.InsuranceBet),
		g.Status, g.Results, g.Payout.String(), g.StateJSON,
		g.CompletedAt, g.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetGame retrieves a game by ID
func (s *SQLiteDB) GetGame(id string) (*Game, error) {
	query := `SELECT id, player_id, bet, insurance_bet, status, results, payout,
		state_json, created_at, completed_at
		FROM games WHERE id = ?`

	row := s.db.QueryRow(query, id)
	g, err := scanGame(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func scanGame(scan func(...any) error) (*Game, error) {
	var g Game
	var bet, payout string
	var insurance sql.NullString

	err := scan(
		&g.ID, &g.PlayerID, &bet, &insurance, &g.Status, &g.Results, &payout,
		&g.StateJSON, &g.CreatedAt, &g.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if g.Bet, err = decimal.NewFromString(bet); err != nil {
		return nil, fmt.Errorf("invalid bet %q: %w", bet, err)
	}
	if g.Payout, err = decimal.NewFromString(payout); err != nil {
		return nil, fmt.Errorf("invalid payout %q: %w", payout, err)
	}
	if insurance.Valid {
		d, err := decimal.NewFromString(insurance.String)
		if err != nil {
			return nil, fmt.Errorf("invalid insurance_bet %q: %w", insurance.String, err)
		}
		g.InsuranceBet = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	return &g, nil
}

// ListGames retrieves games with pagination and filtering
func (s *SQLiteDB) ListGames(query GamesQuery) (*GamesList, error) {
	// Build WHERE clause for filtering
	whereClause := "WHERE 1=1"
	args := []any{}

	if query.PlayerID != "" {
		whereClause += " AND player_id = ?"
		args = append(args, query.PlayerID)
	}
	if query.Status != "" {
		whereClause += " AND status = ?"
		args = append(args, query.Status)
	}
	// The date range bounds completion time, so it matches completed
	// games only; in-progress rows have no completed_at.
	if !query.From.IsZero() {
		whereClause += " AND completed_at >= ?"
		args = append(args, query.From)
	}
	if !query.To.IsZero() {
		whereClause += " AND completed_at <= ?"
		args = append(args, query.To)
	}

	// Get total count
	var totalCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM games "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	// Calculate pagination
	if query.PerPage <= 0 {
		query.PerPage = 50 // Default page size
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT id, player_id, bet, insurance_bet, status, results, payout,
		state_json, created_at, completed_at
		FROM games ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return &GamesList{
		Games:      games,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// ListHighStakeGames returns games with bets at or above the threshold,
// largest bets first
func (s *SQLiteDB) ListHighStakeGames(threshold decimal.Decimal, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, player_id, bet, insurance_bet, status, results, payout,
		state_json, created_at, completed_at
		FROM games WHERE CAST(bet AS REAL) >= ?
		ORDER BY CAST(bet AS REAL) DESC, created_at DESC
		LIMIT ?`

	f, _ := threshold.Float64()
	rows, err := s.db.Query(query, f, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query high stake games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// DeleteCompletedBefore removes completed games that finished before
// the cutoff and returns how many were deleted
func (s *SQLiteDB) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		"DELETE FROM games WHERE status = ? AND completed_at IS NOT NULL AND completed_at < ?",
		"COMPLETED", cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullDecimalString(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
