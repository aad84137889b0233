package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func testPlayer(t *testing.T, db *SQLiteDB, username string) *Player {
	t.Helper()
	now := time.Now().UTC()
	p := &Player{
		Username:      username,
		Email:         username + "@example.com",
		Balance:       decimal.NewFromInt(100),
		TotalWinnings: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, db.CreatePlayer(p))
	return p
}

func testGame(t *testing.T, db *SQLiteDB, playerID string, bet int64) *Game {
	t.Helper()
	g := &Game{
		PlayerID:  playerID,
		Bet:       decimal.NewFromInt(bet),
		Status:    "IN_PROGRESS",
		Results:   "[]",
		Payout:    decimal.Zero,
		StateJSON: `{"id":"x"}`,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.SaveGame(g))
	return g
}

func TestPlayerCRUD(t *testing.T) {
	db := testDB(t)

	p := testPlayer(t, db, "alice")
	require.NotEmpty(t, p.ID)

	got, err := db.GetPlayer(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

	byName, err := db.GetPlayerByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	got.Username = "alice2"
	got.Email = "alice2@example.com"
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, db.UpdatePlayer(got))

	updated, err := db.GetPlayer(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	require.NoError(t, db.DeletePlayer(p.ID))
	_, err = db.GetPlayer(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetPlayer("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeletePlayer("missing"), ErrNotFound)
	_, err = db.AdjustBalance("missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustBalance(t *testing.T) {
	db := testDB(t)
	p := testPlayer(t, db, "bob")

	credited, err := db.AdjustBalance(p.ID, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, credited.Balance.Equal(decimal.NewFromInt(150)))

	debited, err := db.AdjustBalance(p.ID, decimal.NewFromInt(-150))
	require.NoError(t, err)
	assert.True(t, debited.Balance.IsZero())

	_, err = db.AdjustBalance(p.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	unchanged, err := db.GetPlayer(p.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.Balance.IsZero(), "rejected debit must not change the balance")
}

func TestRecordGameResult(t *testing.T) {
	db := testDB(t)
	p := testPlayer(t, db, "carol")

	require.NoError(t, db.RecordGameResult(p.ID, true, decimal.NewFromInt(25)))
	require.NoError(t, db.RecordGameResult(p.ID, false, decimal.Zero))

	got, err := db.GetPlayer(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.GamesPlayed)
	assert.Equal(t, 1, got.GamesWon)
	assert.Equal(t, 2, got.GamesPlayedToday, "daily counter tracks every game")
	assert.Equal(t, 1, got.GamesWonToday)
	assert.True(t, got.TotalWinnings.Equal(decimal.NewFromInt(25)))
	assert.InDelta(t, 0.5, got.WinRate(), 1e-9)
}

// statPlayer creates a player with preset statistics for the listing
// tests.
func statPlayer(t *testing.T, db *SQLiteDB, username string, balance int64, played, won int) *Player {
	t.Helper()
	now := time.Now().UTC()
	p := &Player{
		Username:         username,
		Email:            username + "@example.com",
		Balance:          decimal.NewFromInt(balance),
		GamesPlayed:      played,
		GamesWon:         won,
		GamesPlayedToday: played,
		GamesWonToday:    won,
		TotalWinnings:    decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, db.CreatePlayer(p))
	return p
}

func TestListPlayers(t *testing.T) {
	db := testDB(t)
	testPlayer(t, db, "zoe")
	testPlayer(t, db, "alice")

	players, err := db.ListPlayers()
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].Username, "sorted by username")
	assert.Equal(t, "zoe", players[1].Username)
}

func TestTopPlayers(t *testing.T) {
	db := testDB(t)
	// Win rates: grinder 50%, shark 80%, unlucky 20%. The rookie is
	// perfect but has too few games to qualify.
	statPlayer(t, db, "grinder", 100, 20, 10)
	statPlayer(t, db, "shark", 100, 10, 8)
	statPlayer(t, db, "rookie", 100, 2, 2)
	statPlayer(t, db, "unlucky", 100, 15, 3)

	top, err := db.TopPlayers(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "shark", top[0].Username, "highest win rate first")
	assert.Equal(t, "grinder", top[1].Username)

	all, err := db.TopPlayers(10)
	require.NoError(t, err)
	require.Len(t, all, 3, "under ten games does not qualify")
}

func TestWealthyPlayers(t *testing.T) {
	db := testDB(t)
	statPlayer(t, db, "broke", 50, 0, 0)
	statPlayer(t, db, "steady", 100, 0, 0)
	statPlayer(t, db, "whale", 5000, 0, 0)

	rich, err := db.WealthyPlayers(decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Len(t, rich, 2, "threshold is inclusive")
	assert.Equal(t, "whale", rich[0].Username, "richest first")
	assert.Equal(t, "steady", rich[1].Username)
}

func TestResetDailyStats(t *testing.T) {
	db := testDB(t)
	a := statPlayer(t, db, "alice", 100, 5, 3)
	b := statPlayer(t, db, "bob", 100, 2, 0)

	n, err := db.ResetDailyStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{a.ID, b.ID} {
		got, err := db.GetPlayer(id)
		require.NoError(t, err)
		assert.Zero(t, got.GamesPlayedToday)
		assert.Zero(t, got.GamesWonToday)
	}

	got, err := db.GetPlayer(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.GamesPlayed, "lifetime counters survive the reset")
	assert.Equal(t, 3, got.GamesWon)
}

func TestGameRoundTrip(t *testing.T) {
	db := testDB(t)
	p := testPlayer(t, db, "dave")
	g := testGame(t, db, p.ID, 10)

	got, err := db.GetGame(g.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.PlayerID)
	assert.Equal(t, "IN_PROGRESS", got.Status)
	assert.True(t, got.Bet.Equal(decimal.NewFromInt(10)))
	assert.False(t, got.InsuranceBet.Valid)
	assert.False(t, got.CompletedAt.Valid)

	got.Status = "COMPLETED"
	got.Results = `["PLAYER_WIN"]`
	got.Payout = decimal.NewFromInt(20)
	got.InsuranceBet = decimal.NullDecimal{Decimal: decimal.NewFromInt(5), Valid: true}
	got.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	got.StateJSON = `{"id":"x","status":"COMPLETED"}`
	require.NoError(t, db.UpdateGame(got))

	final, err := db.GetGame(g.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", final.Status)
	assert.Equal(t, `["PLAYER_WIN"]`, final.Results)
	assert.True(t, final.Payout.Equal(decimal.NewFromInt(20)))
	assert.True(t, final.InsuranceBet.Valid)
	assert.True(t, final.InsuranceBet.Decimal.Equal(decimal.NewFromInt(5)))
	assert.True(t, final.CompletedAt.Valid)

	_, err = db.GetGame("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGamesFiltersAndPaginates(t *testing.T) {
	db := testDB(t)
	alice := testPlayer(t, db, "alice")
	bob := testPlayer(t, db, "bob")

	for i := 0; i < 3; i++ {
		testGame(t, db, alice.ID, 10)
	}
	done := testGame(t, db, alice.ID, 10)
	done.Status = "COMPLETED"
	done.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	require.NoError(t, db.UpdateGame(done))
	testGame(t, db, bob.ID, 10)

	all, err := db.ListGames(GamesQuery{PlayerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalCount)

	active, err := db.ListGames(GamesQuery{PlayerID: alice.ID, Status: "IN_PROGRESS"})
	require.NoError(t, err)
	assert.Equal(t, 3, active.TotalCount)

	paged, err := db.ListGames(GamesQuery{PlayerID: alice.ID, Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, paged.TotalCount)
	assert.Equal(t, 2, paged.TotalPages)
	assert.Len(t, paged.Games, 1)

	// The date range bounds completion time, so in-progress games never
	// match it.
	ranged, err := db.ListGames(GamesQuery{
		PlayerID: alice.ID,
		From:     time.Now().Add(-time.Hour),
		To:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, 1, ranged.TotalCount)
	assert.Equal(t, done.ID, ranged.Games[0].ID)

	none, err := db.ListGames(GamesQuery{PlayerID: alice.ID, From: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 0, none.TotalCount)
}

func TestListHighStakeGames(t *testing.T) {
	db := testDB(t)
	p := testPlayer(t, db, "whale")

	testGame(t, db, p.ID, 10)
	testGame(t, db, p.ID, 100)
	testGame(t, db, p.ID, 500)

	high, err := db.ListHighStakeGames(decimal.NewFromInt(100), 10)
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.True(t, high[0].Bet.Equal(decimal.NewFromInt(500)), "largest bet first")
}

func TestDeleteCompletedBefore(t *testing.T) {
	db := testDB(t)
	p := testPlayer(t, db, "eve")

	old := testGame(t, db, p.ID, 10)
	old.Status = "COMPLETED"
	old.CompletedAt = sql.NullTime{Time: time.Now().UTC().Add(-48 * time.Hour), Valid: true}
	require.NoError(t, db.UpdateGame(old))

	recent := testGame(t, db, p.ID, 10)
	recent.Status = "COMPLETED"
	recent.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	require.NoError(t, db.UpdateGame(recent))

	active := testGame(t, db, p.ID, 10)

	n, err := db.DeleteCompletedBefore(time.Now().UTC().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.GetGame(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetGame(recent.ID)
	assert.NoError(t, err)
	_, err = db.GetGame(active.ID)
	assert.NoError(t, err)
}
