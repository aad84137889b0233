package api

import (
	"github.com/shopspring/decimal"

	"github.com/cardtable/blackjack-go/internal/blackjack"
	"github.com/cardtable/blackjack-go/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidBet    = "invalid_bet"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Game-rule errors
	ErrTypeIllegalState      = "illegal_state"
	ErrTypeNotEligible       = "not_eligible"
	ErrTypeInsufficientFunds = "insufficient_funds"

	// Lookup errors
	ErrTypePlayerNotFound = "player_not_found"
	ErrTypeGameNotFound   = "game_not_found"

	// System errors
	ErrTypeShoeExhausted = "shoe_exhausted"
	ErrTypeTimeout       = "timeout"
	ErrTypeInternal      = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategoryNotFound   ErrorCategory = "not_found"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidBet, ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeIllegalState, ErrTypeNotEligible, ErrTypeInsufficientFunds:
		return CategoryGame
	case ErrTypePlayerNotFound, ErrTypeGameNotFound:
		return CategoryNotFound
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// CreatePlayerRequest registers a new player account.
type CreatePlayerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdatePlayerRequest changes a player's profile fields.
type UpdatePlayerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DepositRequest credits the player's balance.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlayerResponse is the player account representation.
type PlayerResponse struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Balance     decimal.Decimal `json:"balance"`
	GamesPlayed int             `json:"games_played"`
	GamesWon    int             `json:"games_won"`
	WinRate     float64         `json:"win_rate"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// PlayerStatsResponse is the player statistics representation. The
// daily counters roll over when the reset endpoint is called.
type PlayerStatsResponse struct {
	PlayerID         string          `json:"player_id"`
	GamesPlayed      int             `json:"games_played"`
	GamesWon         int             `json:"games_won"`
	GamesPlayedToday int             `json:"games_played_today"`
	GamesWonToday    int             `json:"games_won_today"`
	WinRate          float64         `json:"win_rate"`
	TotalWinnings    decimal.Decimal `json:"total_winnings"`
}

// PlayersListResponse wraps player collection endpoints.
type PlayersListResponse struct {
	Players []PlayerResponse `json:"players"`
	Count   int              `json:"count"`
}

// ResetDailyStatsResponse reports how many accounts had their daily
// counters zeroed.
type ResetDailyStatsResponse struct {
	PlayersReset int64 `json:"players_reset"`
}

// StartGameRequest deals a new game.
type StartGameRequest struct {
	PlayerID string          `json:"player_id"`
	Bet      decimal.Decimal `json:"bet"`
}

// CardView is one card as shown to the player. The dealer's hole card
// is rendered as Hidden while the game is in progress.
type CardView struct {
	Suit   string `json:"suit,omitempty"`
	Rank   string `json:"rank,omitempty"`
	Value  int    `json:"value,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// HandView is one hand as shown to the player.
type HandView struct {
	Cards     []CardView      `json:"cards"`
	Value     int             `json:"value"`
	Soft      bool            `json:"soft,omitempty"`
	Blackjack bool            `json:"blackjack,omitempty"`
	Bust      bool            `json:"bust,omitempty"`
	Finished  bool            `json:"finished"`
	FromSplit bool            `json:"from_split,omitempty"`
	Wager     decimal.Decimal `json:"wager"`
}

// OutcomeView is the settled result of one hand.
type OutcomeView struct {
	Result string          `json:"result"`
	Wager  decimal.Decimal `json:"wager"`
	Payout decimal.Decimal `json:"payout"`
}

// GameResponse is the game snapshot returned by every game endpoint.
type GameResponse struct {
	ID             string           `json:"id"`
	PlayerID       string           `json:"player_id"`
	Bet            decimal.Decimal  `json:"bet"`
	Status         string           `json:"status"`
	Dealer         HandView         `json:"dealer"`
	Hands          []HandView       `json:"hands"`
	CurrentHand    int              `json:"current_hand"`
	CanSplit       bool             `json:"can_split"`
	CanInsure      bool             `json:"can_insure"`
	InsuranceTaken bool             `json:"insurance_taken,omitempty"`
	InsuranceBet   *decimal.Decimal `json:"insurance_bet,omitempty"`
	Outcomes       []OutcomeView    `json:"outcomes,omitempty"`
	Payout         *decimal.Decimal `json:"payout,omitempty"`
}

// GameSummary is the row shape for game listings; it never includes the
// full hand detail.
type GameSummary struct {
	ID          string          `json:"id"`
	PlayerID    string          `json:"player_id"`
	Bet         decimal.Decimal `json:"bet"`
	Status      string          `json:"status"`
	Payout      decimal.Decimal `json:"payout"`
	CreatedAt   string          `json:"created_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
}

// GamesListResponse is a paginated game listing.
type GamesListResponse struct {
	Games      []GameSummary `json:"games"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
}

// CleanupResponse reports how many completed games were purged.
type CleanupResponse struct {
	Removed int64 `json:"removed"`
}

// newPlayerResponse maps a stored player to its API shape.
func newPlayerResponse(p *store.Player) PlayerResponse {
	return PlayerResponse{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		Balance:     p.Balance,
		GamesPlayed: p.GamesPlayed,
		GamesWon:    p.GamesWon,
		WinRate:     p.WinRate(),
		CreatedAt:   p.CreatedAt.Format(timeFormat),
		UpdatedAt:   p.UpdatedAt.Format(timeFormat),
	}
}

// newPlayersListResponse maps a stored player slice to the list shape.
func newPlayersListResponse(players []store.Player) PlayersListResponse {
	resp := PlayersListResponse{
		Players: make([]PlayerResponse, 0, len(players)),
		Count:   len(players),
	}
	for i := range players {
		resp.Players = append(resp.Players, newPlayerResponse(&players[i]))
	}
	return resp
}

// newGameResponse maps an engine game to its API shape. While the game
// is in progress the dealer's hole card stays hidden and the dealer
// value counts visible cards only.
func newGameResponse(g *blackjack.Game) GameResponse {
	resp := GameResponse{
		ID:          g.ID,
		PlayerID:    g.PlayerID,
		Bet:         g.Bet,
		Status:      string(g.Status),
		Dealer:      newDealerView(g),
		CurrentHand: g.Current,
		CanSplit:    g.CanSplit(),
		CanInsure:   g.CanTakeInsurance(),
	}
	for _, hand := range g.Hands {
		resp.Hands = append(resp.Hands, newHandView(hand))
	}
	if g.InsuranceTaken {
		resp.InsuranceTaken = true
		bet := g.InsuranceBet
		resp.InsuranceBet = &bet
	}
	if g.Status == blackjack.StatusCompleted {
		for _, o := range g.Outcomes {
			resp.Outcomes = append(resp.Outcomes, OutcomeView{
				Result: string(o.Result),
				Wager:  o.Wager,
				Payout: o.Payout,
			})
		}
		payout := g.Payout
		resp.Payout = &payout
	}
	return resp
}

func newHandView(h *blackjack.Hand) HandView {
	eval := h.Evaluate()
	view := HandView{
		Cards:     make([]CardView, 0, len(h.Cards)),
		Value:     eval.Value,
		Soft:      eval.Soft,
		Blackjack: h.Blackjack,
		Bust:      eval.Bust,
		Finished:  h.Finished,
		FromSplit: h.FromSplit,
		Wager:     h.Wager,
	}
	for _, c := range h.Cards {
		view.Cards = append(view.Cards, newCardView(c))
	}
	return view
}

func newDealerView(g *blackjack.Game) HandView {
	visible := &blackjack.Hand{}
	view := HandView{Finished: g.Dealer.Finished}
	for _, c := range g.Dealer.Cards {
		view.Cards = append(view.Cards, newCardView(c))
		if c.FaceUp {
			visible.Cards = append(visible.Cards, c)
		}
	}
	eval := visible.Evaluate()
	view.Value = eval.Value
	view.Soft = eval.Soft
	view.Bust = eval.Bust
	if g.Status == blackjack.StatusCompleted {
		view.Blackjack = g.Dealer.Blackjack
	}
	return view
}

func newCardView(c blackjack.Card) CardView {
	if !c.FaceUp {
		return CardView{Hidden: true}
	}
	return CardView{
		Suit:  c.Suit.String(),
		Rank:  c.Rank.String(),
		Value: c.Rank.Value(),
	}
}

func newGameSummary(g store.Game) GameSummary {
	summary := GameSummary{
		ID:        g.ID,
		PlayerID:  g.PlayerID,
		Bet:       g.Bet,
		Status:    g.Status,
		Payout:    g.Payout,
		CreatedAt: g.CreatedAt.Format(timeFormat),
	}
	if g.CompletedAt.Valid {
		summary.CompletedAt = g.CompletedAt.Time.Format(timeFormat)
	}
	return summary
}
