package blackjack

import "errors"

var (
	// ErrInvalidBet rejects a wager that is zero, negative, or above the
	// configured maximum. Checked before any state exists.
	ErrInvalidBet = errors.New("invalid bet")

	// ErrIllegalState rejects an action on a completed game, a finished
	// hand, or out of turn order. The game is left unchanged.
	ErrIllegalState = errors.New("illegal game state")

	// ErrNotEligible rejects split or insurance when their preconditions
	// are not met. The game is left unchanged.
	ErrNotEligible = errors.New("not eligible")

	// ErrShoeExhausted means the shoe has no cards left. A single 52-card
	// shoe cannot run out in one hand with at most one split, so this
	// signals card-accounting corruption and is fatal for the game.
	ErrShoeExhausted = errors.New("shoe exhausted")
)
