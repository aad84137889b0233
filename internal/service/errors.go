package service

import "errors"

var (
	// ErrPlayerNotFound means the player identity is unknown.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrGameNotFound means the game identity is unknown.
	ErrGameNotFound = errors.New("game not found")

	// ErrInsufficientFunds means the player's balance does not cover a
	// wager, a split's duplicate wager, or an insurance side bet.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidInput covers malformed account fields.
	ErrInvalidInput = errors.New("invalid input")
)
