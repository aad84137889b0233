// Package blackjack implements the blackjack rules engine: the shoe,
// hand evaluation, the per-game state machine (hit, stand, split,
// insurance, dealer auto-play), and outcome settlement. The package is
// pure and synchronous; persistence, balances, and transport live in
// the layers around it.
package blackjack
