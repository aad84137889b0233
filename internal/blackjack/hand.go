package blackjack

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Evaluation is the derived view of a hand: its best value, whether an
// ace is still counted as 11, and the blackjack/bust classification.
type Evaluation struct {
	Value     int  `json:"value"`
	Soft      bool `json:"soft"`
	Blackjack bool `json:"blackjack"`
	Bust      bool `json:"bust"`
}

// Hand is an ordered sequence of cards with its own wager. Order is deal
// order and matters for display only.
//
// Blackjack is a stored flag, not derived from card count: a split hand
// can hold exactly two cards worth 21 and still pay even money. Only the
// original unsplit two-card 21 sets it.
type Hand struct {
	Cards     []Card          `json:"cards"`
	Wager     decimal.Decimal `json:"wager"`
	Blackjack bool            `json:"blackjack"`
	Finished  bool            `json:"finished"`
	FromSplit bool            `json:"from_split"`
}

func newHand(wager decimal.Decimal) *Hand {
	return &Hand{Wager: wager}
}

func (h *Hand) addCard(c Card) {
	h.Cards = append(h.Cards, c)
}

// Evaluate recomputes the hand value from the card slice. Every ace
// starts at 11 and is downgraded to 1 one at a time until the total is
// 21 or below or no soft aces remain.
func (h *Hand) Evaluate() Evaluation {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.Rank.Value()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return Evaluation{
		Value:     total,
		Soft:      aces > 0,
		Blackjack: h.Blackjack,
		Bust:      total > 21,
	}
}

// Value returns the best hand value.
func (h *Hand) Value() int {
	return h.Evaluate().Value
}

// Bust reports whether the hand is over 21.
func (h *Hand) Bust() bool {
	return h.Evaluate().Bust
}

// markBlackjack sets the stored blackjack flag when the original
// two-card hand totals 21. Split hands never qualify.
func (h *Hand) markBlackjack() {
	if !h.FromSplit && len(h.Cards) == 2 && h.Value() == 21 {
		h.Blackjack = true
		h.Finished = true
	}
}

// String renders the hand like "♠A ♦K (21)".
func (h *Hand) String() string {
	parts := make([]string, 0, len(h.Cards)+1)
	for _, c := range h.Cards {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ") + " (" + strconv.Itoa(h.Value()) + ")"
}
