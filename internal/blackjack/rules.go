package blackjack

import "github.com/shopspring/decimal"

// Rules holds the table rule choices that vary between houses.
type Rules struct {
	// DealerHitsSoft17 makes the dealer draw on a soft 17 instead of
	// standing on any 17.
	DealerHitsSoft17 bool

	// MaxSplits caps how many times one game may split. The engine
	// supports at most one split (two player hands).
	MaxSplits int

	// MaxBet caps the wager per game. Zero means no cap.
	MaxBet decimal.Decimal
}

// DefaultRules returns the baseline table rules: dealer stands on all
// 17s, one split, no bet cap.
func DefaultRules() Rules {
	return Rules{
		DealerHitsSoft17: false,
		MaxSplits:        1,
	}
}

func (r Rules) validateBet(bet decimal.Decimal) error {
	if bet.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidBet
	}
	if r.MaxBet.IsPositive() && bet.GreaterThan(r.MaxBet) {
		return ErrInvalidBet
	}
	return nil
}

// dealerShouldDraw applies the stand threshold: draw below 17, and on a
// soft 17 only when the house rule says so.
func (r Rules) dealerShouldDraw(eval Evaluation) bool {
	if eval.Value < 17 {
		return true
	}
	return eval.Value == 17 && eval.Soft && r.DealerHitsSoft17
}
