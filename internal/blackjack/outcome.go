package blackjack

import "github.com/shopspring/decimal"

// Result is the outcome of one player hand against the dealer.
type Result string

const (
	ResultPlayerWin       Result = "PLAYER_WIN"
	ResultDealerWin       Result = "DEALER_WIN"
	ResultPush            Result = "PUSH"
	ResultPlayerBlackjack Result = "PLAYER_BLACKJACK"
	ResultPlayerBust      Result = "PLAYER_BUST"
	ResultDealerBust      Result = "DEALER_BUST"
)

// Payout multipliers applied to the hand's own wager. The multiplier is
// the total amount returned to the player, stake included: a win pays
// 2x, blackjack pays 3:2 (2.5x), a push returns the stake.
var (
	multiplierLoss      = decimal.Zero
	multiplierPush      = decimal.NewFromInt(1)
	multiplierWin       = decimal.NewFromInt(2)
	multiplierBlackjack = decimal.NewFromFloat(2.5)
)

// HandOutcome pairs a result code with the payout for that hand.
type HandOutcome struct {
	Result Result          `json:"result"`
	Wager  decimal.Decimal `json:"wager"`
	Payout decimal.Decimal `json:"payout"`
}

// Resolve compares a finished player hand against the final dealer hand
// and returns the result and payout. Rules are evaluated in precedence
// order; the first match wins.
func Resolve(player, dealer *Hand) HandOutcome {
	p := player.Evaluate()
	d := dealer.Evaluate()

	result, mult := resolveResult(p, d)
	return HandOutcome{
		Result: result,
		Wager:  player.Wager,
		Payout: player.Wager.Mul(mult),
	}
}

func resolveResult(p, d Evaluation) (Result, decimal.Decimal) {
	switch {
	case p.Bust:
		return ResultPlayerBust, multiplierLoss
	case p.Blackjack && !d.Blackjack:
		return ResultPlayerBlackjack, multiplierBlackjack
	case p.Blackjack && d.Blackjack:
		return ResultPush, multiplierPush
	case d.Bust:
		return ResultDealerBust, multiplierWin
	case p.Value > d.Value:
		return ResultPlayerWin, multiplierWin
	case p.Value == d.Value:
		return ResultPush, multiplierPush
	default:
		return ResultDealerWin, multiplierLoss
	}
}

// Won reports whether the outcome favored the player, for statistics.
func (o HandOutcome) Won() bool {
	switch o.Result {
	case ResultPlayerWin, ResultPlayerBlackjack, ResultDealerBust:
		return true
	default:
		return false
	}
}
