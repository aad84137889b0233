package blackjack

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the game lifecycle state.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Game is the aggregate root for one blackjack game: a private shoe,
// the dealer hand, up to two player hands, and the settlement once the
// game completes. Every action validates before it mutates, so a
// rejected call leaves the game exactly as it was.
//
// A Game is not safe for concurrent use; callers must hold exclusive
// access for the duration of each action.
type Game struct {
	ID       string          `json:"id"`
	PlayerID string          `json:"player_id"`
	Bet      decimal.Decimal `json:"bet"`
	Rules    Rules           `json:"rules"`

	Shoe    *Shoe   `json:"shoe"`
	Dealer  *Hand   `json:"dealer"`
	Hands   []*Hand `json:"hands"`
	Current int     `json:"current"`

	Status Status `json:"status"`

	InsuranceTaken  bool            `json:"insurance_taken"`
	InsuranceBet    decimal.Decimal `json:"insurance_bet"`
	InsurancePayout decimal.Decimal `json:"insurance_payout"`

	Outcomes []HandOutcome   `json:"outcomes,omitempty"`
	Payout   decimal.Decimal `json:"payout"`

	// Acted closes the insurance window after the first hit, stand,
	// or split. SplitsUsed enforces the split cap.
	Acted      bool `json:"acted"`
	SplitsUsed int  `json:"splits_used"`
}

// NewGame validates the bet, builds a fresh shuffled shoe, and deals
// the opening hands in alternating order: player, dealer up-card,
// player, dealer hole card (face down). A dealt blackjack resolves the
// game immediately; no player action is offered.
func NewGame(playerID string, bet decimal.Decimal, rules Rules, src rand.Source) (*Game, error) {
	return newGameWithShoe(playerID, bet, rules, NewShoe(src))
}

func newGameWithShoe(playerID string, bet decimal.Decimal, rules Rules, shoe *Shoe) (*Game, error) {
	if err := rules.validateBet(bet); err != nil {
		return nil, err
	}

	player := newHand(bet)
	dealer := newHand(decimal.Zero)

	c, err := shoe.Draw()
	if err != nil {
		return nil, err
	}
	player.addCard(c)
	if c, err = shoe.Draw(); err != nil {
		return nil, err
	}
	dealer.addCard(c)
	if c, err = shoe.Draw(); err != nil {
		return nil, err
	}
	player.addCard(c)
	if c, err = shoe.drawFaceDown(); err != nil {
		return nil, err
	}
	dealer.addCard(c)

	g := &Game{
		ID:       uuid.New().String(),
		PlayerID: playerID,
		Bet:      bet,
		Rules:    rules,
		Shoe:     shoe,
		Dealer:   dealer,
		Hands:    []*Hand{player},
		Status:   StatusInProgress,
	}

	player.markBlackjack()
	if player.Blackjack {
		if err := g.dealerPlay(); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// CurrentHand returns the player hand awaiting action.
func (g *Game) CurrentHand() *Hand {
	return g.Hands[g.Current]
}

func (g *Game) ensureActionable() error {
	if g.Status != StatusInProgress {
		return ErrIllegalState
	}
	if g.CurrentHand().Finished {
		return ErrIllegalState
	}
	return nil
}

// Hit draws one card into the current hand. A bust finishes the hand
// and play advances; once no hands remain the dealer plays and the game
// resolves. Hitting at exactly 21 is rejected: the draw could only bust.
func (g *Game) Hit() error {
	if err := g.ensureActionable(); err != nil {
		return err
	}
	hand := g.CurrentHand()
	if hand.Value() >= 21 {
		return ErrIllegalState
	}
	if g.Shoe.Remaining() == 0 {
		return ErrShoeExhausted
	}

	g.Acted = true
	c, _ := g.Shoe.Draw()
	hand.addCard(c)
	if hand.Bust() {
		hand.Finished = true
		return g.advance()
	}
	return nil
}

// Stand finishes the current hand and advances play.
func (g *Game) Stand() error {
	if err := g.ensureActionable(); err != nil {
		return err
	}
	g.Acted = true
	g.CurrentHand().Finished = true
	return g.advance()
}

// CanSplit reports whether the split preconditions hold: the original
// two-card hand, both cards of equal rank value, and no split used yet.
func (g *Game) CanSplit() bool {
	if g.Status != StatusInProgress || g.SplitsUsed >= g.Rules.MaxSplits {
		return false
	}
	if len(g.Hands) != 1 {
		return false
	}
	hand := g.Hands[0]
	if hand.Finished || len(hand.Cards) != 2 {
		return false
	}
	return hand.Cards[0].Rank.Value() == hand.Cards[1].Rank.Value()
}

// Split moves the second card into a new hand, deals one fresh card to
// each resulting hand, duplicates the wager, and restarts play at the
// first hand. The caller must have authorized and debited the duplicate
// wager before invoking Split; on any rejection the game is unchanged.
func (g *Game) Split() error {
	if g.Status != StatusInProgress {
		return ErrIllegalState
	}
	if !g.CanSplit() {
		return ErrNotEligible
	}
	if g.Shoe.Remaining() < 2 {
		return ErrShoeExhausted
	}

	first := g.Hands[0]
	second := newHand(first.Wager)
	second.FromSplit = true
	first.FromSplit = true

	second.addCard(first.Cards[1])
	first.Cards = first.Cards[:1]

	c, _ := g.Shoe.Draw()
	first.addCard(c)
	c, _ = g.Shoe.Draw()
	second.addCard(c)

	g.Hands = append(g.Hands, second)
	g.Current = 0
	g.SplitsUsed++
	g.Acted = true
	return nil
}

// CanTakeInsurance reports whether the insurance preconditions hold:
// the dealer's up-card is an ace, the player has not acted on the
// original hand, and no insurance has been taken.
func (g *Game) CanTakeInsurance() bool {
	return g.Status == StatusInProgress &&
		!g.Acted &&
		!g.InsuranceTaken &&
		g.Dealer.Cards[0].IsAce()
}

// Insurance records a side bet of half the original wager. It resolves
// during the dealer turn, before and independently of the main hands:
// a dealer blackjack pays 2:1 on the side bet, otherwise it is lost.
// The caller must have authorized and debited the side bet first.
func (g *Game) Insurance() error {
	if g.Status != StatusInProgress {
		return ErrIllegalState
	}
	if !g.CanTakeInsurance() {
		return ErrNotEligible
	}
	g.InsuranceTaken = true
	g.InsuranceBet = g.Bet.DivRound(decimal.NewFromInt(2), 2)
	return nil
}

// advance moves play to the next unfinished hand, or runs the dealer
// turn and resolution once every player hand is finished.
func (g *Game) advance() error {
	for i := g.Current + 1; i < len(g.Hands); i++ {
		if !g.Hands[i].Finished {
			g.Current = i
			return nil
		}
	}
	return g.dealerPlay()
}

// dealerPlay reveals the hole card, settles insurance, draws the dealer
// hand to the stand threshold when any live player hand remains, and
// resolves every hand. The game is completed exactly once.
func (g *Game) dealerPlay() error {
	g.Dealer.Cards[1].FaceUp = true
	g.Dealer.markBlackjack()

	if g.InsuranceTaken {
		if g.Dealer.Blackjack {
			// 2:1 on the side bet: stake back plus two units.
			g.InsurancePayout = g.InsuranceBet.Mul(decimal.NewFromInt(3))
		} else {
			g.InsurancePayout = decimal.Zero
		}
	}

	if g.hasLiveHand() && !g.Dealer.Blackjack {
		for g.Rules.dealerShouldDraw(g.Dealer.Evaluate()) {
			c, err := g.Shoe.Draw()
			if err != nil {
				return err
			}
			g.Dealer.addCard(c)
		}
	}
	g.Dealer.Finished = true

	total := g.InsurancePayout
	g.Outcomes = make([]HandOutcome, 0, len(g.Hands))
	for _, hand := range g.Hands {
		outcome := Resolve(hand, g.Dealer)
		g.Outcomes = append(g.Outcomes, outcome)
		total = total.Add(outcome.Payout)
	}
	g.Payout = total
	g.Status = StatusCompleted
	return nil
}

// hasLiveHand reports whether any player hand still contends against
// the dealer's draw (neither bust nor blackjack).
func (g *Game) hasLiveHand() bool {
	for _, hand := range g.Hands {
		eval := hand.Evaluate()
		if !eval.Bust && !eval.Blackjack {
			return true
		}
	}
	return false
}

// CardCount returns the cards held across the shoe and all hands. It
// must always equal 52; nothing creates or destroys a card after the
// shoe is built.
func (g *Game) CardCount() int {
	n := g.Shoe.Remaining() + len(g.Dealer.Cards)
	for _, hand := range g.Hands {
		n += len(hand.Cards)
	}
	return n
}

// Won reports whether the completed game favored the player on net:
// the hand payouts exceed the hand wagers. A split that wins one hand
// and loses the other breaks even and does not count. Insurance is
// excluded; it is a side bet.
func (g *Game) Won() bool {
	staked, paid := decimal.Zero, decimal.Zero
	for _, o := range g.Outcomes {
		staked = staked.Add(o.Wager)
		paid = paid.Add(o.Payout)
	}
	return paid.GreaterThan(staked)
}
