package blackjack

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riggedShoe builds a full 52-card shoe and moves the named cards to
// the front in order, so deals stay deterministic while the card
// accounting invariant still holds.
func riggedShoe(t *testing.T, front ...Card) *Shoe {
	t.Helper()
	shoe := NewShoe(rand.NewSource(1))
	for i, want := range front {
		found := -1
		for j := i; j < len(shoe.Cards); j++ {
			if shoe.Cards[j].Suit == want.Suit && shoe.Cards[j].Rank == want.Rank {
				found = j
				break
			}
		}
		require.NotEqual(t, -1, found, "card %s rigged more than once", want)
		shoe.Cards[i], shoe.Cards[found] = shoe.Cards[found], shoe.Cards[i]
	}
	return shoe
}

func card(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank, FaceUp: true}
}

// riggedGame deals from a rigged shoe in the fixed order: player,
// dealer up-card, player, dealer hole card, then any extra draws.
func riggedGame(t *testing.T, bet int64, rules Rules, front ...Card) *Game {
	t.Helper()
	game, err := newGameWithShoe("player-1", decimal.NewFromInt(bet), rules, riggedShoe(t, front...))
	require.NoError(t, err)
	return game
}

func TestNewGameDealsAlternating(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Five), card(Hearts, Nine), card(Clubs, Six), card(Diamonds, Seven))

	require.Len(t, game.Hands, 1)
	player := game.Hands[0]
	require.Len(t, player.Cards, 2)
	assert.Equal(t, Five, player.Cards[0].Rank)
	assert.Equal(t, Six, player.Cards[1].Rank)
	assert.True(t, player.Cards[0].FaceUp)

	require.Len(t, game.Dealer.Cards, 2)
	assert.Equal(t, Nine, game.Dealer.Cards[0].Rank)
	assert.Equal(t, Seven, game.Dealer.Cards[1].Rank)
	assert.True(t, game.Dealer.Cards[0].FaceUp)
	assert.False(t, game.Dealer.Cards[1].FaceUp, "hole card is dealt face down")

	assert.Equal(t, StatusInProgress, game.Status)
	assert.Equal(t, 52, game.CardCount())
	assert.NotEmpty(t, game.ID)
}

func TestNewGameRejectsInvalidBet(t *testing.T) {
	shoe := NewShoe(rand.NewSource(1))

	_, err := newGameWithShoe("p", decimal.Zero, DefaultRules(), shoe)
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = newGameWithShoe("p", decimal.NewFromInt(-5), DefaultRules(), shoe)
	assert.ErrorIs(t, err, ErrInvalidBet)

	capped := DefaultRules()
	capped.MaxBet = decimal.NewFromInt(100)
	_, err = newGameWithShoe("p", decimal.NewFromInt(101), capped, shoe)
	assert.ErrorIs(t, err, ErrInvalidBet)
}

func TestDealtBlackjackResolvesImmediately(t *testing.T) {
	// Scenario: player [A, K] face up, dealer [9, hole 7].
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ace), card(Hearts, Nine), card(Clubs, King), card(Diamonds, Seven))

	assert.Equal(t, StatusCompleted, game.Status)
	require.Len(t, game.Outcomes, 1)
	assert.Equal(t, ResultPlayerBlackjack, game.Outcomes[0].Result)
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(25)), "3:2 on a 10 bet, got %s", game.Payout)
	assert.True(t, game.Dealer.Cards[1].FaceUp, "hole card revealed on completion")
	assert.Len(t, game.Dealer.Cards, 2, "dealer does not draw against a blackjack")

	assert.ErrorIs(t, game.Hit(), ErrIllegalState)
}

func TestDealtBlackjackAgainstDealerBlackjackPushes(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ace), card(Hearts, Ace), card(Clubs, King), card(Hearts, King))

	assert.Equal(t, StatusCompleted, game.Status)
	require.Len(t, game.Outcomes, 1)
	assert.Equal(t, ResultPush, game.Outcomes[0].Result)
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(10)))
}

func TestStandTriggersDealerPlay(t *testing.T) {
	// Scenario: player [10, 7] stands on 17; dealer [10, 9] holds 19.
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ten), card(Clubs, Seven), card(Diamonds, Nine))

	require.NoError(t, game.Stand())
	assert.Equal(t, StatusCompleted, game.Status)
	require.Len(t, game.Outcomes, 1)
	assert.Equal(t, ResultDealerWin, game.Outcomes[0].Result)
	assert.True(t, game.Payout.IsZero())
	assert.Len(t, game.Dealer.Cards, 2, "dealer stands on 19")
	assert.Equal(t, 52, game.CardCount())
}

func TestHitAtTwentyOneIsRejected(t *testing.T) {
	// Scenario: player hits [5, 6] into a 10 for 21. The hand stays
	// open, but hitting again can only bust and is rejected.
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Five), card(Hearts, Ten), card(Clubs, Six), card(Diamonds, Nine),
		card(Hearts, Queen))

	require.NoError(t, game.Hit())
	assert.Equal(t, 21, game.Hands[0].Value())
	assert.False(t, game.Hands[0].Finished, "21 by hit is not auto-stood")
	assert.False(t, game.Hands[0].Blackjack)

	assert.ErrorIs(t, game.Hit(), ErrIllegalState)
	assert.Equal(t, StatusInProgress, game.Status)

	require.NoError(t, game.Stand())
	assert.Equal(t, StatusCompleted, game.Status)
	assert.Equal(t, ResultPlayerWin, game.Outcomes[0].Result)
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(20)))
}

func TestHitToBustCompletesGame(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ten), card(Clubs, Nine), card(Diamonds, Nine),
		card(Hearts, Five))

	require.NoError(t, game.Hit())
	assert.Equal(t, StatusCompleted, game.Status)
	require.Len(t, game.Outcomes, 1)
	assert.Equal(t, ResultPlayerBust, game.Outcomes[0].Result)
	assert.True(t, game.Payout.IsZero())
	assert.Len(t, game.Dealer.Cards, 2, "dealer does not draw when every hand is bust")
	assert.Equal(t, 52, game.CardCount())
}

func TestDealerDrawsToSeventeen(t *testing.T) {
	// Dealer [10, 2] must draw; rig a 4 then a 5 so two draws land 21.
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ten), card(Clubs, Eight), card(Diamonds, Two),
		card(Hearts, Four), card(Clubs, Five))

	require.NoError(t, game.Stand())
	assert.Equal(t, StatusCompleted, game.Status)
	assert.Equal(t, 21, game.Dealer.Value())
	assert.GreaterOrEqual(t, game.Dealer.Value(), 17)
	assert.Equal(t, ResultDealerWin, game.Outcomes[0].Result)
}

func TestDealerBustPaysEvenMoney(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ten), card(Clubs, Eight), card(Diamonds, Six),
		card(Clubs, Ten))

	require.NoError(t, game.Stand())
	assert.Equal(t, ResultDealerBust, game.Outcomes[0].Result)
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(20)))
	assert.True(t, game.Dealer.Bust())
}

func TestDealerSoft17Rule(t *testing.T) {
	deal := []Card{
		card(Spades, Ten), card(Hearts, Ace), card(Clubs, Ten), card(Diamonds, Six),
		card(Clubs, Four),
	}

	stand := riggedGame(t, 10, DefaultRules(), deal...)
	require.NoError(t, stand.Stand())
	assert.Equal(t, 17, stand.Dealer.Value(), "baseline dealer stands on soft 17")
	assert.Equal(t, ResultPlayerWin, stand.Outcomes[0].Result)

	rules := DefaultRules()
	rules.DealerHitsSoft17 = true
	hit := riggedGame(t, 10, rules, deal...)
	require.NoError(t, hit.Stand())
	assert.Equal(t, 21, hit.Dealer.Value(), "house rule draws the soft 17")
	assert.Equal(t, ResultDealerWin, hit.Outcomes[0].Result)
}

func TestCompletedGameIsImmutable(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ten), card(Clubs, Seven), card(Diamonds, Nine))
	require.NoError(t, game.Stand())

	payout := game.Payout
	remaining := game.Shoe.Remaining()

	assert.ErrorIs(t, game.Hit(), ErrIllegalState)
	assert.ErrorIs(t, game.Stand(), ErrIllegalState)
	assert.ErrorIs(t, game.Split(), ErrIllegalState)
	assert.ErrorIs(t, game.Insurance(), ErrIllegalState)

	assert.Equal(t, StatusCompleted, game.Status)
	assert.True(t, game.Payout.Equal(payout))
	assert.Equal(t, remaining, game.Shoe.Remaining())
}

func TestSplitPlaysBothHandsIndependently(t *testing.T) {
	// Scenario: player [8, 8] splits; each hand draws one card and is
	// resolved on its own wager against the single dealer hand.
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Eight), card(Hearts, Ten), card(Hearts, Eight), card(Diamonds, Seven),
		card(Clubs, Three), card(Diamonds, King),
		card(Hearts, Queen))

	require.True(t, game.CanSplit())
	require.NoError(t, game.Split())

	require.Len(t, game.Hands, 2)
	assert.Equal(t, 0, game.Current)
	assert.Equal(t, 11, game.Hands[0].Value(), "8+3")
	assert.Equal(t, 18, game.Hands[1].Value(), "8+K")
	assert.True(t, game.Hands[0].FromSplit)
	assert.True(t, game.Hands[1].FromSplit)
	assert.True(t, game.Hands[1].Wager.Equal(decimal.NewFromInt(10)), "split duplicates the wager")
	assert.Equal(t, 52, game.CardCount())

	// First hand hits to 21; a split 21 is a plain 21, not blackjack.
	require.NoError(t, game.Hit())
	assert.Equal(t, 21, game.Hands[0].Value())
	assert.False(t, game.Hands[0].Blackjack)
	require.NoError(t, game.Stand())

	assert.Equal(t, 1, game.Current)
	require.NoError(t, game.Stand())

	assert.Equal(t, StatusCompleted, game.Status)
	require.Len(t, game.Outcomes, 2)
	assert.Equal(t, ResultPlayerWin, game.Outcomes[0].Result)
	assert.Equal(t, ResultPlayerWin, game.Outcomes[1].Result)
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(40)), "both hands pay 2x, got %s", game.Payout)
	assert.Equal(t, 52, game.CardCount())
}

func TestSplitEligibility(t *testing.T) {
	t.Run("requires equal rank value", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Eight), card(Hearts, Ten), card(Hearts, Nine), card(Diamonds, Seven))
		assert.False(t, game.CanSplit())
		assert.ErrorIs(t, game.Split(), ErrNotEligible)
		assert.Len(t, game.Hands, 1)
	})

	t.Run("king and ten split as equal values", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, King), card(Hearts, Nine), card(Hearts, Ten), card(Diamonds, Seven))
		assert.True(t, game.CanSplit())
	})

	t.Run("rejected after a hit", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Eight), card(Hearts, Ten), card(Hearts, Eight), card(Diamonds, Seven),
			card(Clubs, Two))
		require.NoError(t, game.Hit())
		assert.ErrorIs(t, game.Split(), ErrNotEligible)
	})

	t.Run("only one split per game", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Eight), card(Hearts, Ten), card(Hearts, Eight), card(Diamonds, Seven),
			card(Clubs, Eight), card(Diamonds, Eight))
		require.NoError(t, game.Split())
		// Both hands are pairs of eights again, but the split is spent.
		assert.ErrorIs(t, game.Split(), ErrNotEligible)
		assert.Len(t, game.Hands, 2)
	})
}

func TestInsurancePaysOnDealerBlackjack(t *testing.T) {
	// Scenario: dealer shows an ace with a ten in the hole. Insurance
	// pays 2:1 and the main hand resolves independently.
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ace), card(Clubs, Seven), card(Hearts, King))

	require.True(t, game.CanTakeInsurance())
	require.NoError(t, game.Insurance())
	assert.True(t, game.InsuranceBet.Equal(decimal.NewFromInt(5)), "side bet is half the wager")

	require.NoError(t, game.Stand())
	assert.Equal(t, StatusCompleted, game.Status)
	assert.True(t, game.InsurancePayout.Equal(decimal.NewFromInt(15)), "stake back plus 2:1")
	assert.Equal(t, ResultDealerWin, game.Outcomes[0].Result, "17 loses to dealer 21")
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(15)), "insurance only")
}

func TestInsuranceLostWithoutDealerBlackjack(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Ten), card(Hearts, Ace), card(Clubs, Nine), card(Hearts, Six),
		card(Diamonds, Ten))

	require.NoError(t, game.Insurance())
	require.NoError(t, game.Stand())

	assert.True(t, game.InsurancePayout.IsZero())
	assert.Equal(t, ResultPlayerWin, game.Outcomes[0].Result, "19 beats dealer 17")
	assert.True(t, game.Payout.Equal(decimal.NewFromInt(20)), "main hand only")
}

func TestInsuranceEligibility(t *testing.T) {
	t.Run("requires an ace up-card", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Ten), card(Hearts, King), card(Clubs, Seven), card(Hearts, Ace))
		assert.False(t, game.CanTakeInsurance())
		assert.ErrorIs(t, game.Insurance(), ErrNotEligible)
	})

	t.Run("closed after the first action", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Five), card(Hearts, Ace), card(Clubs, Seven), card(Hearts, Five),
			card(Diamonds, Two))
		require.NoError(t, game.Hit())
		assert.ErrorIs(t, game.Insurance(), ErrNotEligible)
	})

	t.Run("taken at most once", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Ten), card(Hearts, Ace), card(Clubs, Seven), card(Hearts, Nine))
		require.NoError(t, game.Insurance())
		assert.ErrorIs(t, game.Insurance(), ErrNotEligible)
	})
}

func TestWonRequiresNetProfit(t *testing.T) {
	t.Run("break-even split is not a win", func(t *testing.T) {
		// Scenario: [8, 8] against a dealer 17. The first split hand
		// stands on 18 and wins; the second hits to 23 and busts. The
		// player gets back exactly what was staked.
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Eight), card(Hearts, Ten), card(Hearts, Eight), card(Diamonds, Seven),
			card(Clubs, King), card(Clubs, Five),
			card(Hearts, Queen))

		require.NoError(t, game.Split())
		require.NoError(t, game.Stand())
		require.NoError(t, game.Hit())

		assert.Equal(t, StatusCompleted, game.Status)
		require.Len(t, game.Outcomes, 2)
		assert.Equal(t, ResultPlayerWin, game.Outcomes[0].Result)
		assert.Equal(t, ResultPlayerBust, game.Outcomes[1].Result)
		assert.True(t, game.Payout.Equal(decimal.NewFromInt(20)), "payout equals the combined stake")
		assert.False(t, game.Won(), "breaking even does not count as a win")
	})

	t.Run("push is not a win", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Ten), card(Hearts, Ten), card(Clubs, Nine), card(Diamonds, Nine))
		require.NoError(t, game.Stand())
		assert.Equal(t, ResultPush, game.Outcomes[0].Result)
		assert.False(t, game.Won())
	})

	t.Run("single winning hand is a win", func(t *testing.T) {
		game := riggedGame(t, 10, DefaultRules(),
			card(Spades, Ten), card(Hearts, Ten), card(Clubs, Nine), card(Diamonds, Seven))
		require.NoError(t, game.Stand())
		assert.Equal(t, ResultPlayerWin, game.Outcomes[0].Result)
		assert.True(t, game.Won())
	})
}

func TestCardAccountingThroughoutGame(t *testing.T) {
	game := riggedGame(t, 10, DefaultRules(),
		card(Spades, Eight), card(Hearts, Ten), card(Hearts, Eight), card(Diamonds, Six),
		card(Clubs, Two), card(Diamonds, Three))

	assert.Equal(t, 52, game.CardCount())
	require.NoError(t, game.Split())
	assert.Equal(t, 52, game.CardCount())
	require.NoError(t, game.Hit())
	assert.Equal(t, 52, game.CardCount())
	require.NoError(t, game.Stand())
	assert.Equal(t, 52, game.CardCount())
	require.NoError(t, game.Stand())
	assert.Equal(t, StatusCompleted, game.Status)
	assert.Equal(t, 52, game.CardCount())
}

func TestNewGameWithRandomSourceCompletes(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		game, err := NewGame("p", decimal.NewFromInt(10), DefaultRules(), rand.NewSource(seed))
		require.NoError(t, err)
		assert.Equal(t, 52, game.CardCount())

		for game.Status == StatusInProgress {
			require.NoError(t, game.Stand())
		}
		assert.Equal(t, StatusCompleted, game.Status)
		assert.Equal(t, 52, game.CardCount())
		assert.NotEmpty(t, game.Outcomes)
	}
}
