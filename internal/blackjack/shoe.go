package blackjack

import "math/rand"

// Shoe is the depletable, shuffled source of cards for one game. Cards
// are drawn from the front; a card removed from the shoe belongs to
// exactly one hand thereafter.
type Shoe struct {
	Cards []Card `json:"cards"`
}

// NewShoe builds all 52 cards and shuffles them with a Fisher-Yates
// shuffle driven by the given source, so tests can seed the deal.
func NewShoe(src rand.Source) *Shoe {
	cards := make([]Card, 0, 52)
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank, FaceUp: true})
		}
	}

	rng := rand.New(src)
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return &Shoe{Cards: cards}
}

// Draw removes and returns the frontmost card, dealt face up.
func (s *Shoe) Draw() (Card, error) {
	if len(s.Cards) == 0 {
		return Card{}, ErrShoeExhausted
	}
	card := s.Cards[0]
	s.Cards = s.Cards[1:]
	card.FaceUp = true
	return card, nil
}

// drawFaceDown removes the frontmost card dealt face down (the dealer's
// hole card).
func (s *Shoe) drawFaceDown() (Card, error) {
	card, err := s.Draw()
	if err != nil {
		return Card{}, err
	}
	card.FaceUp = false
	return card, nil
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.Cards)
}
