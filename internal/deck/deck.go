package deck

import (
	"errors"
	"math/rand"
)

var ErrNotEnoughCards = errors.New("not enough cards in catalogue")
var ErrNoCalls = errors.New("deck has no calls")

// Reshuffling before a pile runs completely dry keeps draws from ever
// observing an empty pile mid-deal.
const safetyMargin = 3

// Deck owns the two draw piles. Only integer card ids are tracked here;
// the card text lives in the deck document and is resolved client-side.
type Deck struct {
	arities   []int // arity of call i = number of blanks
	responses int   // size of the response catalogue

	playingCalls     []int
	playingResponses []int
}

// New builds a deck over id ranges [0, len(arities)) and [0, responses),
// shuffling both piles.
func New(arities []int, responses int) *Deck {
	d := &Deck{arities: arities, responses: responses}
	d.ReshuffleCalls()
	d.ReshuffleResponses()
	return d
}

func Shuffle(a []int) {
	for i := len(a) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// ReshuffleCalls repopulates the call pile with the full id range and
// re-permutes it. Ids drawn before the reshuffle may come up again; the
// no-duplicates invariant is scoped to the current pile.
func (d *Deck) ReshuffleCalls() {
	d.playingCalls = fullRange(len(d.arities))
	Shuffle(d.playingCalls)
}

func (d *Deck) ReshuffleResponses() {
	d.playingResponses = fullRange(d.responses)
	Shuffle(d.playingResponses)
}

// DrawCall pops the next call id and returns it with its arity.
func (d *Deck) DrawCall() (id, arity int, err error) {
	if len(d.arities) == 0 {
		return 0, 0, ErrNoCalls
	}
	if len(d.playingCalls) < safetyMargin {
		d.ReshuffleCalls()
	}
	id = d.pop(&d.playingCalls)
	return id, d.arities[id], nil
}

// DrawResponses pops n response ids. The ids are distinct within one call.
// If the whole catalogue is smaller than n this is a configuration error
// and no cards are drawn.
func (d *Deck) DrawResponses(n int) ([]int, error) {
	if d.responses < n {
		return nil, ErrNotEnoughCards
	}
	if len(d.playingResponses) < safetyMargin || len(d.playingResponses) < n {
		d.ReshuffleResponses()
	}
	hand := make([]int, 0, n)
	for i := 0; i < n; i++ {
		hand = append(hand, d.pop(&d.playingResponses))
	}
	return hand, nil
}

func (d *Deck) RemainingCalls() int     { return len(d.playingCalls) }
func (d *Deck) RemainingResponses() int { return len(d.playingResponses) }
func (d *Deck) ResponseCount() int      { return d.responses }

func (d *Deck) pop(pile *[]int) int {
	last := len(*pile) - 1
	id := (*pile)[last]
	*pile = (*pile)[:last]
	return id
}

func fullRange(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}
