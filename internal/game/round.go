package game

import "math/rand"

// Submission is one player's answer to the current call: as many card ids
// as the call has blanks, in blank order.
type Submission struct {
	CardIDs  []int
	PlayedBy string
	Winner   bool
}

// Round is replaced wholesale at every round boundary; a retired round is
// never mutated. Number is monotonic over the life of the session, with 0
// meaning the lobby (no round yet).
type Round struct {
	Number    int
	CallID    int
	Arity     int
	Czar      string
	Reveal    bool
	Responses []Submission
}

// shuffleSubmissions permutes submissions before the reveal so their
// order carries no information about who played first.
func shuffleSubmissions(subs []Submission) {
	for i := len(subs) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		subs[i], subs[j] = subs[j], subs[i]
	}
}
