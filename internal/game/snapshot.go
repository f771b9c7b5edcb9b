package game

// PlayerView is one roster entry as replicated to clients.
type PlayerView struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Status Status `json:"status"`
}

// SubmissionView is one played answer as replicated to clients. PlayedBy
// is withheld until the reveal so observers can't tie cards to players
// while judging is still open.
type SubmissionView struct {
	CardIDs  []int  `json:"cardid"`
	PlayedBy string `json:"playedBy,omitempty"`
	Winner   bool   `json:"winner"`
}

// Snapshot is the replicated session state pushed to every client.
type Snapshot struct {
	Players      map[string]PlayerView `json:"players"`
	Responses    []SubmissionView      `json:"responses"`
	CallID       int                   `json:"callId"`
	CardsInRound int                   `json:"cardsInRound"`
	Reveal       bool                  `json:"reveal"`
	RoundNumber  int                   `json:"roundNumber"`
	DeckURL      string                `json:"deckUrl"`
	Host         string                `json:"host"`
}

func (s *Session) Snapshot() Snapshot {
	players := make(map[string]PlayerView, s.roster.Len())
	for id, p := range s.roster.players {
		players[id] = PlayerView{Name: p.Name, Score: p.Score, Status: p.Status}
	}

	responses := make([]SubmissionView, len(s.round.Responses))
	for i, sub := range s.round.Responses {
		responses[i] = SubmissionView{CardIDs: sub.CardIDs, Winner: sub.Winner}
		if s.round.Reveal {
			responses[i].PlayedBy = sub.PlayedBy
		}
	}

	return Snapshot{
		Players:      players,
		Responses:    responses,
		CallID:       s.round.CallID,
		CardsInRound: s.round.Arity,
		Reveal:       s.round.Reveal,
		RoundNumber:  s.round.Number,
		DeckURL:      s.cfg.DeckURL,
		Host:         s.host,
	}
}
