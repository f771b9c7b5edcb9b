package game

import (
	"errors"
	"slices"

	"github.com/daem-on/snazzy/internal/deck"
)

// Rejection messages are shown to the offending client verbatim.
var ErrAlreadyPlayed = errors.New("You have played this turn.")
var ErrNotCzar = errors.New("You're not the Czar.")
var ErrNotRevealed = errors.New("The cards are not revealed yet.")
var ErrBadIndex = errors.New("That's not possible.")
var ErrNotHost = errors.New("You're not the Host.")
var ErrNoRound = errors.New("The round has not started.")
var ErrWrongCardCount = errors.New("That's the wrong number of cards.")
var ErrNotEnoughCards = errors.New("Not enough cards to play with.")

type Config struct {
	DeckURL    string
	DealNumber int
	WinLimit   int
	LateDeal   bool
}

// Session is the authoritative state of one room: roster, deck, current
// round, host and czar bookkeeping. It is owned by exactly one room
// coordinator; all methods run on that coordinator's goroutine, so there
// is no locking here. Commands return the outbound events to execute and
// a rejection error for protocol violations (which never mutate state).
type Session struct {
	cfg    Config
	deck   *deck.Deck
	roster *Roster

	// Connected client ids in join order. The czar cursor indexes this
	// list; timed-out slots live only in the roster.
	clients []string
	czar    int
	host    string

	round   Round
	dealt   map[string]bool
	pending []string
	played  map[string]int
	over    bool
}

// NewSession wires a session around a validated deck. The deck must have
// at least one call; room creation guarantees that.
func NewSession(d *deck.Deck, cfg Config) *Session {
	if cfg.DealNumber == 0 {
		cfg.DealNumber = 7
	}
	if cfg.WinLimit == 0 {
		cfg.WinLimit = 5
	}
	return &Session{
		cfg:    cfg,
		deck:   d,
		roster: NewRoster(),
		czar:   -1,
		dealt:  make(map[string]bool),
		played: make(map[string]int),
	}
}

func (s *Session) Config() Config   { return s.cfg }
func (s *Session) Host() string     { return s.host }
func (s *Session) Over() bool       { return s.over }
func (s *Session) RoundNumber() int { return s.round.Number }
func (s *Session) ClientCount() int { return len(s.clients) }
func (s *Session) Roster() *Roster  { return s.roster }
func (s *Session) Deck() *deck.Deck { return s.deck }

// Known reports whether a roster slot exists for id.
func (s *Session) Known(id string) bool {
	_, ok := s.roster.Get(id)
	return ok
}

// Empty reports whether the room can be disposed: nobody connected, or
// everyone known is waiting on a reconnection.
func (s *Session) Empty() bool {
	return len(s.clients) == 0 || s.roster.AllTimedOut()
}

// Join creates or reuses the roster slot for a new connection. The first
// player becomes host. A player joining mid-round while the czar seat is
// vacant takes it over; otherwise they sit out until dealt in.
func (s *Session) Join(id string) []Event {
	s.roster.Add(id)
	if !slices.Contains(s.clients, id) {
		s.clients = append(s.clients, id)
	}
	// Also reclaims hosting from a timed-out slot after everyone left.
	if s.host == "" || !slices.Contains(s.clients, s.host) {
		s.host = id
	}
	if s.round.Number > 0 && !s.czarConnected() {
		s.roster.SetStatus(id, StatusCzar)
		s.round.Czar = id
		s.czar = len(s.clients) - 1
		return []Event{{Type: EvtCzar, To: id}}
	}
	if s.round.Number > 0 && !s.dealt[id] {
		// Observer until dealt in; must not hold up the open round.
		s.roster.SetStatus(id, StatusPlayed)
	}
	return nil
}

// Leave marks the slot timed out and repairs the round around the hole:
// czar promotion, host reassignment, and a reveal re-check so a departed
// player can't hold up the reveal. The slot itself is kept for
// reconnection; the coordinator arms the grace deadline.
func (s *Session) Leave(id string) []Event {
	if !s.Known(id) {
		return nil
	}
	wasCzar := s.roster.Status(id) == StatusCzar
	s.removeClient(id)
	s.roster.SetStatus(id, StatusTimeout)
	if s.Empty() {
		return nil
	}

	var events []Event
	if wasCzar {
		events = append(events, s.nextCzar()...)
	}
	if id == s.host {
		s.host = s.clients[0]
	}
	events = append(events, s.revealIfDone()...)
	return events
}

// Expire drops a slot whose reconnection window has elapsed.
func (s *Session) Expire(id string) {
	if s.roster.Status(id) == StatusTimeout {
		s.roster.Remove(id)
	}
}

// Reconnect carries a timed-out slot's score and name over to the
// returning connection and clears the old slot. Returns false when there
// is nothing to reclaim; the reference ignores that silently.
func (s *Session) Reconnect(id, priorID string) bool {
	old, ok := s.roster.Get(priorID)
	cur, ok2 := s.roster.Get(id)
	if !ok || !ok2 || old.Status != StatusTimeout {
		return false
	}
	cur.Score = old.Score
	cur.Name = old.Name
	s.roster.Remove(priorID)
	return true
}

// SetName stores the display name. Introducing yourself while a round is
// open is the late-join signal: with the late-deal policy on, the player
// gets a catch-up hand and enters the round.
func (s *Session) SetName(id, name string) ([]Event, error) {
	p, ok := s.roster.Get(id)
	if !ok {
		return nil, nil
	}
	p.Name = name
	if s.round.Number > 0 && s.cfg.LateDeal && !s.dealt[id] {
		return s.dealOnce(id)
	}
	return nil, nil
}

// StartGame deals everyone a hand and opens the first round. Host only;
// a second start is ignored. Refuses to start when the response catalogue
// cannot cover a full deal for every connected player.
func (s *Session) StartGame(id string) ([]Event, error) {
	if id != s.host {
		return nil, ErrNotHost
	}
	if s.round.Number != 0 {
		return nil, nil
	}
	if s.deck.ResponseCount() < len(s.clients)*s.cfg.DealNumber {
		return nil, ErrNotEnoughCards
	}

	s.czar = -1
	var events []Event
	for _, cid := range s.clients {
		hand, err := s.deck.DrawResponses(s.cfg.DealNumber)
		if err != nil {
			return nil, ErrNotEnoughCards
		}
		s.dealt[cid] = true
		events = append(events, Event{Type: EvtDeal, To: cid, Hand: hand})
	}
	return append(events, s.startRound()...), nil
}

// PlayCard records a submission for the current call.
func (s *Session) PlayCard(id string, cards []int) ([]Event, error) {
	if s.round.Number == 0 {
		return nil, ErrNoRound
	}
	if s.roster.Status(id) != StatusPlaying {
		return nil, ErrAlreadyPlayed
	}
	if len(cards) != s.round.Arity {
		return nil, ErrWrongCardCount
	}

	s.round.Responses = append(s.round.Responses, Submission{
		CardIDs:  slices.Clone(cards),
		PlayedBy: id,
	})
	s.pending = append(s.pending, id)
	s.played[id] = len(cards)
	s.roster.SetStatus(id, StatusPlayed)

	events := []Event{{Type: EvtUpdate, AfterPatch: true}}
	return append(events, s.revealIfDone()...), nil
}

// PickCard resolves the round: the czar picks a submission index, the
// submitter scores, and either the game ends or the next round is
// scheduled after the cooldown.
func (s *Session) PickCard(id string, index int) ([]Event, error) {
	if s.roster.Status(id) != StatusCzar {
		return nil, ErrNotCzar
	}
	if !s.round.Reveal {
		return nil, ErrNotRevealed
	}
	if index < 0 || index >= len(s.round.Responses) {
		return nil, ErrBadIndex
	}

	picked := &s.round.Responses[index]
	picked.Winner = true
	score := s.roster.AwardPoint(picked.PlayedBy)
	s.roster.SetStatus(id, StatusPlayed)

	events := []Event{{Type: EvtWinner, CardIndex: index}}
	if score > s.cfg.WinLimit {
		s.over = true
		return append(events, Event{Type: EvtOver, Winner: picked.PlayedBy}), nil
	}

	events = append(events, s.givePending()...)
	events = append(events, Event{
		Type: EvtChat, Sender: "Server", Text: "Next round starting in 4...",
	})
	return append(events, Event{Type: EvtScheduleRound}), nil
}

// AdvanceRound is the cooldown timer's entry point.
func (s *Session) AdvanceRound() []Event {
	if s.over || len(s.clients) == 0 {
		return nil
	}
	return s.startRound()
}

// Debug handles the developer commands the reference exposes: forcing the
// next round and stopping the room.
func (s *Session) Debug(id, cmd string) ([]Event, error) {
	switch cmd {
	case "newRound":
		events := s.givePending()
		return append(events, s.startRound()...), nil
	case "stop":
		s.over = true
		return []Event{{Type: EvtRestart}}, nil
	}
	return nil, nil
}

func (s *Session) startRound() []Event {
	for _, p := range s.roster.players {
		if p.Status != StatusTimeout {
			p.Status = StatusPlaying
		}
	}
	s.round = Round{Number: s.round.Number + 1}
	s.pending = nil
	s.played = make(map[string]int)

	// Anyone who sat the last round out without a hand gets dealt in now.
	var events []Event
	for _, cid := range s.clients {
		if s.dealt[cid] {
			continue
		}
		hand, err := s.deck.DrawResponses(s.cfg.DealNumber)
		if err != nil {
			continue
		}
		s.dealt[cid] = true
		events = append(events, Event{Type: EvtDealPatch, To: cid, Hand: hand})
	}

	events = append(events, Event{Type: EvtNewRound, AfterPatch: true})
	events = append(events, s.nextCzar()...)

	id, arity, err := s.deck.DrawCall()
	if err != nil {
		// Unreachable for validated decks; creation requires calls.
		return events
	}
	s.round.CallID = id
	s.round.Arity = arity
	return append(events, Event{Type: EvtUpdate, AfterPatch: true})
}

// nextCzar advances the cursor over the connected-client list, wrapping.
// removeClient keeps the cursor aligned when the list shrinks, so the
// advance always lands on the player after the previous czar's seat.
func (s *Session) nextCzar() []Event {
	if len(s.clients) == 0 {
		return nil
	}
	s.czar++
	if s.czar >= len(s.clients) {
		s.czar = 0
	}
	id := s.clients[s.czar]
	s.roster.SetStatus(id, StatusCzar)
	s.round.Czar = id
	return []Event{{Type: EvtCzar, To: id}}
}

func (s *Session) revealIfDone() []Event {
	if s.round.Number == 0 || s.round.Reveal || !s.roster.AllDone() {
		return nil
	}
	shuffleSubmissions(s.round.Responses)
	s.round.Reveal = true
	return []Event{{Type: EvtReveal, AfterPatch: true}}
}

// givePending replaces the cards each submitter spent this round, one
// giveCard per card so multi-blank plays are refilled in full.
func (s *Session) givePending() []Event {
	var events []Event
	for _, pid := range s.pending {
		if s.roster.Status(pid) == StatusTimeout {
			continue
		}
		for i := 0; i < s.played[pid]; i++ {
			card, err := s.deck.DrawResponses(1)
			if err != nil {
				continue
			}
			events = append(events, Event{Type: EvtGiveCard, To: pid, Hand: card})
		}
	}
	s.pending = nil
	return events
}

func (s *Session) dealOnce(id string) ([]Event, error) {
	hand, err := s.deck.DrawResponses(s.cfg.DealNumber)
	if err != nil {
		return nil, ErrNotEnoughCards
	}
	s.dealt[id] = true
	s.roster.SetStatus(id, StatusPlaying)
	return []Event{{Type: EvtDealPatch, To: id, Hand: hand}}, nil
}

func (s *Session) czarConnected() bool {
	for _, cid := range s.clients {
		if s.roster.Status(cid) == StatusCzar {
			return true
		}
	}
	return false
}

func (s *Session) removeClient(id string) {
	i := slices.Index(s.clients, id)
	if i < 0 {
		return
	}
	s.clients = slices.Delete(s.clients, i, i+1)
	if i <= s.czar {
		s.czar--
	}
}
