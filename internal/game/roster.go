package game

type Status string

const (
	StatusPlaying Status = "playing"
	StatusPlayed  Status = "played"
	StatusCzar    Status = "czar"
	StatusTimeout Status = "timeout"
)

type Player struct {
	Name   string
	Score  int
	Status Status
}

// Roster tracks every known player slot, including timed-out slots kept
// around for reconnection. Join order is preserved for host selection.
type Roster struct {
	players map[string]*Player
	order   []string
}

func NewRoster() *Roster {
	return &Roster{players: make(map[string]*Player)}
}

// Add inserts a new slot with default status. Re-adding an existing id is
// a no-op so a reconnecting client never duplicates its slot.
func (r *Roster) Add(id string) {
	if _, ok := r.players[id]; ok {
		return
	}
	r.players[id] = &Player{Status: StatusPlaying}
	r.order = append(r.order, id)
}

func (r *Roster) Remove(id string) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Roster) Status(id string) Status {
	if p, ok := r.players[id]; ok {
		return p.Status
	}
	return ""
}

func (r *Roster) SetStatus(id string, s Status) {
	if p, ok := r.players[id]; ok {
		p.Status = s
	}
}

// AwardPoint increments a player's score and returns the new value so the
// caller can compare it against the win limit.
func (r *Roster) AwardPoint(id string) int {
	p, ok := r.players[id]
	if !ok {
		return 0
	}
	p.Score++
	return p.Score
}

// AllDone reports whether no one is still expected to submit: every
// non-timeout slot has a status other than playing. The czar and
// timed-out players never block this.
func (r *Roster) AllDone() bool {
	for _, p := range r.players {
		if p.Status == StatusPlaying {
			return false
		}
	}
	return true
}

func (r *Roster) Len() int { return len(r.players) }

// AllTimedOut reports whether every known slot is waiting on a
// reconnection.
func (r *Roster) AllTimedOut() bool {
	for _, p := range r.players {
		if p.Status != StatusTimeout {
			return false
		}
	}
	return true
}
