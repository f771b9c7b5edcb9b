package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daem-on/snazzy/internal/deck"
)

func testArities(n, blanks int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = blanks
	}
	return a
}

// newStarted builds a session with n joined players p0..p(n-1), started by
// the host p0. The first czar is p0.
func newStarted(t *testing.T, n int) (*Session, []string) {
	t.Helper()
	s := NewSession(deck.New(testArities(141, 1), 330), Config{
		DealNumber: 7, WinLimit: 5, LateDeal: true,
	})
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("p%d", i)
		s.Join(ids[i])
	}
	events, err := s.StartGame("p0")
	require.NoError(t, err)
	deals := 0
	for _, ev := range events {
		if ev.Type == EvtDeal {
			deals++
			assert.Len(t, ev.Hand, 7)
		}
	}
	assert.Equal(t, n, deals)
	return s, ids
}

func containsEvent(events []Event, et EventType) bool {
	for _, ev := range events {
		if ev.Type == et {
			return true
		}
	}
	return false
}

func currentCzar(s *Session) string {
	return s.round.Czar
}

func TestStartGameOnlyHostOnlyOnce(t *testing.T) {
	s := NewSession(deck.New(testArities(10, 1), 100), Config{DealNumber: 7, WinLimit: 5})
	s.Join("a")
	s.Join("b")

	_, err := s.StartGame("b")
	assert.ErrorIs(t, err, ErrNotHost)
	assert.Equal(t, 0, s.RoundNumber())

	events, err := s.StartGame("a")
	require.NoError(t, err)
	assert.Equal(t, 1, s.RoundNumber())
	assert.True(t, containsEvent(events, EvtNewRound))

	// a second start is silently ignored
	events, err = s.StartGame("a")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 1, s.RoundNumber())
}

func TestStartGameRefusesShortCatalogue(t *testing.T) {
	// 10 responses, 3 players at 7 cards each needs 21
	s := NewSession(deck.New(testArities(10, 1), 10), Config{DealNumber: 7, WinLimit: 5})
	s.Join("a")
	s.Join("b")
	s.Join("c")

	_, err := s.StartGame("a")
	assert.ErrorIs(t, err, ErrNotEnoughCards)
	assert.Equal(t, 0, s.RoundNumber())
}

func TestFullRoundScenario(t *testing.T) {
	s, _ := newStarted(t, 3)

	assert.Equal(t, "p0", currentCzar(s))
	assert.Equal(t, StatusCzar, s.roster.Status("p0"))
	assert.Equal(t, 1, s.round.Arity)

	// the czar cannot submit
	_, err := s.PlayCard("p0", []int{1})
	assert.ErrorIs(t, err, ErrAlreadyPlayed)

	// picking before the reveal is rejected
	_, err = s.PickCard("p0", 0)
	assert.ErrorIs(t, err, ErrNotRevealed)

	events, err := s.PlayCard("p1", []int{11})
	require.NoError(t, err)
	assert.False(t, containsEvent(events, EvtReveal), "reveal with p2 still playing")

	// no double submissions
	_, err = s.PlayCard("p1", []int{12})
	assert.ErrorIs(t, err, ErrAlreadyPlayed)

	events, err = s.PlayCard("p2", []int{13})
	require.NoError(t, err)
	assert.True(t, containsEvent(events, EvtReveal), "last submission reveals")
	assert.True(t, s.round.Reveal)

	// a non-czar cannot pick
	_, err = s.PickCard("p1", 0)
	assert.ErrorIs(t, err, ErrNotCzar)

	// out-of-range picks change nothing
	_, err = s.PickCard("p0", 2)
	assert.ErrorIs(t, err, ErrBadIndex)
	_, err = s.PickCard("p0", -1)
	assert.ErrorIs(t, err, ErrBadIndex)
	assert.False(t, s.round.Responses[0].Winner)
	assert.False(t, s.round.Responses[1].Winner)

	events, err = s.PickCard("p0", 0)
	require.NoError(t, err)
	winner := s.round.Responses[0].PlayedBy
	assert.True(t, s.round.Responses[0].Winner)
	p, _ := s.roster.Get(winner)
	assert.Equal(t, 1, p.Score)
	assert.True(t, containsEvent(events, EvtWinner))
	assert.True(t, containsEvent(events, EvtScheduleRound))

	// both submitters get their card replaced
	gives := 0
	for _, ev := range events {
		if ev.Type == EvtGiveCard {
			gives++
			assert.Len(t, ev.Hand, 1)
		}
	}
	assert.Equal(t, 2, gives)

	// cooldown fires; a fresh round with the next czar
	events = s.AdvanceRound()
	assert.True(t, containsEvent(events, EvtNewRound))
	assert.Equal(t, 2, s.round.Number)
	assert.Equal(t, "p1", currentCzar(s))
	assert.False(t, s.round.Reveal)
	assert.Empty(t, s.round.Responses)
}

func TestPlayCardWrongArity(t *testing.T) {
	s := NewSession(deck.New(testArities(5, 2), 100), Config{DealNumber: 7, WinLimit: 5})
	s.Join("a")
	s.Join("b")
	_, err := s.StartGame("a")
	require.NoError(t, err)

	_, err = s.PlayCard("b", []int{1})
	assert.ErrorIs(t, err, ErrWrongCardCount)

	events, err := s.PlayCard("b", []int{1, 2})
	require.NoError(t, err)
	assert.True(t, containsEvent(events, EvtReveal))
}

func TestPlayCardBeforeStart(t *testing.T) {
	s := NewSession(deck.New(testArities(5, 1), 100), Config{DealNumber: 7, WinLimit: 5})
	s.Join("a")
	_, err := s.PlayCard("a", []int{1})
	assert.ErrorIs(t, err, ErrNoRound)
}

func TestCzarRotationVisitsEverySlot(t *testing.T) {
	s, ids := newStarted(t, 4)

	seen := make(map[string]bool)
	for i := 0; i < len(ids); i++ {
		czar := currentCzar(s)
		seen[czar] = true
		for _, id := range ids {
			if id != czar {
				_, err := s.PlayCard(id, []int{1})
				require.NoError(t, err)
			}
		}
		_, err := s.PickCard(czar, 0)
		require.NoError(t, err)
		s.AdvanceRound()
	}
	assert.Len(t, seen, len(ids), "every slot visited before repeating")
}

func TestWinLimitEndsGameExactlyOnce(t *testing.T) {
	s, ids := newStarted(t, 3)

	target := "p1"
	var over bool
	for round := 0; round < 30 && !over; round++ {
		czar := currentCzar(s)
		for _, id := range ids {
			if id != czar {
				_, err := s.PlayCard(id, []int{1})
				require.NoError(t, err)
			}
		}
		// pick the target's card whenever the target played this round
		pick := 0
		for i, sub := range s.round.Responses {
			if sub.PlayedBy == target {
				pick = i
				break
			}
		}
		events, err := s.PickCard(czar, pick)
		require.NoError(t, err)
		if containsEvent(events, EvtOver) {
			over = true
			for _, ev := range events {
				if ev.Type == EvtOver {
					assert.Equal(t, target, ev.Winner)
				}
			}
			break
		}
		s.AdvanceRound()
	}

	require.True(t, over)
	assert.True(t, s.Over())
	p, _ := s.roster.Get(target)
	assert.Greater(t, p.Score, 5)

	// terminal: no further round transitions
	n := s.RoundNumber()
	assert.Empty(t, s.AdvanceRound())
	assert.Equal(t, n, s.RoundNumber())
}

func TestLeaveMarksTimeoutAndUnblocksReveal(t *testing.T) {
	s, _ := newStarted(t, 3)

	// p1 plays, p2 disconnects without playing
	_, err := s.PlayCard("p1", []int{1})
	require.NoError(t, err)

	events := s.Leave("p2")
	assert.Equal(t, StatusTimeout, s.roster.Status("p2"))
	assert.True(t, containsEvent(events, EvtReveal),
		"a departed player must not block the reveal")
}

func TestCzarLeaveMidRoundPromotesNext(t *testing.T) {
	s, _ := newStarted(t, 3)
	require.Equal(t, "p0", currentCzar(s))

	_, err := s.PlayCard("p1", []int{1})
	require.NoError(t, err)

	events := s.Leave("p0")
	assert.Equal(t, "p1", currentCzar(s))
	assert.True(t, containsEvent(events, EvtCzar))
	// p1's in-flight submission is preserved
	assert.Len(t, s.round.Responses, 1)
	// host moved to the earliest remaining player
	assert.Equal(t, "p1", s.Host())
}

func TestHostReassignedOnDeparture(t *testing.T) {
	s := NewSession(deck.New(testArities(5, 1), 100), Config{DealNumber: 7, WinLimit: 5})
	s.Join("a")
	s.Join("b")
	s.Join("c")
	require.Equal(t, "a", s.Host())

	s.Leave("a")
	assert.Equal(t, "b", s.Host())
}

func TestReconnectCarriesSlotOver(t *testing.T) {
	s, _ := newStarted(t, 3)
	_, err := s.SetName("p1", "alice")
	require.NoError(t, err)
	s.roster.AwardPoint("p1")
	s.roster.AwardPoint("p1")

	s.Leave("p1")
	require.Equal(t, StatusTimeout, s.roster.Status("p1"))

	s.Join("p9")
	require.True(t, s.Reconnect("p9", "p1"))

	p, ok := s.roster.Get("p9")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Name)
	assert.Equal(t, 2, p.Score)
	// the old slot is cleared, no duplicate roster entry
	assert.False(t, s.Known("p1"))
	assert.Equal(t, 3, s.roster.Len())

	// reconnecting again finds nothing to reclaim
	assert.False(t, s.Reconnect("p9", "p1"))
}

func TestReconnectIgnoresConnectedSlot(t *testing.T) {
	s, _ := newStarted(t, 3)
	s.Join("p9")
	assert.False(t, s.Reconnect("p9", "p1"), "p1 never timed out")
	assert.True(t, s.Known("p1"))
}

func TestLateJoinDealtOnName(t *testing.T) {
	s, _ := newStarted(t, 3)

	s.Join("late")
	// the observer does not block the open round
	assert.Equal(t, StatusPlayed, s.roster.Status("late"))

	events, err := s.SetName("late", "dave")
	require.NoError(t, err)
	var patch *Event
	for i, ev := range events {
		if ev.Type == EvtDealPatch {
			patch = &events[i]
		}
	}
	require.NotNil(t, patch, "late joiner gets a catch-up hand")
	assert.Equal(t, "late", patch.To)
	assert.Len(t, patch.Hand, 7)
	assert.Equal(t, StatusPlaying, s.roster.Status("late"))

	// renaming later never re-deals
	events, err = s.SetName("late", "david")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLateJoinObserverPolicy(t *testing.T) {
	s := NewSession(deck.New(testArities(141, 1), 330), Config{
		DealNumber: 7, WinLimit: 5, LateDeal: false,
	})
	for _, id := range []string{"a", "b", "c"} {
		s.Join(id)
	}
	_, err := s.StartGame("a")
	require.NoError(t, err)

	s.Join("late")
	events, err := s.SetName("late", "dave")
	require.NoError(t, err)
	assert.Empty(t, events, "observer policy deals nothing mid-round")
	assert.Equal(t, StatusPlayed, s.roster.Status("late"))

	// the observer participates from the next round on
	for _, id := range []string{"b", "c"} {
		_, err := s.PlayCard(id, []int{1})
		require.NoError(t, err)
	}
	_, err = s.PickCard("a", 0)
	require.NoError(t, err)
	events = s.AdvanceRound()
	assert.True(t, containsEvent(events, EvtDealPatch), "dealt in at the round boundary")
	assert.Equal(t, StatusPlaying, s.roster.Status("late"))
}

func TestJoinMidRoundTakesVacantCzarSeat(t *testing.T) {
	s := NewSession(deck.New(testArities(10, 1), 100), Config{DealNumber: 7, WinLimit: 5})
	s.Join("a")
	s.Join("b")
	_, err := s.StartGame("a")
	require.NoError(t, err)
	require.Equal(t, "a", currentCzar(s))

	// czar leaves, the only other player is promoted
	s.Leave("a")
	require.Equal(t, "b", currentCzar(s))

	// b leaves too; the round keeps its prompt, the seat is vacant
	s.Leave("b")
	require.True(t, s.Empty())

	events := s.Join("c")
	assert.True(t, containsEvent(events, EvtCzar))
	assert.Equal(t, "c", currentCzar(s))
	assert.Equal(t, "c", s.Host(), "hosting reclaimed from the timed-out slot")
}

func TestDebugCommands(t *testing.T) {
	s, _ := newStarted(t, 3)

	events, err := s.Debug("p1", "newRound")
	require.NoError(t, err)
	assert.True(t, containsEvent(events, EvtNewRound))
	assert.Equal(t, 2, s.RoundNumber())

	events, err = s.Debug("p1", "stop")
	require.NoError(t, err)
	assert.True(t, containsEvent(events, EvtRestart))
	assert.True(t, s.Over())
}

func TestRevealHappensOncePerRound(t *testing.T) {
	s, _ := newStarted(t, 3)

	for _, id := range []string{"p1", "p2"} {
		_, err := s.PlayCard(id, []int{1})
		require.NoError(t, err)
	}
	require.True(t, s.round.Reveal)

	// a leave after the reveal must not re-reveal or re-shuffle
	events := s.Leave("p2")
	assert.False(t, containsEvent(events, EvtReveal))
}

func TestSnapshotHidesAuthorshipUntilReveal(t *testing.T) {
	s, _ := newStarted(t, 3)

	_, err := s.PlayCard("p1", []int{1})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Responses, 1)
	assert.Empty(t, snap.Responses[0].PlayedBy, "authorship hidden before reveal")

	_, err = s.PlayCard("p2", []int{2})
	require.NoError(t, err)

	snap = s.Snapshot()
	require.True(t, snap.Reveal)
	for _, sub := range snap.Responses {
		assert.NotEmpty(t, sub.PlayedBy)
	}
}
