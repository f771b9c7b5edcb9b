package game

type EventType string

const (
	EvtDeal      EventType = "deal"
	EvtDealPatch EventType = "dealPatch"
	EvtGiveCard  EventType = "giveCard"
	EvtCzar      EventType = "czar"
	EvtNewRound  EventType = "newRound"
	EvtUpdate    EventType = "update"
	EvtReveal    EventType = "reveal"
	EvtWinner    EventType = "winner"
	EvtOver      EventType = "over"
	EvtRestart   EventType = "restart"
	EvtChat      EventType = "chat"

	// EvtScheduleRound asks the coordinator to arm the round cooldown
	// timer; nothing is sent to clients.
	EvtScheduleRound EventType = "scheduleRound"
)

// Event is an outbound effect of applying a command. The coordinator
// executes events in order: To targets one client, Except excludes one
// from a broadcast, and AfterPatch events must not be delivered before
// clients hold a state snapshot at least as new as the mutation that
// produced them.
type Event struct {
	Type       EventType
	To         string
	Except     string
	AfterPatch bool

	Hand      []int
	CardIndex int
	Winner    string
	Sender    string
	Text      string
}
