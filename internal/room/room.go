package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/daem-on/snazzy/internal/game"
	"github.com/daem-on/snazzy/internal/types"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage // where this client wants to receive messages
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type FromClient struct {
	ClientID string
	Msg      types.ClientMessage
}

func (FromClient) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// timer callbacks post back into the inbox; the generation counter lets
// the loop drop fires armed before a newer timer superseded them.
type roundTimerFired struct{ gen int }

func (roundTimerFired) isRoomMsg() {}

type graceExpired struct {
	ClientID string
	gen      int
}

func (graceExpired) isRoomMsg() {}

// View reflects internal state for tests and the room listing without
// data races.
type View struct {
	Version      int
	NumClients   int
	GracePending int
	Title        string
	State        game.Snapshot
}

type Options struct {
	Title       string
	Cooldown    time.Duration // delay between winner pick and next round
	GraceWindow time.Duration // how long a timed-out slot waits for reconnection
}

// Room is the per-room coordinator: the only writer of its Session. All
// mutation happens on the loop goroutine, fed by the inbox; clients are
// outbox channels registered on join.
type Room struct {
	code  string
	title string

	inbox   chan Msg
	sess    *game.Session
	version int
	clients map[string]chan types.ServerMessage

	cooldown   time.Duration
	grace      time.Duration
	roundTimer *time.Timer
	timerGen   int
	graceTimer map[string]*time.Timer
	graceGen   map[string]int

	ctx      context.Context
	cancel   context.CancelFunc
	log      *zap.Logger
	onClose  func(code string)
	disposed bool
}

// New starts the room loop. onClose is called once, after teardown, so
// the registry can drop the room.
func New(parent context.Context, code string, opts Options, sess *game.Session, log *zap.Logger, onClose func(code string)) *Room {
	if opts.Cooldown == 0 {
		opts.Cooldown = 4 * time.Second
	}
	if opts.GraceWindow == 0 {
		opts.GraceWindow = 90 * time.Second
	}
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		code:       code,
		title:      opts.Title,
		inbox:      make(chan Msg, 64),
		sess:       sess,
		clients:    make(map[string]chan types.ServerMessage),
		cooldown:   opts.Cooldown,
		grace:      opts.GraceWindow,
		graceTimer: make(map[string]*time.Timer),
		graceGen:   make(map[string]int),
		ctx:        ctx,
		cancel:     cancel,
		log:        log.With(zap.String("room", code)),
		onClose:    onClose,
	}

	go r.loop()
	return r
}

// Inbox is where the transport layer and tests deliver messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string  { return r.code }
func (r *Room) Title() string { return r.title }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.dispose()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				r.handleLeave(msg.ClientID)

			case FromClient:
				r.handleClient(msg.ClientID, msg.Msg)

			case roundTimerFired:
				if msg.gen == r.timerGen {
					r.apply(r.sess.AdvanceRound())
				}

			case graceExpired:
				r.handleGraceExpired(msg.ClientID, msg.gen)

			case GetState:
				msg.Reply <- View{
					Version:      r.version,
					NumClients:   len(r.clients),
					GracePending: len(r.graceTimer),
					Title:        r.title,
					State:        r.sess.Snapshot(),
				}

			case Shutdown:
				r.dispose()
			}

			if r.disposed {
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	r.log.Info("client joined", zap.String("client", msg.ClientID))
	r.clients[msg.ClientID] = msg.Outbox
	events := r.sess.Join(msg.ClientID)

	// The client needs its own id before it can make sense of the roster.
	r.sendTo(msg.ClientID, types.ServerMessage{Type: "welcome", ID: msg.ClientID})
	r.apply(events)
}

func (r *Room) handleLeave(id string) {
	r.log.Info("client left", zap.String("client", id))
	delete(r.clients, id)
	events := r.sess.Leave(id)
	if r.sess.Known(id) {
		r.armGrace(id)
	}
	r.apply(events)
	if r.disposed {
		return
	}
	r.checkDispose()
}

func (r *Room) handleClient(id string, m types.ClientMessage) {
	switch m.Type {
	case "chat":
		// Relayed, never stored; everyone but the sender.
		r.broadcastExcept(id, types.ServerMessage{Type: "chat", Sender: id, Text: m.Text})
		return

	case "reconnect":
		if r.sess.Reconnect(id, m.Text) {
			r.log.Info("client reclaimed slot",
				zap.String("client", id), zap.String("prior", m.Text))
			r.cancelGrace(m.Text)
			r.broadcastSnapshot()
		}
		return
	}

	var events []game.Event
	var err error
	switch m.Type {
	case "playCard":
		events, err = r.sess.PlayCard(id, m.CardArray)
	case "pickCard":
		events, err = r.sess.PickCard(id, m.CardIndex)
	case "startGame":
		events, err = r.sess.StartGame(id)
	case "name":
		events, err = r.sess.SetName(id, m.Text)
	case "debug":
		events, err = r.sess.Debug(id, m.Cmd)
	default:
		r.sendTo(id, types.ServerMessage{Type: "error", Message: "Unknown message type."})
		return
	}

	if err != nil {
		// Protocol violation: tell the actor only, mutate nothing.
		r.log.Info("rejected", zap.String("client", id),
			zap.String("type", m.Type), zap.Error(err))
		r.sendTo(id, types.ServerMessage{Type: "error", Message: err.Error()})
		return
	}
	r.apply(events)
}

func (r *Room) handleGraceExpired(id string, gen int) {
	if gen != r.graceGen[id] {
		return
	}
	r.log.Info("reconnect window elapsed", zap.String("client", id))
	delete(r.graceTimer, id)
	delete(r.graceGen, id)
	r.sess.Expire(id)
	r.checkDispose()
	if !r.disposed {
		r.broadcastSnapshot()
	}
}

// apply executes a command's outbound events in order. Events flagged
// AfterPatch must reach clients only after a snapshot of the mutated
// state; since state is fully mutated before apply runs, publishing one
// snapshot before the first such event preserves the ordering. Every
// applied command ends with fresh replicated state either way.
func (r *Room) apply(events []game.Event) {
	snapped := false
	for _, ev := range events {
		if ev.AfterPatch && !snapped {
			r.broadcastSnapshot()
			snapped = true
		}
		switch ev.Type {
		case game.EvtDeal, game.EvtDealPatch, game.EvtGiveCard:
			r.sendTo(ev.To, types.ServerMessage{Type: string(ev.Type), Hand: ev.Hand})

		case game.EvtCzar:
			r.sendTo(ev.To, types.ServerMessage{Type: "czar"})

		case game.EvtNewRound, game.EvtUpdate, game.EvtReveal:
			r.broadcast(types.ServerMessage{Type: string(ev.Type)})

		case game.EvtWinner:
			idx := ev.CardIndex
			r.broadcast(types.ServerMessage{Type: "winner", CardIndex: &idx})

		case game.EvtChat:
			r.broadcast(types.ServerMessage{Type: "chat", Sender: ev.Sender, Text: ev.Text})

		case game.EvtOver:
			r.log.Info("game over", zap.String("winner", ev.Winner))
			r.broadcast(types.ServerMessage{Type: "over", Winner: ev.Winner})
			r.dispose()
			return

		case game.EvtRestart:
			r.broadcast(types.ServerMessage{Type: "restart"})
			r.dispose()
			return

		case game.EvtScheduleRound:
			r.armRoundTimer()
		}
	}
	if !snapped {
		r.broadcastSnapshot()
	}
}

func (r *Room) broadcastSnapshot() {
	r.version++
	snap := r.sess.Snapshot()
	r.broadcast(types.ServerMessage{Type: "state", Version: r.version, State: &snap})
}

func (r *Room) broadcast(msg types.ServerMessage) {
	r.broadcastExcept("", msg)
}

func (r *Room) broadcastExcept(except string, msg types.ServerMessage) {
	for id, ch := range r.clients {
		if id == except {
			continue
		}
		select {
		case ch <- msg:
		default:
			// Client is slow/full - drop them. Their reader will push a
			// Leave once the connection unwinds.
			close(ch)
			delete(r.clients, id)
		}
	}
}

func (r *Room) sendTo(id string, msg types.ServerMessage) {
	ch, ok := r.clients[id]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		close(ch)
		delete(r.clients, id)
	}
}

func (r *Room) armRoundTimer() {
	r.timerGen++
	gen := r.timerGen
	if r.roundTimer != nil {
		r.roundTimer.Stop()
	}
	r.roundTimer = time.AfterFunc(r.cooldown, func() {
		select {
		case r.inbox <- roundTimerFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) armGrace(id string) {
	r.graceGen[id]++
	gen := r.graceGen[id]
	if t, ok := r.graceTimer[id]; ok {
		t.Stop()
	}
	r.graceTimer[id] = time.AfterFunc(r.grace, func() {
		select {
		case r.inbox <- graceExpired{ClientID: id, gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) cancelGrace(id string) {
	if t, ok := r.graceTimer[id]; ok {
		t.Stop()
		delete(r.graceTimer, id)
		delete(r.graceGen, id)
	}
}

// checkDispose tears the room down once nobody is connected and no
// reconnect window is still open.
func (r *Room) checkDispose() {
	if r.sess.Empty() && len(r.graceTimer) == 0 {
		r.log.Info("room empty, disposing")
		r.dispose()
	}
}

func (r *Room) dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.roundTimer != nil {
		r.roundTimer.Stop()
	}
	for id, t := range r.graceTimer {
		t.Stop()
		delete(r.graceTimer, id)
	}
	for id, ch := range r.clients {
		close(ch) // Tell client no more messages
		delete(r.clients, id)
	}
	r.cancel()
	if r.onClose != nil {
		r.onClose(r.code)
	}
}
