package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/daem-on/snazzy/internal/game"
	"github.com/daem-on/snazzy/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code    string
	Options room.Options
	Session *game.Session
	Reply   chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type ListRooms struct {
	Title string // empty matches every room
	Reply chan []*room.Room
}

// RoomClosed is posted by a room's onClose hook; card rooms dispose
// themselves on game over or abandonment.
type RoomClosed struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (ListRooms) isHubMsg()   {}
func (RoomClosed) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the registry actor: one per process, owning the code → room map.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := room.New(h.ctx, msg.Code, msg.Options, msg.Session, h.log,
					func(code string) {
						select {
						case h.inbox <- RoomClosed{Code: code}:
						case <-h.ctx.Done():
						}
					})
				h.rooms[msg.Code] = rm
				h.log.Info("room created", zap.String("room", msg.Code),
					zap.String("title", msg.Options.Title))
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case ListRooms:
				var out []*room.Room
				for _, rm := range h.rooms {
					if msg.Title == "" || rm.Title() == msg.Title {
						out = append(out, rm)
					}
				}
				msg.Reply <- out

			case RoomClosed:
				h.log.Info("room closed", zap.String("room", msg.Code))
				delete(h.rooms, msg.Code)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
