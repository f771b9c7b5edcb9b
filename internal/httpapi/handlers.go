package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/daem-on/snazzy/internal/deck"
	"github.com/daem-on/snazzy/internal/game"
	"github.com/daem-on/snazzy/internal/hub"
	"github.com/daem-on/snazzy/internal/room"
)

var deckClient = &http.Client{Timeout: 10 * time.Second}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createRequest struct {
	Title      string `json:"title"`
	Deck       string `json:"deck"`
	DealNumber int    `json:"dealNumber"`
	WinLimit   int    `json:"winLimit"`
	LateDeal   *bool  `json:"lateDeal"`
}

// CreateRoom fetches and validates the deck document, then registers a
// fresh room. A fetch or validation failure aborts creation; nothing is
// retried.
func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		if req.Deck == "" {
			http.Error(w, "missing deck url", http.StatusBadRequest)
			return
		}
		if _, err := url.ParseRequestURI(req.Deck); err != nil {
			http.Error(w, "invalid deck url", http.StatusBadRequest)
			return
		}

		def, err := deck.Fetch(r.Context(), deckClient, req.Deck)
		if err != nil {
			log.Error("deck rejected", zap.String("deck", req.Deck), zap.Error(err))
			http.Error(w, "deck unavailable or invalid", http.StatusBadGateway)
			return
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *room.Room, 1)
			h.Inbox() <- hub.GetRoom{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Warn("collision on code, regenerating")
		}

		sess := game.NewSession(
			deck.New(def.Arities(), len(def.Responses)),
			game.Config{
				DeckURL:    req.Deck,
				DealNumber: req.DealNumber,
				WinLimit:   req.WinLimit,
				LateDeal:   req.LateDeal == nil || *req.LateDeal,
			})

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateRoom{
			Code:    code,
			Options: room.Options{Title: req.Title},
			Session: sess,
			Reply:   reply,
		}
		if <-reply == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

type roomInfo struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Players     int    `json:"players"`
	RoundNumber int    `json:"roundNumber"`
}

// ListRooms returns the open rooms, optionally filtered by title.
func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []*room.Room, 1)
		h.Inbox() <- hub.ListRooms{Title: r.URL.Query().Get("title"), Reply: reply}
		rooms := <-reply

		infos := make([]roomInfo, 0, len(rooms))
		for _, rm := range rooms {
			stateReply := make(chan room.View, 1)
			rm.Inbox() <- room.GetState{Reply: stateReply}
			select {
			case view := <-stateReply:
				infos = append(infos, roomInfo{
					Code:        rm.Code(),
					Title:       rm.Title(),
					Players:     view.NumClients,
					RoundNumber: view.State.RoundNumber,
				})
			case <-time.After(time.Second):
				// Room is tearing down; skip it.
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(infos)
	}
}

// JoinQR renders a QR code for the room's join link so a session can be
// shared across the table.
func JoinQR(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		joinURL := scheme + "://" + r.Host + "/?code=" + url.QueryEscape(code)

		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to encode qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
