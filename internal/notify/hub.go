package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// OutcomeMessage is the wire frame pushed to websocket subscribers when a
// draw finalizes.
type OutcomeMessage struct {
	Type     string            `json:"type"`
	Variant  model.GameVariant `json:"variant"`
	DrawDate string            `json:"draw_date"`
	DrawTime string            `json:"draw_time"`
	Session  int               `json:"session"`
	Outcome  engine.Outcome    `json:"outcome"`
	Summary  engine.Summary    `json:"summary"`
}

// Hub broadcasts finalized outcomes to connected websocket clients. All
// client-map access happens on the run goroutine.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan *OutcomeMessage
	done       chan struct{}
}

// NewHub creates the hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan *OutcomeMessage, 64),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// PublishOutcome queues the outcome for broadcast. Never blocks the draw
// pipeline: with the queue full the frame is dropped.
func (h *Hub) PublishOutcome(ctx context.Context, slot model.DrawSlot, outcome engine.Outcome, summary engine.Summary) {
	msg := &OutcomeMessage{
		Type:     "DRAW_OUTCOME",
		Variant:  slot.Variant,
		DrawDate: slot.DrawDate.Format("2006-01-02"),
		DrawTime: slot.DrawTime,
		Session:  slot.Session,
		Outcome:  outcome,
		Summary:  summary,
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Str("slot", slot.Key()).Msg("Websocket broadcast queue full, dropping outcome frame")
	}
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away. Inbound frames are read and discarded to detect
// disconnects.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade to websocket")
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}
	defer func() {
		// The run loop is gone after Close; don't hang the handler on it.
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("Websocket read error")
			}
			return
		}
	}
}

// Close stops the broadcast loop and drops all clients.
func (h *Hub) Close() {
	close(h.done)
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			log.Debug().Int("clients", len(h.clients)).Msg("Websocket client connected")

		case conn := <-h.unregister:
			delete(h.clients, conn)
			log.Debug().Int("clients", len(h.clients)).Msg("Websocket client disconnected")

		case msg := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}

		case <-h.done:
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			return
		}
	}
}
