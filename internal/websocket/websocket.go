package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// VoteReader is what the hub needs to greet a subscriber with the current status
type VoteReader interface {
	GetVote(ctx context.Context, id uuid.UUID) (*models.Vote, error)
}

// envelope is a message addressed to the subscribers of one vote
type envelope struct {
	voteID uuid.UUID
	msg    models.WSMessage
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	votes      VoteReader
}

// Client is a middleman between the websocket connection and the hub.
// A client with a nil voteID receives events for every vote.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan models.WSMessage
	voteID uuid.UUID
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, votes VoteReader) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		votes:      votes,
	}
}

var _ services.Broadcaster = (*Hub)(nil)

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("Client connected", "vote_id", client.voteID, "total_clients", len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", len(h.clients))

		case env := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if client.voteID != uuid.Nil && client.voteID != env.voteID {
					continue
				}
				select {
				case client.send <- env.msg:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// BroadcastMessage sends a message to the subscribers of a vote
func (h *Hub) BroadcastMessage(voteID uuid.UUID, msgType string, payload interface{}) {
	h.broadcast <- envelope{
		voteID: voteID,
		msg:    models.WSMessage{Type: msgType, Payload: payload},
	}
}

// BroadcastVoteStatus implements services.Broadcaster
func (h *Hub) BroadcastVoteStatus(vote *models.Vote) {
	h.BroadcastMessage(vote.ID, models.WSVoteStatus, statusPayload(vote))
}

// BroadcastParticipation implements services.Broadcaster
func (h *Hub) BroadcastParticipation(voteID uuid.UUID, participation, eligible int) {
	h.BroadcastMessage(voteID, models.WSParticipation, map[string]interface{}{
		"vote_id":             voteID,
		"participation_count": participation,
		"eligible_count":      eligible,
	})
}

// BroadcastResults implements services.Broadcaster
func (h *Hub) BroadcastResults(results *models.Results) {
	h.BroadcastMessage(results.VoteID, models.WSResults, results)
}

func statusPayload(vote *models.Vote) map[string]interface{} {
	return map[string]interface{}{
		"vote_id":             vote.ID,
		"status":              vote.Status,
		"end_at":              vote.EndAt,
		"participation_count": vote.ParticipationCount,
		"eligible_count":      vote.EligibleTotal(),
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// The feed is one-way; client messages are only logged
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from clients. The optional vote_id
// query parameter narrows the feed to one vote, whose current status is sent
// first.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	var voteID uuid.UUID
	if raw := r.URL.Query().Get("vote_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid vote_id", http.StatusBadRequest)
			return
		}
		voteID = id
	}

	var greeting *models.WSMessage
	if voteID != uuid.Nil && h.votes != nil {
		vote, err := h.votes.GetVote(r.Context(), voteID)
		if err != nil {
			http.Error(w, "vote not found", http.StatusNotFound)
			return
		}
		greeting = &models.WSMessage{Type: models.WSVoteStatus, Payload: statusPayload(vote)}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan models.WSMessage, 256),
		voteID: voteID,
	}
	if greeting != nil {
		client.send <- *greeting
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
