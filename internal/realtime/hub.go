// Package realtime streams completed wallet assessments to WebSocket
// subscribers. Clients connect once and receive every assessment that
// matches their subscription instead of polling the assess endpoint.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
)

// MaxClients is the maximum number of concurrent WebSocket connections.
const MaxClients = 1000

// Connection timing. Pings go out at pingInterval; a pong must arrive
// within pongWait or the connection is dropped.
const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// normalCloseCodes are WebSocket close codes that indicate an expected disconnect.
var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// EventAssessment is the only event type currently broadcast.
const EventAssessment = "assessment"

// Event is the wire envelope pushed to clients.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AssessmentEvent is the per-assessment payload.
type AssessmentEvent struct {
	AssessmentID      string            `json:"assessment_id"`
	WalletAddress     string            `json:"wallet_address"`
	OverallRiskScore  float64           `json:"overall_risk_score"`
	RecommendedAction domain.RiskAction `json:"recommended_action"`
	TokenCount        int               `json:"token_count"`
	AtRiskCount       int               `json:"at_risk_count"`
}

// Subscription filters for one client. The zero value receives everything.
type Subscription struct {
	// WalletAddresses restricts events to the listed wallets when non-empty.
	WalletAddresses []string `json:"wallet_addresses"`
	// MinRiskScore drops assessments scoring below it.
	MinRiskScore float64 `json:"min_risk_score"`
}

// Client represents one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
	sub  Subscription
}

// Hub manages all WebSocket connections.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     zerolog.Logger
	done       chan struct{} // closed when Run exits; prevents upgrade race
	maxClients int
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
		maxClients: MaxClients,
	}
}

// Run starts the hub's main loop. Returns when ctx is cancelled, closing
// every client connection.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info().Msg("realtime hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send) // writePump sends CloseMessage on closed channel
				delete(h.clients, client)
			}
			h.mu.Unlock()
			observability.SetStreamClients(0)
			h.logger.Info().Msg("realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			observability.SetStreamClients(n)
			h.logger.Debug().Int("total", n).Msg("stream client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			observability.SetStreamClients(n)
			h.logger.Debug().Int("total", n).Msg("stream client disconnected")

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("serialize stream event")
				continue
			}
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.send <- payload:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			observability.RecordStreamBroadcast()

			// Slow clients are evicted rather than blocking the hub
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
						observability.RecordStreamSendFailure()
					}
				}
				n := len(h.clients)
				h.mu.Unlock()
				observability.SetStreamClients(n)
			}
		}
	}
}

// BroadcastAssessment queues an assessment for delivery to matching clients.
// Drops the event when the broadcast buffer is full.
func (h *Hub) BroadcastAssessment(a *domain.WalletRiskAssessment) {
	event := &Event{
		Type:      EventAssessment,
		Timestamp: time.Now().UTC(),
		Data: AssessmentEvent{
			AssessmentID:      a.AssessmentID,
			WalletAddress:     a.WalletAddress,
			OverallRiskScore:  a.OverallRiskScore,
			RecommendedAction: a.RecommendedAction,
			TokenCount:        a.TokenCount,
			AtRiskCount:       len(a.AtRiskTokens),
		},
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Msg("broadcast channel full, dropping event")
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// wants checks the event against the client's subscription.
func (c *Client) wants(event *Event) bool {
	data, ok := event.Data.(AssessmentEvent)
	if !ok {
		return true
	}

	c.mu.RLock()
	sub := c.sub
	c.mu.RUnlock()

	if len(sub.WalletAddresses) > 0 {
		matched := false
		for _, w := range sub.WalletAddresses {
			if w == data.WalletAddress {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return data.OverallRiskScore >= sub.MinRiskScore
}

// HandleWebSocket upgrades HTTP to WebSocket and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Reject upgrades after the hub has stopped to prevent orphaned connections
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads subscription updates from the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Debug().Err(err).Msg("websocket read error")
			}
			break
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.mu.Lock()
			c.sub = sub
			c.mu.Unlock()
		}
	}
}

// writePump writes events and pings to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
