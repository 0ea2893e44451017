package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-tutoring-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "chat_cluster_events"

// Hub routes chat lifecycle payloads to the owning user's live connections.
// A user may hold several connections (multi-device).
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// rdb is optional; when set, payloads fan out to other instances.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToCluster()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers an already-serialized event payload to every connection the
// user holds, locally and across instances when redis is configured.
func (h *Hub) Send(userID uuid.UUID, payload []byte) {
	h.sendLocal(userID, payload)

	if h.rdb != nil {
		wrapped, _ := json.Marshal(map[string]interface{}{
			"target_user_id": userID.String(),
			"message":        json.RawMessage(payload),
		})
		h.rdb.Publish(context.Background(), clusterChannel, wrapped)
	}
}

func (h *Hub) sendLocal(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- payload:
		default:
			// The unregister path owns closing client.Send.
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToCluster() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}
		h.sendLocal(uid, payload.Message)
	}
}
