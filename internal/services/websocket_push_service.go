package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"launchpad-backend/internal/metrics"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware in front of
	// the upgrade endpoint.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketPushService fans live launchpad events (mints, phase
// changes, supply updates) out to connected dashboard and mint page
// clients.
type WebSocketPushService struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// PushMessage is the wire envelope for all pushed events.
type PushMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// NewWebSocketPushService creates an empty hub.
func NewWebSocketPushService() *WebSocketPushService {
	return &WebSocketPushService{clients: make(map[*wsClient]struct{})}
}

// HandleUpgrade upgrades an HTTP request and registers the client.
func (s *WebSocketPushService) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [WebSocket] Upgrade failed: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}
	s.mu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	metrics.WebSocketClientsConnected.Set(float64(count))
	log.Printf("✅ [WebSocket] Client connected (%d total)", count)

	go s.writeLoop(client)
	go s.readLoop(client)
}

// Broadcast pushes one typed event to every connected client. Slow
// clients get dropped rather than blocking the rest.
func (s *WebSocketPushService) Broadcast(msgType string, data interface{}) {
	payload, err := json.Marshal(PushMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Printf("❌ [WebSocket] Failed to marshal %s event: %v", msgType, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- payload:
		default:
			log.Printf("⚠️ [WebSocket] Client send buffer full, dropping connection")
			go s.remove(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *WebSocketPushService) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *WebSocketPushService) writeLoop(client *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.remove(client)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(client)
				return
			}
		}
	}
}

func (s *WebSocketPushService) readLoop(client *wsClient) {
	defer s.remove(client)
	client.conn.SetReadLimit(1024)
	for {
		// Clients are listen-only; any read error ends the session.
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WebSocketPushService) remove(client *wsClient) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
	count := len(s.clients)
	s.mu.Unlock()
	metrics.WebSocketClientsConnected.Set(float64(count))
	client.conn.Close()
}
