package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Client represents a connected WebSocket client watching one board
type Client struct {
	Hub         *Hub
	Conn        *websocket.Conn
	Send        chan []byte
	Email       string // User identifier
	WorkspaceID string
	BoardID     string
}

// BoardMessage carries the authoritative board to watching clients after a
// mutation. Data is the complete board document, never a diff.
type BoardMessage struct {
	Type        string `json:"type"`
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	Data        any    `json:"data"`
}

// ReadPump pumps control messages from the WebSocket connection. Mutations
// arrive over REST, not the socket, so inbound payloads are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type boardBroadcast struct {
	workspaceID string
	boardID     string
	payload     []byte
}

// Hub maintains the set of active clients and fans board updates out to
// everyone watching the mutated board
type Hub struct {
	Clients    map[*Client]bool
	broadcast  chan boardBroadcast
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan boardBroadcast),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Clients:    make(map[*Client]bool),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastBoard sends the full board to every client watching it, the
// mutating user included, so all views converge on the same server state.
func (h *Hub) BroadcastBoard(workspaceID, boardID string, board any) {
	message := BoardMessage{
		Type:        "board",
		WorkspaceID: workspaceID,
		BoardID:     boardID,
		Data:        board,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshalling board message: %v", err)
		return
	}

	h.broadcast <- boardBroadcast{workspaceID: workspaceID, boardID: boardID, payload: payload}
}

// BroadcastBoardDeleted tells every watcher of a deleted board that it is
// gone, so they drop their local tree instead of keeping a stale one.
func (h *Hub) BroadcastBoardDeleted(workspaceID, boardID string) {
	message := BoardMessage{
		Type:        "deleted",
		WorkspaceID: workspaceID,
		BoardID:     boardID,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshalling board message: %v", err)
		return
	}

	h.broadcast <- boardBroadcast{workspaceID: workspaceID, boardID: boardID, payload: payload}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.Clients[client] = true
			log.Printf("Client connected: %s (board %s)", client.Email, client.BoardID)
		case client := <-h.unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				log.Printf("Client disconnected: %s", client.Email)
			}
		case msg := <-h.broadcast:
			for client := range h.Clients {
				if client.WorkspaceID != msg.workspaceID || client.BoardID != msg.boardID {
					continue
				}
				select {
				case client.Send <- msg.payload:
					// Message sent successfully
				default:
					// Client's send buffer is full, assume disconnected
					log.Printf("Client send buffer full, removing client: %s", client.Email)
					close(client.Send)
					delete(h.Clients, client)
				}
			}
		}
	}
}
