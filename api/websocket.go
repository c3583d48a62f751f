package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WebSocket configuration
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// readLimit bounds a connected client's pong/close frames; the
	// stream itself is server-to-client only, so this only needs to be
	// large enough for control frames, not event payloads.
	readLimit = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin"))
	},
}

// WebSocketClient streams broadcast events to one connected dashboard.
// The protocol is one-directional: the client's subscription is fixed
// by its connection query parameters and cannot be changed afterward.
type WebSocketClient struct {
	conn         *websocket.Conn
	send         chan BroadcastEvent
	subscription *Subscription
	broadcaster  *Broadcaster
}

// handleWebSocket upgrades the connection and subscribes it to events,
// filtered by the optional "runId" and "events" query parameters
// (runId defaults to all runs, events defaults to all event types).
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	runID := r.URL.Query().Get("runId")
	var eventTypes []EventType
	if raw := r.URL.Query().Get("events"); raw != "" {
		for _, et := range strings.Split(raw, ",") {
			eventTypes = append(eventTypes, EventType(et))
		}
	}

	client := &WebSocketClient{
		conn:         conn,
		send:         make(chan BroadcastEvent, 256),
		broadcaster:  s.broadcaster,
		subscription: s.broadcaster.Subscribe(runID, eventTypes),
	}

	go client.writePump()
	go client.forwardEvents()
	client.readPump()
}

// readPump keeps the read deadline alive via pong frames and blocks
// until the client disconnects. It discards any data frames since
// clients never send subscription changes over this connection.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.cleanup()
		if err := c.conn.Close(); err != nil {
			log.Printf("WebSocket close error: %v", err)
		}
	}()

	c.conn.SetReadLimit(readLimit)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("SetReadDeadline error: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump sends events to the WebSocket client
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			log.Printf("WebSocket close error: %v", err)
		}
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("SetWriteDeadline error: %v", err)
				return
			}
			if !ok {
				// Channel closed
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					log.Printf("WriteMessage error: %v", err)
				}
				return
			}

			// Send event as JSON
			if err := c.conn.WriteJSON(event); err != nil {
				log.Printf("WriteJSON error: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("SetWriteDeadline error: %v", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// forwardEvents relays events from the subscription to the client's
// send channel until the broadcaster closes it.
func (c *WebSocketClient) forwardEvents() {
	for event := range c.subscription.Channel {
		select {
		case c.send <- event:
		default:
			// Client is too slow, skip this event.
		}
	}
}

// cleanup unsubscribes the client's fixed subscription, which in turn
// closes its channel and ends forwardEvents.
func (c *WebSocketClient) cleanup() {
	c.broadcaster.Unsubscribe(c.subscription)
}
