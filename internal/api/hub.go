package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dshills/pedald/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is a local monitoring endpoint.
	CheckOrigin: func(*http.Request) bool { return true },
}

// feedMessage is one entry on the websocket feed. Fields are set per
// Type: "button_event" carries Button, Kind and Time; "execution"
// carries Stage, Dispatch and the optional Token, Error and Duration.
type feedMessage struct {
	Type     string `json:"type"`
	Button   string `json:"button,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Time     string `json:"time,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Dispatch string `json:"dispatch,omitempty"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// hub fans feed messages out to the connected websocket clients. A
// client that cannot keep up with the feed is dropped rather than
// allowed to stall the rest.
type hub struct {
	log *logging.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	messages   chan feedMessage
	register   chan *client
	unregister chan *client
	quit       chan struct{}
	once       sync.Once
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub(log *logging.Logger) *hub {
	return &hub{
		log:        log.WithComponent("feed"),
		clients:    make(map[*client]struct{}),
		messages:   make(chan feedMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		quit:       make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client connected, %d total", n)

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.messages:
			h.fanOut(msg)

		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *hub) stop() {
	h.once.Do(func() { close(h.quit) })
}

// broadcast queues a message for every client. The feed is advisory:
// when the hub's own queue is full the message is dropped silently.
func (h *hub) broadcast(msg feedMessage) {
	select {
	case h.messages <- msg:
	case <-h.quit:
	default:
	}
}

func (h *hub) fanOut(msg feedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal feed message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(h.clients, c)
			h.log.Warn("dropping slow feed client")
		}
	}
}

func (h *hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// readPump discards inbound frames; the feed is one way. It exists to
// service control frames and to notice the client going away.
func (c *client) readPump(h *hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
