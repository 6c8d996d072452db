package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"skyroute-backend/internal/models"
	"skyroute-backend/pkg/logger"
)

const (
	feedBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Event is pushed to every connected dashboard when an entry changes.
type Event struct {
	Event     string        `json:"event"`
	Entry     *models.Entry `json:"entry"`
	Timestamp time.Time     `json:"timestamp"`
}

// Feed fans entry events out to websocket clients.
type Feed struct {
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Event
	log        logger.Logger
}

func NewFeed(log logger.Logger, allowedOrigins []string) *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, feedBuffer),
		log:       log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		// same host as the page that opened the socket
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// Run delivers queued events until ctx is done, then disconnects everyone.
func (f *Feed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.clientsMux.Lock()
			for client := range f.clients {
				client.Close()
				delete(f.clients, client)
			}
			f.clientsMux.Unlock()
			return
		case ev := <-f.broadcast:
			f.send(ev)
		}
	}
}

func (f *Feed) send(ev Event) {
	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()
	for client := range f.clients {
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteJSON(ev); err != nil {
			client.Close()
			delete(f.clients, client)
		}
	}
}

// Publish queues an event. When the queue is full the event is dropped;
// dashboards resync on their next page load.
func (f *Feed) Publish(ev Event) {
	select {
	case f.broadcast <- ev:
	default:
		f.log.Warn("entry feed full, dropping event", "event", ev.Event)
	}
}

// EntryChanged lets the feed observe the entry service.
func (f *Feed) EntryChanged(_ context.Context, event string, e *models.Entry) {
	f.Publish(Event{Event: event, Entry: e, Timestamp: time.Now()})
}

// Clients is the number of connected sockets.
func (f *Feed) Clients() int {
	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()
	return len(f.clients)
}

// ServeHTTP upgrades the request and keeps the socket registered until the
// client goes away. Clients never send anything meaningful.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	f.clientsMux.Lock()
	f.clients[conn] = true
	f.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.clientsMux.Lock()
			if f.clients[conn] {
				conn.Close()
				delete(f.clients, conn)
			}
			f.clientsMux.Unlock()
			return
		}
	}
}
