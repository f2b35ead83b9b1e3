package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

const (
	// liveWriteWait bounds one frame write to one subscriber.
	liveWriteWait = 10 * time.Second

	// livePongWait is how long a subscriber may stay silent before its
	// connection is considered dead. Pings go out at livePingPeriod to
	// keep a live subscriber answering.
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10

	// liveSendBuffer is the per-subscriber frame backlog. A subscriber
	// whose backlog is full when the next reading arrives is dropped.
	liveSendBuffer = 16

	liveReadLimit = 512
)

// subscriber is one live feed connection. Every write to conn happens in
// its writePump goroutine; the feed hands frames over through send, so
// publishing never touches the network.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump drains send onto the connection and keeps the ping cycle
// going. Closing send ends the subscriber: buffered frames are flushed,
// then a going-away close frame is written before the connection drops.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// LiveFeed pushes accepted readings to WebSocket subscribers as they
// arrive. It keeps connection bookkeeping only; readings are never buffered
// here, the durable store remains the single source of truth.
type LiveFeed struct {
	upgrader       websocket.Upgrader
	logger         zerolog.Logger
	allowedOrigins []string

	mutex       sync.RWMutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

// NewLiveFeed creates the feed. With no allowed origins all cross-origin
// upgrades are rejected; same-origin requests always pass.
func NewLiveFeed(logger zerolog.Logger, allowedOrigins ...string) *LiveFeed {
	f := &LiveFeed{
		logger:         logger,
		allowedOrigins: allowedOrigins,
		subscribers:    make(map[*subscriber]struct{}),
	}

	f.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     f.checkOrigin,
	}

	return f
}

// checkOrigin validates the incoming request's Origin against the configured allowlist
func (f *LiveFeed) checkOrigin(r *http.Request) bool {
	// No Origin header means same-origin request
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range f.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	f.logger.Warn().Str("origin", origin).Msg("Rejected WebSocket connection: origin not in allowlist")
	return false
}

// ServeHTTP handles GET /readings/live: upgrades the connection and keeps
// it subscribed until the client goes away.
func (f *LiveFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, liveSendBuffer),
	}

	f.mutex.Lock()
	if f.closed {
		f.mutex.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(liveWriteWait))
		conn.Close()
		return
	}
	f.subscribers[sub] = struct{}{}
	count := len(f.subscribers)
	f.mutex.Unlock()

	f.logger.Info().
		Str("remote", conn.RemoteAddr().String()).
		Int("subscribers", count).
		Msg("Live feed subscriber connected")

	go sub.writePump()
	go f.readUntilClose(sub)
}

// readUntilClose discards inbound frames; the feed is one-way and the read
// loop exists only to notice disconnects and pongs.
func (f *LiveFeed) readUntilClose(sub *subscriber) {
	defer f.remove(sub)

	sub.conn.SetReadLimit(liveReadLimit)
	sub.conn.SetReadDeadline(time.Now().Add(livePongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// remove drops a subscriber from the fan-out set. Closing send makes its
// writePump flush and shut the connection; send is closed exactly once,
// guarded by map membership.
func (f *LiveFeed) remove(sub *subscriber) {
	f.mutex.Lock()
	_, present := f.subscribers[sub]
	if present {
		delete(f.subscribers, sub)
		close(sub.send)
	}
	f.mutex.Unlock()

	if present {
		f.logger.Info().Str("remote", sub.conn.RemoteAddr().String()).Msg("Live feed subscriber disconnected")
	}
}

// Publish fans a stored reading out to every subscriber. The frame is
// marshalled once and handed to each subscriber's writer goroutine, so the
// caller never waits on a socket; a subscriber whose backlog is already
// full is dropped instead of slowing the others down.
func (f *LiveFeed) Publish(reading *models.Reading) {
	frame, err := json.Marshal(reading)
	if err != nil {
		f.logger.Error().Err(err).Msg("Failed to encode reading for live feed")
		return
	}

	var dropped []*subscriber

	f.mutex.Lock()
	for sub := range f.subscribers {
		select {
		case sub.send <- frame:
		default:
			delete(f.subscribers, sub)
			close(sub.send)
			dropped = append(dropped, sub)
		}
	}
	f.mutex.Unlock()

	for _, sub := range dropped {
		f.logger.Warn().Str("remote", sub.conn.RemoteAddr().String()).Msg("Dropping slow live feed subscriber")
	}
}

// Close drops every subscriber with a going-away close frame and refuses
// upgrades from then on. Publishing into a closed feed is a no-op, so Close
// is safe to call while the HTTP server is still draining requests.
func (f *LiveFeed) Close() {
	f.mutex.Lock()
	if f.closed {
		f.mutex.Unlock()
		return
	}
	f.closed = true
	count := len(f.subscribers)
	for sub := range f.subscribers {
		delete(f.subscribers, sub)
		close(sub.send)
	}
	f.mutex.Unlock()

	if count > 0 {
		f.logger.Info().Int("subscribers", count).Msg("Live feed closed")
	}
}

// SubscriberCount returns the number of connected subscribers.
func (f *LiveFeed) SubscriberCount() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return len(f.subscribers)
}
