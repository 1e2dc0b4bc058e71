package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
)

type streamMessage struct {
	Type string           `json:"type"`
	Data session.Snapshot `json:"data"`
}

// Stream upgrades to a websocket and pushes a snapshot on connect and after
// every session change. Slow readers only ever get the latest snapshot.
func Stream(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      originChecker(d.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the client.
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}

		updates := make(chan session.Snapshot, 1)
		unsubscribe := d.Session.Subscribe(func(s session.Snapshot) { offerLatest(updates, s) })
		defer unsubscribe()

		log := d.Logger.With(logger.String("remote_ip", r.RemoteAddr))
		log.Debug("websocket client connected")
		pump(conn, d.Session.Snapshot(), updates, log)
		log.Debug("websocket client disconnected")
	}
}

// offerLatest replaces whatever is queued with s. It never blocks.
func offerLatest(ch chan session.Snapshot, s session.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// pump writes snapshots until the peer goes away. Incoming frames are read
// only to process control messages.
func pump(conn *websocket.Conn, first session.Snapshot, updates <-chan session.Snapshot, log logger.Logger) {
	defer func() { _ = conn.Close() }()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("unexpected websocket close", logger.Error(err))
				}
				return
			}
		}
	}()

	write := func(s session.Snapshot) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(streamMessage{Type: "snapshot", Data: s}); err != nil {
			log.Debug("websocket write failed", logger.Error(err))
			return false
		}
		return true
	}

	if !write(first) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case s := <-updates:
			if !write(s) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), same-origin pages and the configured origins ("*" allows all).
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
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}
