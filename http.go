package aes67bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	healthPath = "/healthz"

	// Time allowed to write one chunk or control frame to a websocket peer.
	writeWait = 10 * time.Second
)

// Handler returns the HTTP routes: the raw stream at Path, its websocket
// variant at Path + "/ws" (if enabled), and the health report.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+b.cfg.Path, b.serveStream)
	if b.cfg.WebSocket {
		mux.HandleFunc("GET "+b.cfg.Path+"/ws", b.serveWebSocket)
	}
	mux.HandleFunc("GET "+healthPath, b.serveHealth)
	return mux
}

// serveStream writes every chunk verbatim, as one unbounded body with no
// Content-Length, until the client goes away or the stream ends.
func (b *Bridge) serveStream(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	id, q := b.fanout.AddClient()
	log.Info("client connected (id=%d, from=%s)", id, r.RemoteAddr)
	defer func() {
		b.fanout.RemoveClient(id)
		log.Info("client disconnected (id=%d)", id)
	}()

	for {
		select {
		case chunk, ok := <-q.C():
			if !ok {
				return
			}
			if _, err := w.Write(chunk); err != nil {
				log.Debug("client %d: %v", id, err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// serveWebSocket sends each chunk as one binary message.
func (b *Bridge) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Debug("websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	id, q := b.fanout.AddClient()
	log.Info("client connected (id=%d, from=%s, websocket)", id, r.RemoteAddr)
	defer func() {
		b.fanout.RemoveClient(id)
		log.Info("client disconnected (id=%d)", id)
	}()

	// Clients never send data; reading is only how close frames and dropped
	// connections are noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("client %d: %v", id, err)
				}
				return
			}
		}
	}()

	for {
		select {
		case chunk, ok := <-q.C():
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream ended")
				conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				log.Debug("client %d: %v", id, err)
				return
			}
		case <-gone:
			return
		}
	}
}

func (b *Bridge) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(b.Status()); err != nil {
		log.Debug("healthz: %v", err)
	}
}
