package relay

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Browser sessions connect from arbitrary pages, so the origin is not
	// restricted. The relay carries no secrets: it only forwards SDP blobs
	// between identifiers.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Routes builds the relay's HTTP surface: the websocket endpoint and a health
// probe.
func Routes(hub *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Relay is healthy."))
	})

	r.Get("/ws", serveWs(hub))

	return r
}

// serveWs upgrades the connection and hands it to the hub.
func serveWs(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "error", err)
			return
		}

		client := NewClient(hub, conn)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
