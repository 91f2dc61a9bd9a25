package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/orientation_panel/internal/panel"
	"github.com/relabs-tech/orientation_panel/internal/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsEnvelope is what goes over the websocket: either a rendered frame or
// a refreshed settings tree.
type wsEnvelope struct {
	Type     string              `json:"type"`
	Frame    *render.Frame       `json:"frame,omitempty"`
	Settings *panel.SettingsNode `json:"settings,omitempty"`
}

// frameHub fans rendered frames out to all connected browsers and replays
// the latest frame and settings tree to late joiners.
type frameHub struct {
	mu           sync.Mutex
	conns        map[*websocket.Conn]bool
	lastFrame    []byte
	lastSettings []byte
}

func newFrameHub() *frameHub {
	return &frameHub{conns: map[*websocket.Conn]bool{}}
}

// BroadcastFrame is the FrameRenderer sink.
func (h *frameHub) BroadcastFrame(f render.Frame) {
	payload, err := json.Marshal(wsEnvelope{Type: "frame", Frame: &f})
	if err != nil {
		log.Printf("web: frame marshal error: %v", err)
		return
	}
	h.broadcast(payload, &h.lastFrame)
}

// BroadcastSettings pushes a refreshed settings tree after an edit.
func (h *frameHub) BroadcastSettings(tree panel.SettingsNode) {
	payload, err := json.Marshal(wsEnvelope{Type: "settings", Settings: &tree})
	if err != nil {
		log.Printf("web: settings marshal error: %v", err)
		return
	}
	h.broadcast(payload, &h.lastSettings)
}

func (h *frameHub) broadcast(payload []byte, last *[]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*last = payload
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.dropConn(conn)
		}
	}
}

// dropConn closes and forgets a connection. Callers hold mu.
func (h *frameHub) dropConn(conn *websocket.Conn) {
	conn.Close()
	delete(h.conns, conn)
}

func (h *frameHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	for _, payload := range [][]byte{h.lastSettings, h.lastFrame} {
		if payload != nil {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("web: websocket replay error: %v", err)
			}
		}
	}
	h.mu.Unlock()

	// Drain (and discard) client reads so pings keep the conn alive;
	// drop the conn on error.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				h.dropConn(conn)
				h.mu.Unlock()
				return
			}
		}
	}()
}

// settingsEdit is one checkbox change posted back by the page.
type settingsEdit struct {
	Path  []string `json:"path"`
	Value bool     `json:"value"`
}

// serveWeb wires the panel's web view: static page, websocket stream,
// and the settings editor endpoints. All panel access goes through `do`
// so the panel stays single-threaded; when `do` reports the loop has
// stopped, handlers answer 503 instead of waiting forever.
func serveWeb(addr string, hub *frameHub, p *panel.Panel, do func(func()) bool) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", hub.handleWS)

	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			reply := make(chan panel.SettingsNode, 1)
			if !do(func() { reply <- p.Settings() }) {
				http.Error(w, "shutting down", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(<-reply); err != nil {
				log.Printf("web: json encode error: %v", err)
			}

		case http.MethodPost:
			var edit settingsEdit
			if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
				http.Error(w, "bad edit payload", http.StatusBadRequest)
				return
			}
			done := make(chan struct{})
			if !do(func() {
				p.ApplySetting(edit.Path, edit.Value)
				hub.BroadcastSettings(p.Settings())
				close(done)
			}) {
				http.Error(w, "shutting down", http.StatusServiceUnavailable)
				return
			}
			<-done
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))

	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
