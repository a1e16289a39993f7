package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize       = 256
	statsDays    = 7
	statsRecent  = 10
	packEncoding = "msgpack"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// joinURL is the address players open to reach the client app
func joinURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}

// StatsResponse is served by /api/stats
type StatsResponse struct {
	Connections  int              `json:"connections"`
	Players      int              `json:"players"`
	Tick         uint64           `json:"tick"`
	EventCounts  map[string]int   `json:"eventCounts"`
	Eliminations []EliminationRow `json:"recentEliminations"`
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string, analytics *Analytics) *http.ServeMux {
	mux := http.NewServeMux()

	// Static client with a catch-all to index.html for client-side routes
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		name := filepath.Join(clientDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, r.URL.Query().Get("encoding") == packEncoding)
		id := hub.Register(client)
		log.Printf("hub: conn %d from %s opened", id, ip)
		hub.Arena().Greet(id)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Scan-to-join QR code for the arena URL
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(joinURL(r), qrcode.Medium, qrSize)
		if err != nil {
			log.Printf("qr encode error: %v", err)
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			Connections: hub.ClientCount(),
			Players:     hub.Arena().PlayerCount(),
			Tick:        hub.Arena().Tick(),
			EventCounts: map[string]int{},
		}
		if analytics != nil {
			if counts, err := analytics.EventCounts(statsDays); err != nil {
				log.Printf("stats: event counts: %v", err)
			} else if counts != nil {
				resp.EventCounts = counts
			}
			if elims, err := analytics.RecentEliminations(statsRecent); err != nil {
				log.Printf("stats: eliminations: %v", err)
			} else {
				resp.Eliminations = elims
			}
		}
		if resp.Eliminations == nil {
			resp.Eliminations = []EliminationRow{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}
