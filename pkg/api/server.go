// Package api serves the local control surface: HTTP endpoints to change the wallpaper and
// manage the cache, and a websocket that pushes change events.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/history"
	"github.com/dixieflatline76/rngpaper/pkg/wallpaper"
	"github.com/dixieflatline76/rngpaper/util/log"
	"github.com/gorilla/websocket"
	"golang.org/x/net/netutil"
)

const (
	maxConns        = 32
	writeWait       = 5 * time.Second
	clientQueueSize = 16
	shutdownTimeout = 5 * time.Second
)

// Changer is the part of wallpaper.Changer the server drives.
type Changer interface {
	Trigger(source string) bool
	EmptyCache() error
	Stats() wallpaper.Stats
}

// Cache lists cached wallpapers.
type Cache interface {
	Dir() string
	Entries() ([]wallpaper.CacheEntry, error)
}

// History reads recent changes.
type History interface {
	Recent(ctx context.Context, n int) ([]history.Entry, error)
}

// Server represents the local REST/WebSocket server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	clients   map[*client]struct{}
	clientsMu sync.Mutex

	changer Changer
	cache   Cache
	history History
}

// client is one websocket connection. Everything written to it goes through send, drained by
// a single writer goroutine.
type client struct {
	conn *websocket.Conn
	send chan Event
	done chan struct{}
}

// NewServer creates a new API server. hist may be nil when history is unavailable.
func NewServer(changer Changer, cache Cache, hist History) *Server {
	s := &Server{
		mux: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: allowedOrigin,
		},
		clients: make(map[*client]struct{}),
		changer: changer,
		cache:   cache,
		history: hist,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.localOnly(s.handleHealth))
	s.mux.HandleFunc("/change", s.localOnly(s.handleChange))
	s.mux.HandleFunc("/cache", s.localOnly(s.handleCacheList))
	s.mux.HandleFunc("/cache/empty", s.localOnly(s.handleCacheEmpty))
	s.mux.HandleFunc("/cache/files/", s.localOnly(s.handleCacheFile))
	s.mux.HandleFunc("/history", s.localOnly(s.handleHistory))
	s.mux.HandleFunc("/ws", s.localOnly(s.handleWebSocket))
}

// localOnly rejects requests sent by pages that are not served from this machine, and
// requests addressed to a host name other than localhost (DNS rebinding).
func (s *Server) localOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowedHost(r) || !allowedOrigin(r) {
			log.Printf("Rejected %s %s from origin %q host %q", r.Method, r.URL.Path, r.Header.Get("Origin"), r.Host)
			writeError(w, http.StatusForbidden, "only local clients are allowed")
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// allowedOrigin accepts requests without an Origin header (non-browser clients) and those
// whose origin is a loopback host.
func allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return isLoopbackHost(u.Hostname())
}

// allowedHost accepts IP literals and localhost in the Host header.
func allowedHost(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}
	host = strings.Trim(host, "[]")
	return strings.EqualFold(host, "localhost") || net.ParseIP(host) != nil
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control API listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			log.Printf("Control API shutdown: %v", err)
		}
	}()

	log.Printf("Control API listening on %s", ln.Addr())
	err := s.httpServer.Serve(netutil.LimitListener(ln, maxConns))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down and disconnects websocket clients.
func (s *Server) Stop() error {
	s.clientsMu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clientsMu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Event is the message pushed to websocket clients.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	At        time.Time `json:"at,omitzero"`
	Source    string    `json:"source,omitempty"`
	Path      string    `json:"path,omitempty"`
	ItemID    string    `json:"item_id,omitempty"`
	URL       string    `json:"url,omitempty"`
	RemoteURL string    `json:"remote_url,omitempty"`
}

// WallpaperChanged broadcasts a wallpaper_changed event to every connected client.
func (s *Server) WallpaperChanged(r wallpaper.Result) {
	s.broadcast(Event{
		Type:      "wallpaper_changed",
		ID:        r.ID,
		At:        r.At,
		Source:    r.Source,
		Path:      r.LocalPath,
		ItemID:    r.Item.ID,
		URL:       r.Item.ShortURL,
		RemoteURL: r.Item.Path,
	})
}

// broadcast queues msg for every client without waiting on any of them. A client whose
// queue is full misses the event.
func (s *Server) broadcast(msg Event) {
	s.clientsMu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		if !c.enqueue(msg) {
			log.Printf("Dropping %s event for a slow websocket client", msg.Type)
		}
	}
}

func (c *client) enqueue(msg Event) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writeLoop drains the client's queue until the connection fails or the reader is done.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("Failed to write to websocket client: %v", err)
				c.conn.Close()
				return
			}
		}
	}
}

// register adds a connection and starts its writer.
func (s *Server) register(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan Event, clientQueueSize),
		done: make(chan struct{}),
	}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
	go c.writeLoop()
	return c
}

// unregister removes a connection and stops its writer.
func (s *Server) unregister(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	close(c.done)
	c.conn.Close()
}

// clientCount returns the number of connected websocket clients.
func (s *Server) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
