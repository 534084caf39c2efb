package inspect

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/navstate/pkg/navtree"
)

// Start subscribes to the navigator and begins pushing state messages to
// connected /ws clients. Calling Start twice is a no-op.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	wake := make(chan struct{}, 1)
	quit := make(chan struct{})
	s.wake = wake
	s.done = make(chan struct{})

	unsubscribe := s.nav.Subscribe(func(navtree.Node) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	s.stop = func() {
		unsubscribe()
		close(quit)
	}
	go s.loop(wake, quit, s.done)
}

func (s *Server) loop(wake, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-wake:
			s.broadcast(s.state(true))
		case <-quit:
			return
		}
	}
}

// Close stops streaming and disconnects all clients.
func (s *Server) Close() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	clients := s.clients
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	for c := range clients {
		c.Close()
	}
}

// ClientCount returns the number of connected /ws clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("inspector upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// The first message is the state at connect time.
	if err := s.send(conn, s.state(true)); err != nil {
		s.drop(conn)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(conn)
}

func (s *Server) broadcast(st State) {
	s.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := s.send(c, st); err != nil {
			s.logger.Debug("inspector client dropped", "error", err)
			s.drop(c)
		}
	}
}

// send serializes writes per connection; gorilla connections allow one
// concurrent writer.
func (s *Server) send(c *websocket.Conn, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) drop(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.Close()
}
