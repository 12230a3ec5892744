package p2p

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Handler processes one inbound Envelope and optionally returns a reply,
// matching the one-exchange-per-connection discipline of §4.G: the server
// reads exactly one message, invokes Handler once, writes the reply (if
// any) and closes.
type Handler func(msg Envelope) (reply *Envelope, err error)

var upgrader = websocket.Upgrader{
	// The gossip overlay has no browser-originated connections, so the
	// usual same-origin CSRF concern for websocket upgrades doesn't apply
	// here; every peer is another gossipcoin node dialing in directly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts inbound gossip connections on one HTTP listener,
// upgrading each to a websocket and handling exactly one exchange before
// closing. golang.org/x/time/rate throttles the accept rate so a burst of
// inbound peer/propagate traffic can't drive unbounded concurrent
// upgrades (§4.G's ambient robustness note).
type Server struct {
	handler Handler
	limiter *rate.Limiter
}

// NewServer returns a gossip server that dispatches each inbound exchange
// to handler, accepting at most burst connections instantly and
// replenishing at ratePerSec afterwards.
func NewServer(handler Handler, ratePerSec float64, burst int) *Server {
	return &Server{handler: handler, limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// ServeHTTP implements http.Handler, upgrading the request to a websocket
// connection and running one request/reply exchange.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("p2p: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var msg Envelope
	if err := conn.ReadJSON(&msg); err != nil {
		log.Printf("p2p: reading inbound envelope: %v", err)
		return
	}
	if _, err := msg.Tag(); err != nil {
		log.Printf("p2p: rejecting malformed envelope: %v", err)
		return
	}

	reply, err := s.handler(msg)
	if err != nil {
		log.Printf("p2p: handler error: %v", err)
		return
	}
	if reply != nil {
		if err := conn.WriteJSON(*reply); err != nil {
			log.Printf("p2p: writing reply: %v", err)
		}
	}
}

// ListenAndServe runs the gossip server on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
