package p2p

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DialTimeout bounds every outbound connection attempt, per §5's
// "Cancellation & timeouts" (transport-level timeout, recommended <= 5s).
const DialTimeout = 5 * time.Second

var dialer = websocket.Dialer{HandshakeTimeout: DialTimeout}

// Send opens one connection to url, writes msg, and closes without
// waiting for a reply — used by propagate and broadcast, which are
// fire-and-forget per §4.G.
func Send(url string, msg Envelope) error {
	conn, err := dial(url)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.WriteJSON(msg)
}

// Exchange opens one connection to url, writes msg, and reads exactly one
// reply before closing — used by add_peer's ping/pong handshake,
// request_random, and update_peers, per §4.G.
func Exchange(url string, msg Envelope) (Envelope, error) {
	conn, err := dial(url)
	if err != nil {
		return Envelope{}, err
	}
	defer conn.Close()

	if err := conn.WriteJSON(msg); err != nil {
		return Envelope{}, fmt.Errorf("p2p: writing to %s: %w", url, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(DialTimeout))
	var reply Envelope
	if err := conn.ReadJSON(&reply); err != nil {
		return Envelope{}, fmt.Errorf("p2p: reading reply from %s: %w", url, err)
	}
	return reply, nil
}

func dial(url string) (*websocket.Conn, error) {
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("p2p: dial %s: %w", url, err)
	}
	return conn, nil
}

// Decode reads a single Envelope from raw JSON bytes, validating that
// exactly one recognised tag is present.
func Decode(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, fmt.Errorf("p2p: decode envelope: %w", err)
	}
	if _, err := e.Tag(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
