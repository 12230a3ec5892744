package p2p

import (
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServerExchangeRoundTrip(t *testing.T) {
	srv := NewServer(func(msg Envelope) (*Envelope, error) {
		require.True(t, msg.Ping)
		return &Envelope{Pong: true}, nil
	}, 100, 10)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	reply, err := Exchange(url, Envelope{Ping: true})
	require.NoError(t, err)
	require.True(t, reply.Pong)
}

func TestServerSendFireAndForget(t *testing.T) {
	received := make(chan Envelope, 1)
	srv := NewServer(func(msg Envelope) (*Envelope, error) {
		received <- msg
		return nil, nil
	}, 100, 10)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	err := Send(url, Envelope{RequestBlockchain: true})
	require.NoError(t, err)

	msg := <-received
	require.True(t, msg.RequestBlockchain)
}

func TestServerRejectsMultiTagEnvelope(t *testing.T) {
	var called atomic.Bool
	srv := NewServer(func(msg Envelope) (*Envelope, error) {
		called.Store(true)
		return nil, nil
	}, 100, 10)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	err := Send(url, Envelope{Ping: true, Pong: true})
	require.NoError(t, err) // the write itself succeeds; the server silently drops it

	time.Sleep(50 * time.Millisecond)
	require.False(t, called.Load(), "handler must not run for a multi-tag envelope")
}
