package p2p

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeerSetNeverAdmitsSelf(t *testing.T) {
	p := NewPeerSet("ws://localhost:4000")
	require.False(t, p.Add("ws://localhost:4000"))
	require.Equal(t, 0, p.Len())
}

func TestPeerSetAddIsIdempotent(t *testing.T) {
	p := NewPeerSet("ws://localhost:4000")
	require.True(t, p.Add("ws://localhost:4001"))
	require.False(t, p.Add("ws://localhost:4001"))
	require.Equal(t, 1, p.Len())
}

func TestPeerSetRandomEmpty(t *testing.T) {
	p := NewPeerSet("ws://localhost:4000")
	_, ok := p.Random()
	require.False(t, ok)
}

func TestPeerSetSnapshotIsACopy(t *testing.T) {
	p := NewPeerSet("ws://localhost:4000")
	p.Add("ws://localhost:4001")
	snap := p.Snapshot()
	p.Add("ws://localhost:4002")
	require.Len(t, snap, 1, "snapshot must not see later mutations")
	require.Equal(t, 2, p.Len())
}
