package p2p

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petalcoin/gossipcoin/chain"
)

func TestTagSingleRecognisedKey(t *testing.T) {
	tag, err := Envelope{Ping: true}.Tag()
	require.NoError(t, err)
	require.Equal(t, TagPing, tag)

	tag, err = Envelope{Peer: "ws://localhost:4000"}.Tag()
	require.NoError(t, err)
	require.Equal(t, TagPeer, tag)

	tag, err = Envelope{Block: &chain.Block{}}.Tag()
	require.NoError(t, err)
	require.Equal(t, TagBlock, tag)
}

func TestTagRejectsEmptyEnvelope(t *testing.T) {
	_, err := Envelope{}.Tag()
	require.ErrorIs(t, err, ErrNoTag)
}

func TestTagRejectsMultipleKeys(t *testing.T) {
	_, err := Envelope{Ping: true, RequestBlockchain: true}.Tag()
	require.ErrorIs(t, err, ErrMultipleTags)
}

func TestTagListPeersAccompaniesPeerWithoutBecomingItsOwnTag(t *testing.T) {
	tag, err := Envelope{Peer: "ws://localhost:4000", ListPeers: true}.Tag()
	require.NoError(t, err)
	require.Equal(t, TagPeer, tag)
}
