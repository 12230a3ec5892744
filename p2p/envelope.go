// Package p2p implements the gossip overlay of §4.F/§4.G: a tagged
// message envelope, the peer set, and a one-exchange-per-connection
// transport built on github.com/gorilla/websocket (the direct Go analogue
// of the original source's own "websockets" library). The package knows
// nothing about node-level locking; it only speaks the wire protocol and
// moves bytes. State ownership (the peer set, chain, pending
// transactions) lives in package node, per the Design Notes' "Global
// mutable state" remediation.
package p2p

import (
	"errors"

	"github.com/petalcoin/gossipcoin/chain"
)

// Tag identifies which single recognised key an Envelope carries, per the
// §4.F dispatch table.
type Tag int

const (
	TagNone Tag = iota
	TagPeer
	TagPing
	TagPong
	TagRequestBlockchain
	TagBlocks
	TagTransaction
	TagBlock
)

// ErrNoTag is returned by Envelope.Tag when no recognised key is set.
var ErrNoTag = errors.New("p2p: envelope carries no recognised tag")

// ErrMultipleTags is returned by Envelope.Tag when more than one
// recognised key is set, per the Design Notes' "reject payloads that
// carry more than one recognised tag."
var ErrMultipleTags = errors.New("p2p: envelope carries more than one recognised tag")

// Envelope is the single wire message shape exchanged over one gossip
// connection. Exactly one of its tagged fields (besides the ListPeers
// modifier, which only ever accompanies Peer) is populated on the wire;
// Tag enforces that discipline on decode.
//
// Byte-string fields round-trip bit-exactly through JSON: keys.Address is
// a named string (hex already), []byte Signature fields become base64,
// uuid.UUID ids marshal via their own TextMarshaler, and *big.Int hashes
// marshal as exact decimal literals — so reusing chain.Block and
// chain.Transaction directly as wire types, rather than hand-rolling
// parallel DTOs, costs nothing in fidelity.
type Envelope struct {
	Peer              string             `json:"peer,omitempty"`
	ListPeers         bool               `json:"list_peers,omitempty"`
	Peers             []string           `json:"peers,omitempty"`
	Ping              bool               `json:"ping,omitempty"`
	Pong              bool               `json:"pong,omitempty"`
	RequestBlockchain bool               `json:"request_blockchain,omitempty"`
	Blocks            []chain.Block      `json:"blocks,omitempty"`
	Transaction       *chain.Transaction `json:"transaction,omitempty"`
	Block             *chain.Block       `json:"block,omitempty"`
}

// Tag reports which single recognised key e carries, per §4.F. Peers is
// the reply-only payload sent back to a Peer+ListPeers request in
// update_peers, so it does not count as its own tag.
func (e Envelope) Tag() (Tag, error) {
	count := 0
	tag := TagNone

	mark := func(present bool, t Tag) {
		if present {
			count++
			tag = t
		}
	}
	mark(e.Peer != "", TagPeer)
	mark(e.Ping, TagPing)
	mark(e.Pong, TagPong)
	mark(e.RequestBlockchain, TagRequestBlockchain)
	mark(e.Blocks != nil, TagBlocks)
	mark(e.Transaction != nil, TagTransaction)
	mark(e.Block != nil, TagBlock)

	switch {
	case count == 0:
		return TagNone, ErrNoTag
	case count > 1:
		return TagNone, ErrMultipleTags
	default:
		return tag, nil
	}
}
