package node

import (
	"log"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/p2p"
)

// Handle implements the §4.F message dispatcher as a p2p.Handler: exactly
// one recognised tag in, at most one reply out, per connection.
func (n *Node) Handle(msg p2p.Envelope) (*p2p.Envelope, error) {
	tag, err := msg.Tag()
	if err != nil {
		log.Printf("node: dropping malformed message: %v", err)
		return nil, nil
	}

	switch tag {
	case p2p.TagPeer:
		return n.handlePeer(msg), nil
	case p2p.TagPing:
		return &p2p.Envelope{Pong: true}, nil
	case p2p.TagRequestBlockchain:
		return &p2p.Envelope{Blocks: n.mainChain()}, nil
	case p2p.TagTransaction:
		n.handleTransaction(msg)
		return nil, nil
	case p2p.TagBlock:
		n.handleBlock(msg)
		return nil, nil
	default:
		log.Printf("node: dropping message with unrecognised tag")
		return nil, nil
	}
}

func (n *Node) handlePeer(msg p2p.Envelope) *p2p.Envelope {
	newlyAdded := n.AddPeer(msg.Peer)
	if newlyAdded {
		n.Propagate(msg.Peer)
	}

	if msg.ListPeers {
		return &p2p.Envelope{Peers: n.PeerURLs()}
	}
	return nil
}

func (n *Node) handleTransaction(msg p2p.Envelope) {
	if msg.Transaction == nil {
		return
	}
	if err := n.AddPendingTransaction(*msg.Transaction); err != nil {
		log.Printf("node: rejecting transaction: %v", err)
		return
	}
	n.Broadcast(p2p.Envelope{Transaction: msg.Transaction})
}

func (n *Node) handleBlock(msg p2p.Envelope) {
	if msg.Block == nil {
		return
	}
	accepted, err := n.ReceiveBlock(*msg.Block)
	if err != nil {
		log.Panicf("node: invariant violation handling block %s: %v", msg.Block.ID, err)
	}
	if accepted {
		log.Printf("node: accepted block %s as new tip", msg.Block.ID)
	}
}

func (n *Node) mainChain() []chain.Block {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.Main()
}
