package node

import "github.com/petalcoin/gossipcoin/p2p"

// AddPeer runs the add_peer primitive of §4.G: ignore self, connect, ping,
// await pong, and on success insert. The handshake happens outside the
// lock (it's network I/O); only the set mutation is guarded.
func (n *Node) AddPeer(url string) bool {
	if url == "" || url == n.self {
		return false
	}

	n.mu.Lock()
	already := n.peers.Has(url)
	n.mu.Unlock()
	if already {
		return false
	}

	reply, err := p2p.Exchange(url, p2p.Envelope{Ping: true})
	if err != nil || !reply.Pong {
		return false
	}

	n.mu.Lock()
	added := n.peers.Add(url)
	n.mu.Unlock()
	return added
}

// Propagate runs the propagate primitive: tell every current peer other
// than newURL about it, per §4.G.
func (n *Node) Propagate(newURL string) {
	n.mu.Lock()
	peers := n.peers.Snapshot()
	n.mu.Unlock()

	for _, url := range peers {
		if url == newURL {
			continue
		}
		if err := p2p.Send(url, p2p.Envelope{Peer: newURL}); err != nil {
			n.evict(url)
		}
	}
}

// Broadcast runs the broadcast primitive: send obj to every current peer,
// pruning any that refuse, per §4.G. The peer list is snapshotted under
// the lock before any network I/O, so a concurrent peer-set mutation
// can't alias the slice being iterated (§5).
func (n *Node) Broadcast(msg p2p.Envelope) {
	n.mu.Lock()
	peers := n.peers.Snapshot()
	n.mu.Unlock()

	for _, url := range peers {
		if err := p2p.Send(url, msg); err != nil {
			n.evict(url)
		}
	}
}

// RequestRandom runs the request_random primitive: pick one peer
// uniformly at random, exchange req for one reply. Empty peer sets fail
// with ErrNoPeers, except on the genesis node, which tolerates emptiness
// and returns a zero Envelope with no error, per §4.G.
func (n *Node) RequestRandom(req p2p.Envelope) (p2p.Envelope, error) {
	n.mu.Lock()
	url, ok := n.peers.Random()
	n.mu.Unlock()

	if !ok {
		if n.genesis {
			return p2p.Envelope{}, nil
		}
		return p2p.Envelope{}, ErrNoPeers
	}

	reply, err := p2p.Exchange(url, req)
	if err != nil {
		n.evict(url)
		return p2p.Envelope{}, err
	}
	return reply, nil
}

// UpdatePeers runs the update_peers primitive: ask a random peer for its
// peer list and merge it in via AddPeer, retrying with a different random
// peer on connection refusal, per §4.G.
func (n *Node) UpdatePeers() {
	tried := make(map[string]struct{})

	for {
		n.mu.Lock()
		candidates := n.peers.Snapshot()
		n.mu.Unlock()

		url, found := "", false
		for _, c := range candidates {
			if _, skip := tried[c]; !skip {
				url, found = c, true
				break
			}
		}
		if !found {
			return
		}
		tried[url] = struct{}{}

		reply, err := p2p.Exchange(url, p2p.Envelope{Peer: n.self, ListPeers: true})
		if err != nil {
			n.evict(url)
			continue
		}
		for _, candidate := range reply.Peers {
			n.AddPeer(candidate)
		}
		return
	}
}

// PeerURLs returns a snapshot of the current peer list, for replying to
// `list_peers` requests and for console diagnostics.
func (n *Node) PeerURLs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peers.Snapshot()
}

func (n *Node) evict(url string) {
	n.mu.Lock()
	n.peers.Remove(url)
	n.mu.Unlock()
}
