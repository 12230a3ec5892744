package p2p

import "math/rand"

// PeerSet is the set of known peer URLs, excluding self. It is plain,
// unsynchronized data: per §5 it lives inside node.Node and is mutated
// only while the node's single mutex is held, same as the chain store and
// pending transaction list.
type PeerSet struct {
	self  string
	peers map[string]struct{}
}

// NewPeerSet returns an empty peer set that will never admit self.
func NewPeerSet(self string) *PeerSet {
	return &PeerSet{self: self, peers: make(map[string]struct{})}
}

// Add inserts url unless it is self or already present. Reports whether
// it was newly added.
func (p *PeerSet) Add(url string) bool {
	if url == "" || url == p.self {
		return false
	}
	if _, ok := p.peers[url]; ok {
		return false
	}
	p.peers[url] = struct{}{}
	return true
}

// Remove evicts url, used on transport failure (connect refused/timeout),
// per §7's lazy peer eviction.
func (p *PeerSet) Remove(url string) {
	delete(p.peers, url)
}

// Has reports whether url is currently a known peer.
func (p *PeerSet) Has(url string) bool {
	_, ok := p.peers[url]
	return ok
}

// Len reports the number of known peers.
func (p *PeerSet) Len() int {
	return len(p.peers)
}

// Random picks one peer uniformly at random, per request_random/
// update_peers in §4.G. ok is false if the set is empty.
func (p *PeerSet) Random() (url string, ok bool) {
	snapshot := p.Snapshot()
	if len(snapshot) == 0 {
		return "", false
	}
	return snapshot[rand.Intn(len(snapshot))], true
}

// Snapshot returns a copy of the current peer list, so the caller can
// iterate and perform network I/O without the live set being mutated out
// from under it (§5: "iteration for fan-out snapshots the set to a local
// sequence before network I/O").
func (p *PeerSet) Snapshot() []string {
	out := make([]string, 0, len(p.peers))
	for url := range p.peers {
		out = append(out, url)
	}
	return out
}
