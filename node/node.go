// Package node owns the single mutex-guarded value the Design Notes call
// for in place of the original source's process-level globals: one
// sync.Mutex guards the chain store, the pending transaction pool, the
// running fee total and the peer set (§5). Every entry point — the
// gossip dispatcher, the miner, the wallet RPC adapter — holds a handle
// to the same *Node rather than touching package-level state directly,
// generalizing the teacher's own package-level KnownNodes/memoryPool
// globals (network/network.go) into one owned type.
package node

import (
	"errors"
	"math/big"
	"sync"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/config"
	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/p2p"
)

// ErrNoPeers is returned by RequestRandom when the peer set is empty and
// this node is not a genesis node, per §4.G.
var ErrNoPeers = errors.New("node: no peers available")

// Node is the process's one owned mutable value.
type Node struct {
	mu sync.Mutex

	store      *chain.Store
	pending    []chain.Transaction
	pendingFee int64
	peers      *p2p.PeerSet

	self    string
	keys    keys.KeyPair
	genesis bool
}

// New builds a fresh node with an empty chain. self is this node's own
// advertised gossip URL (e.g. "ws://localhost:4000"); genesis marks it as
// tolerating an empty peer set and skipping startup sync, per §6.
func New(cfg config.Config, kp keys.KeyPair, self string, genesis bool) *Node {
	return &Node{
		store:   chain.New(cfg.Difficulty, cfg.Reward),
		peers:   p2p.NewPeerSet(self),
		self:    self,
		keys:    kp,
		genesis: genesis,
	}
}

// Keys exposes this node's signing identity, for the wallet RPC adapter.
func (n *Node) Keys() keys.KeyPair { return n.keys }

// Self returns this node's own advertised gossip URL.
func (n *Node) Self() string { return n.self }

// IsGenesis reports whether this instance was started with --gen.
func (n *Node) IsGenesis() bool { return n.genesis }

// Difficulty and Reward satisfy miner.Source.
func (n *Node) Difficulty() uint { return n.store.Difficulty() }
func (n *Node) Reward() int64    { return n.store.Reward() }

// TipChanged satisfies miner.Source. The store's latch is atomic, so this
// needs no lock.
func (n *Node) TipChanged() bool { return n.store.TipChanged() }

// Snapshot satisfies miner.Source's Assemble step: the current tip plus a
// copy of the pending transaction list and fee total.
func (n *Node) Snapshot() (tip chain.BlockID, tipHash *big.Int, txs []chain.Transaction, fee int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	tip, tipHash, _ = n.store.Tip()
	txs = append([]chain.Transaction(nil), n.pending...)
	fee = n.pendingFee
	return tip, tipHash, txs, fee
}

// CommitMinedBlock satisfies miner.Source's Found step: apply the block
// to the shared store, and on acceptance, reset the pending pool and fee
// counter in full, then broadcast — matching the original source's own
// mined_new_block, which wipes current_transactions/current_transaction_fees
// unconditionally rather than subtracting only the included transactions.
// Any transaction that arrived mid-Search and wasn't included is dropped,
// not retried; a client must resubmit.
func (n *Node) CommitMinedBlock(b chain.Block) (bool, error) {
	n.mu.Lock()
	accepted, err := n.store.HandleBlock(b)
	if err == nil && accepted {
		n.pending = nil
		n.pendingFee = 0
	}
	n.mu.Unlock()

	if err != nil {
		return false, err
	}
	if accepted {
		n.Broadcast(p2p.Envelope{Block: &b})
	}
	return accepted, nil
}

// ReceiveBlock hands an inbound gossip block to the chain store, per the
// `block` row of §4.F ("Hand to chain store"). After acceptance — whether
// by direct tip extension or fork promotion — pending transactions that no
// longer validate against the new ledger state are dropped.
func (n *Node) ReceiveBlock(b chain.Block) (accepted bool, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	accepted, err = n.store.HandleBlock(b)
	if err != nil {
		return false, err
	}
	n.prunePendingLocked()
	return accepted, nil
}

// prunePendingLocked drops any pending transaction that no longer
// validates against the current ledger (its inputs were spent by a block
// this node didn't mine itself), and recomputes the fee total to match.
// Caller must hold mu.
func (n *Node) prunePendingLocked() {
	kept := n.pending[:0:0]
	var fee int64
	ledger := n.store.Ledger()
	for _, tx := range n.pending {
		if err := chain.ValidateAgainstLedger(tx, ledger); err != nil {
			continue
		}
		kept = append(kept, tx)
		fee += chain.Fee(tx, ledger)
	}
	n.pending = kept
	n.pendingFee = fee
}

// AddPendingTransaction validates tx against the current ledger and
// against the already-pending pool (rejecting input overlap, per §9's
// open-question resolution: a transaction whose inputs overlap an
// already-pending transaction is rejected rather than silently admitted),
// then appends it and its fee to the shared state.
func (n *Node) AddPendingTransaction(tx chain.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ledger := n.store.Ledger()
	if err := chain.ValidateAgainstLedger(tx, ledger); err != nil {
		return err
	}
	for _, pending := range n.pending {
		for _, want := range tx.Inputs {
			for _, have := range pending.Inputs {
				if want == have {
					return chain.ErrDuplicateInput
				}
			}
		}
	}

	n.pending = append(n.pending, tx)
	n.pendingFee += chain.Fee(tx, ledger)
	return nil
}

// DescribeChain and DescribeUnspent (see describe.go) are the
// miner.py print_chain/print_unspent console reporting, carried forward
// per SPEC_FULL.md §10.
