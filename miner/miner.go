// Package miner implements the mining loop state machine of §4.E:
// Idle -> Assemble -> Search -> Found|Preempted -> Idle. It is grounded on
// the original source's miner.py mine_one_block/mine loop and on the
// teacher's blockchain/proof.go nonce-search shape (ProofOfWork.Run),
// generalized to SHA-512/512-bit target and a single-slot atomic
// preemption latch in place of the teacher's Difficulty/target pair.
//
// The loop acquires the node's lock only twice per block: once at
// Assemble to snapshot the tip and pending transactions, once at Found to
// commit the mined block. Search runs entirely unlocked, polling the
// preemption latch between nonces, never blocking on anything else.
package miner

import (
	"log"
	"math/big"
	"time"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/chainenc"
	"github.com/petalcoin/gossipcoin/keys"
)

// Source is the shared state the miner reads and commits to, implemented
// by node.Node. It is an interface so this package never imports node;
// main.go hands the node to New and starts the loop.
type Source interface {
	// Snapshot returns the current tip id/hash, the pending transaction
	// list and the accumulated fee total, for the Assemble step.
	Snapshot() (tip chain.BlockID, tipHash *big.Int, txs []chain.Transaction, fee int64)
	// Difficulty and Reward are the consensus parameters the candidate
	// block must satisfy and the coinbase must pay.
	Difficulty() uint
	Reward() int64
	// TipChanged reports and clears whether the tip moved since the last
	// call, without blocking. Polled once per nonce during Search.
	TipChanged() bool
	// CommitMinedBlock applies a successfully mined block to the shared
	// store and broadcasts it to peers. ok is false if the tip moved
	// between Assemble and the commit attempt, a last-instant race the
	// latch didn't catch in time; the miner simply restarts.
	CommitMinedBlock(b chain.Block) (ok bool, err error)
}

// Miner runs the Idle/Assemble/Search/Found/Preempted loop against a
// Source until Stop is called.
type Miner struct {
	src     Source
	address keys.Address
	stop    chan struct{}
}

// New returns a miner that rewards mined blocks to address.
func New(src Source, address keys.Address) *Miner {
	return &Miner{src: src, address: address, stop: make(chan struct{})}
}

// Stop signals Run to return once the current Search attempt notices the
// preemption latch or finds a block.
func (m *Miner) Stop() {
	close(m.stop)
}

// Run executes the loop forever (or until Stop), one block per iteration.
// It is meant to run in its own goroutine, per §5's three-execution-unit
// model.
func (m *Miner) Run() {
	for {
		select {
		case <-m.stop:
			return
		default:
		}

		b, ok := m.mineOneBlock()
		if !ok {
			continue // preempted before finding a valid nonce; reassemble against the new tip
		}

		committed, err := m.src.CommitMinedBlock(b)
		if err != nil {
			log.Panicf("miner: invariant violation committing mined block %s: %v", b.ID, err)
		}
		if !committed {
			log.Printf("miner: tip moved before block %s could be committed, discarding", b.ID)
		}
	}
}

// mineOneBlock runs one full Assemble -> Search attempt, grounded on
// miner.py's mine_one_block. It returns ok=false if the tip changed out
// from under it (Preempted), in which case the caller reassembles fresh
// against the new tip rather than retrying a stale candidate.
func (m *Miner) mineOneBlock() (chain.Block, bool) {
	tip, tipHash, txs, fee := m.src.Snapshot()
	difficulty := m.src.Difficulty()
	reward := m.src.Reward()

	candidate := chain.Block{
		ID:                chain.NewBlockID(),
		Transactions:      txs,
		Mine:              chain.Output{ID: chain.NewBlockID(), Amount: reward + fee, Address: m.address},
		Timestamp:         time.Now().Unix(),
		PreviousBlock:     tip,
		PreviousBlockHash: tipHash,
	}

	for nonce := uint64(0); ; nonce++ {
		if m.src.TipChanged() {
			return chain.Block{}, false
		}

		candidate.Nonce = nonce
		hash := candidate.ComputeHash()
		if chainenc.Complete(hash, difficulty) {
			candidate.Hash = hash
			return candidate, true
		}
	}
}
