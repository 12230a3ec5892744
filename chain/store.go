package chain

import (
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/petalcoin/gossipcoin/utxo"
)

// Segment is a non-empty, internally parent-linked alternative chain
// branch held in the loser pool (§3).
type Segment []Block

// First and Last are convenience accessors; Segment is always non-empty
// by construction.
func (s Segment) First() Block { return s[0] }
func (s Segment) Last() Block  { return s[len(s)-1] }

// ErrInvariantViolation marks a should-never-happen condition per §7:
// only this error is ever allowed to terminate the process.
var ErrInvariantViolation = errors.New("chain: invariant violation")

// Store is the ordered main chain plus the loser-chain pool, with its own
// UTXO ledger and the single-bit preemption latch the miner polls between
// nonces (§5). It is not itself safe for concurrent use; the node package
// wraps it with a mutex, matching the Design Notes' "Global mutable
// state" remediation.
type Store struct {
	main       []Block
	losers     []Segment
	ledger     *utxo.Ledger
	difficulty uint
	reward     int64
	tipChanged atomic.Bool
}

// New returns an empty store (no genesis block yet — Tip returns the
// (0,0,0) sentinel until one is mined or received).
func New(difficulty uint, reward int64) *Store {
	return &Store{
		ledger:     utxo.New(),
		difficulty: difficulty,
		reward:     reward,
	}
}

// Difficulty and Reward expose the store's consensus parameters to the
// miner.
func (s *Store) Difficulty() uint  { return s.difficulty }
func (s *Store) Reward() int64     { return s.reward }
func (s *Store) Ledger() *utxo.Ledger { return s.ledger }

// Tip returns the current chain tip's id, hash and height, or the
// genesis sentinel (0,0,0) if main is empty, per §4.D.
func (s *Store) Tip() (BlockID, *big.Int, int) {
	if len(s.main) == 0 {
		return uuid.Nil, new(big.Int), 0
	}
	last := s.main[len(s.main)-1]
	return last.ID, last.Hash, len(s.main)
}

// Main returns a copy of the main chain, safe for the caller to retain.
func (s *Store) Main() []Block {
	out := make([]Block, len(s.main))
	copy(out, s.main)
	return out
}

// Losers returns a copy of the loser pool.
func (s *Store) Losers() []Segment {
	out := make([]Segment, len(s.losers))
	copy(out, s.losers)
	return out
}

// TipChanged reports and clears the preemption latch. The miner calls
// this between nonces; it never blocks.
func (s *Store) TipChanged() bool {
	return s.tipChanged.Swap(false)
}

func (s *Store) markTipChanged() {
	s.tipChanged.Store(true)
}

// HandleBlock implements §4.D's block-acceptance algorithm. It never
// returns an error for ordinary network noise (bad hash, orphan blocks,
// invalid transactions) — those are logged and dropped by the caller, not
// propagated, per §7. A non-nil error here always means
// ErrInvariantViolation.
func (s *Store) HandleBlock(b Block) (accepted bool, err error) {
	if !b.HashComplete(s.difficulty) {
		return false, nil
	}

	_, tipHash, _ := s.Tip()
	if b.PreviousBlockHash != nil && b.PreviousBlockHash.Cmp(tipHash) == 0 && s.validatesAgainstLedger(b) {
		if err := s.applyToMain(b); err != nil {
			return false, err
		}
		s.markTipChanged()
		return true, nil
	}

	if s.validatesStandalone(b) {
		s.enterForkResolution(b)
		return false, nil
	}

	return false, nil
}

func (s *Store) validatesStandalone(b Block) bool {
	if !transactionsDisjoint(b.Transactions) {
		return false
	}
	for _, tx := range b.Transactions {
		if err := tx.ValidateStandalone(); err != nil {
			return false
		}
	}
	return true
}

func (s *Store) validatesAgainstLedger(b Block) bool {
	if !transactionsDisjoint(b.Transactions) {
		return false
	}
	for _, tx := range b.Transactions {
		if err := ValidateAgainstLedger(tx, s.ledger); err != nil {
			return false
		}
	}
	return true
}

// applyToMain applies b's effects to the ledger and appends it to main.
// A missing input here means we validated against a ledger snapshot that
// has since changed underneath us, which cannot happen while the caller
// holds the node-level mutex for the whole operation — so any error here
// is an InvariantViolation.
func (s *Store) applyToMain(b Block) error {
	for _, tx := range b.Transactions {
		if err := s.ledger.Apply(tx.Inputs, tx.Outputs); err != nil {
			return fmt.Errorf("%w: applying block %s: %v", ErrInvariantViolation, b.ID, err)
		}
	}
	s.ledger.Insert(b.Mine)
	s.main = append(s.main, b)
	return nil
}

// AssembleCandidate builds the shell of a candidate block atop the
// current tip for the miner's Assemble step (§4.E). Nonce starts at 0,
// Hash is left nil until the miner computes it.
func (s *Store) AssembleCandidate(id BlockID, txs []Transaction, mine Output, timestamp int64) Block {
	tipID, tipHash, _ := s.Tip()
	return Block{
		ID:                id,
		Transactions:       txs,
		Mine:               mine,
		Timestamp:          timestamp,
		PreviousBlock:      tipID,
		PreviousBlockHash:  tipHash,
		Nonce:              0,
	}
}
