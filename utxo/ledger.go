// Package utxo implements the in-memory unspent-output ledger described in
// §4.C: applying block effects, greedy coin selection and balance
// lookup. There is no revert operation; a fork promotion rebuilds the
// ledger from scratch instead (chain.Store.rebuildLedger). It holds no reference to blocks or transactions so that the
// chain package can depend on it without a cycle; block application is
// expressed purely in terms of input ids and output values.
package utxo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/petalcoin/gossipcoin/keys"
)

// OutputID is the 128-bit identifier of a transaction output.
type OutputID = uuid.UUID

// Output is an unspent transaction output: a claim on Amount tokens
// redeemable by Address. Invariant: Amount > 0.
type Output struct {
	ID      OutputID
	Amount  int64
	Address keys.Address
}

// ErrInsufficientFunds is returned by SelectInputs when an address's
// unspent outputs don't cover the requested amount.
var ErrInsufficientFunds = errors.New("utxo: insufficient funds")

// ErrMissingInput is returned by Apply when a transaction references an
// output id that is not in the ledger. Per §7 this always indicates an
// InvariantViolation when it surfaces from applying an already-validated
// block — callers validate inputs exist before calling Apply.
var ErrMissingInput = errors.New("utxo: missing input")

// Ledger is the mapping output_id -> Output, plus a per-address index
// that keeps selection deterministic within one node (§4.C).
type Ledger struct {
	outputs map[OutputID]Output
	owned   map[keys.Address][]OutputID
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		outputs: make(map[OutputID]Output),
		owned:   make(map[keys.Address][]OutputID),
	}
}

// Get looks up a single unspent output by id.
func (l *Ledger) Get(id OutputID) (Output, bool) {
	out, ok := l.outputs[id]
	return out, ok
}

// Has reports whether id is currently unspent.
func (l *Ledger) Has(id OutputID) bool {
	_, ok := l.outputs[id]
	return ok
}

// Insert adds a freshly-created output to the ledger. Keys are unique by
// construction (ids are generated, never reused), so a collision here is
// an InvariantViolation.
func (l *Ledger) Insert(out Output) {
	if _, exists := l.outputs[out.ID]; exists {
		panic(fmt.Sprintf("utxo: double-insert of output %s", out.ID))
	}
	l.outputs[out.ID] = out
	l.owned[out.Address] = append(l.owned[out.Address], out.ID)
}

// Remove destroys an unspent output, as happens when a later transaction
// consumes it as an input. Removing an id that isn't present is an
// InvariantViolation: the caller is expected to have validated the
// transaction against this exact ledger state first.
func (l *Ledger) Remove(id OutputID) error {
	out, ok := l.outputs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingInput, id)
	}
	delete(l.outputs, id)
	l.removeOwned(out.Address, id)
	return nil
}

func (l *Ledger) removeOwned(addr keys.Address, id OutputID) {
	ids := l.owned[addr]
	for i, candidate := range ids {
		if candidate == id {
			l.owned[addr] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// Apply removes every input and inserts every output of one transaction's
// effects, in that order, per §4.C's apply_block step. It is the caller's
// job to have already checked every input exists and belongs to the
// claimed owner; a missing input here is an InvariantViolation.
func (l *Ledger) Apply(inputs []OutputID, outputs []Output) error {
	for _, id := range inputs {
		if err := l.Remove(id); err != nil {
			return err
		}
	}
	for _, out := range outputs {
		l.Insert(out)
	}
	return nil
}

// SelectInputs greedily scans owner's unspent outputs in their
// insertion-tracked order, accumulating until total >= required. Returns
// ErrInsufficientFunds if owner's balance can't cover required.
func (l *Ledger) SelectInputs(owner keys.Address, required int64) (total int64, chosen []OutputID, err error) {
	for _, id := range l.owned[owner] {
		out, ok := l.outputs[id]
		if !ok {
			continue
		}
		total += out.Amount
		chosen = append(chosen, id)
		if total >= required {
			return total, chosen, nil
		}
	}
	return total, chosen, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, required)
}

// BalanceOf sums every unspent output owned by addr.
func (l *Ledger) BalanceOf(addr keys.Address) int64 {
	var sum int64
	for _, id := range l.owned[addr] {
		if out, ok := l.outputs[id]; ok {
			sum += out.Amount
		}
	}
	return sum
}

// All returns every unspent output, in no particular order. Used by the
// wallet RPC's /unspent endpoint and by node.DescribeUnspent.
func (l *Ledger) All() []Output {
	out := make([]Output, 0, len(l.outputs))
	for _, o := range l.outputs {
		out = append(out, o)
	}
	return out
}

// Balances sums every address's unspent outputs. Used by /balances.
func (l *Ledger) Balances() map[keys.Address]int64 {
	balances := make(map[keys.Address]int64, len(l.owned))
	for addr := range l.owned {
		balances[addr] = l.BalanceOf(addr)
	}
	return balances
}
