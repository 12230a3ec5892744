// Package chain implements the block/transaction data model, the chain
// store and its fork-resolution algorithm (§3, §4.D). It is grounded on
// the teacher's blockchain package and on the original Python source's
// miner.py/test_resolution.py, generalized to ed25519 signatures, SHA-512
// proof-of-work, and a UTXO model with explicit fresh ids instead of the
// teacher's bitcoin-style hashed-address, ECDSA, SHA-256 scheme.
package chain

import (
	"errors"
	"fmt"

	"github.com/petalcoin/gossipcoin/chainenc"
	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/utxo"
)

// Output and OutputID are re-exported from utxo so callers building
// transactions don't need to import both packages.
type (
	Output   = utxo.Output
	OutputID = utxo.OutputID
)

// Transaction moves value from one address's unspent outputs to a fresh
// set of outputs. Inputs are carried as a fixed-order sequence (never an
// unordered set) so that signing and hashing are deterministic — see the
// Design Notes' open question on signing over a set-valued field.
type Transaction struct {
	Inputs    []OutputID
	Outputs   []Output
	From      keys.Address
	Signature []byte
}

var (
	// ErrNonPositiveOutput is a ValidationError: every output amount must
	// be strictly positive.
	ErrNonPositiveOutput = errors.New("chain: output amount must be positive")
	// ErrNegativeFee is a ValidationError: sum(inputs) must be >=
	// sum(outputs).
	ErrNegativeFee = errors.New("chain: inputs do not cover outputs")
	// ErrBadSignature is a ValidationError: the transaction's signature
	// does not verify under From.
	ErrBadSignature = errors.New("chain: signature does not verify")
	// ErrUnknownInput is a ValidationError: an input doesn't exist in the
	// ledger, or exists but is owned by a different address.
	ErrUnknownInput = errors.New("chain: input not found or not owned by sender")
	// ErrDuplicateInput is a ValidationError: two transactions (or two
	// inputs of one transaction) spend the same output.
	ErrDuplicateInput = errors.New("chain: duplicate input")
)

// canonicalImage returns the bytes signed over and hashed over: every
// field in a fixed order, with Signature omitted, per §4.A.
func (tx Transaction) canonicalImage() []byte {
	var b chainenc.Buffer

	b.Seq(len(tx.Inputs))
	for _, id := range tx.Inputs {
		b.Bytes(id[:])
	}

	b.Seq(len(tx.Outputs))
	for _, out := range tx.Outputs {
		b.Bytes(out.ID[:])
		b.Int(out.Amount)
		b.String(string(out.Address))
	}

	b.String(string(tx.From))
	return b.Bytes()
}

// Sign attaches a detached signature over the transaction's canonical
// image using the given keypair. The caller is expected to have set From
// to the keypair's own address.
func (tx *Transaction) Sign(kp keys.KeyPair) {
	tx.Signature = kp.Sign(tx.canonicalImage())
}

// VerifySignature checks the transaction's signature against its claimed
// sender, per §4.B. It never panics.
func (tx Transaction) VerifySignature() bool {
	return keys.Verify(tx.From, tx.canonicalImage(), tx.Signature)
}

// outputsPositive reports whether every output amount is > 0.
func (tx Transaction) outputsPositive() bool {
	for _, out := range tx.Outputs {
		if out.Amount <= 0 {
			return false
		}
	}
	return true
}

// outputTotal sums the transaction's output amounts.
func (tx Transaction) outputTotal() int64 {
	var total int64
	for _, out := range tx.Outputs {
		total += out.Amount
	}
	return total
}

// ValidateStandalone checks everything about a transaction that doesn't
// require ledger state: signature validity and output positivity. This is
// the "ignoring ledger state" provisional check used during fork
// resolution (§4.D step 3).
func (tx Transaction) ValidateStandalone() error {
	if !tx.outputsPositive() {
		return ErrNonPositiveOutput
	}
	if !tx.VerifySignature() {
		return ErrBadSignature
	}
	return nil
}

// ValidateAgainstLedger fully validates a transaction against the current
// ledger state, per §3's Transaction invariants: every input exists and
// is owned by From, input total >= output total, outputs positive,
// signature verifies.
func ValidateAgainstLedger(tx Transaction, ledger *utxo.Ledger) error {
	if err := tx.ValidateStandalone(); err != nil {
		return err
	}

	var inputTotal int64
	seen := make(map[OutputID]struct{}, len(tx.Inputs))
	for _, id := range tx.Inputs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateInput, id)
		}
		seen[id] = struct{}{}

		out, ok := ledger.Get(id)
		if !ok || out.Address != tx.From {
			return fmt.Errorf("%w: %s", ErrUnknownInput, id)
		}
		inputTotal += out.Amount
	}

	if inputTotal < tx.outputTotal() {
		return ErrNegativeFee
	}
	return nil
}

// Fee returns the miner fee a transaction pays, given the ledger it will
// be validated against. Callers must validate the transaction first.
func Fee(tx Transaction, ledger *utxo.Ledger) int64 {
	var inputTotal int64
	for _, id := range tx.Inputs {
		if out, ok := ledger.Get(id); ok {
			inputTotal += out.Amount
		}
	}
	return inputTotal - tx.outputTotal()
}
