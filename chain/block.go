package chain

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/petalcoin/gossipcoin/chainenc"
	"github.com/petalcoin/gossipcoin/keys"
)

// hashWidth is the byte width a 512-bit hash is padded to when embedded in
// a canonical image, so every block's previous_block_hash field has a
// fixed, unambiguous width regardless of leading zero bytes.
const hashWidth = 64

// BlockID identifies a block; zero value is the genesis sentinel used by
// Store.Tip() before any block exists.
type BlockID = uuid.UUID

// Block is a mined block, per §3. Hash and Nonce are derived/mined;
// everything else is assembled by the miner at Assemble time (§4.E).
type Block struct {
	ID                BlockID
	Transactions      []Transaction
	Mine              Output
	Timestamp         int64
	PreviousBlock     BlockID
	PreviousBlockHash *big.Int
	Nonce             uint64
	Hash              *big.Int
}

// NewBlockID mints a fresh 128-bit block identifier.
func NewBlockID() BlockID {
	return uuid.New()
}

// canonicalImage returns the bytes hashed to derive Hash: every field in
// a fixed order, Hash itself omitted, and every contained transaction
// encoded with its own Signature omitted too (§4.A: "the signature field
// for transactions [is] omitted when hashing").
func (b Block) canonicalImage() []byte {
	var buf chainenc.Buffer

	buf.Bytes(b.ID[:])

	buf.Seq(len(b.Transactions))
	for _, tx := range b.Transactions {
		buf.Bytes(tx.canonicalImage())
	}

	buf.Bytes(b.Mine.ID[:])
	buf.Int(b.Mine.Amount)
	buf.String(string(b.Mine.Address))

	buf.Int(b.Timestamp)
	buf.Bytes(b.PreviousBlock[:])

	prevHash := b.PreviousBlockHash
	if prevHash == nil {
		prevHash = new(big.Int)
	}
	var padded [hashWidth]byte
	prevHash.FillBytes(padded[:])
	buf.Bytes(padded[:])

	buf.Uint(b.Nonce)
	return buf.Bytes()
}

// ComputeHash returns H(block without hash), per §4.A.
func (b Block) ComputeHash() *big.Int {
	return chainenc.Hash(b.canonicalImage())
}

// HashComplete reports whether the block satisfies the proof-of-work
// predicate at the given difficulty: hash_complete(block) per §4.A.
func (b Block) HashComplete(difficulty uint) bool {
	return chainenc.Complete(b.ComputeHash(), difficulty)
}

// LinksTo reports whether b legitimately follows parent: its
// previous_block_hash must equal parent's Hash.
func (b Block) LinksTo(parent Block) bool {
	if b.PreviousBlockHash == nil || parent.Hash == nil {
		return false
	}
	return b.PreviousBlockHash.Cmp(parent.Hash) == 0
}

// MinerAddress reports who this block rewards, for convenience.
func (b Block) MinerAddress() keys.Address {
	return b.Mine.Address
}

// transactionsDisjoint reports whether every input across every
// transaction in the block is spent at most once, per §3's Block
// invariant.
func transactionsDisjoint(txs []Transaction) bool {
	seen := make(map[OutputID]struct{})
	for _, tx := range txs {
		for _, id := range tx.Inputs {
			if _, dup := seen[id]; dup {
				return false
			}
			seen[id] = struct{}{}
		}
	}
	return true
}
