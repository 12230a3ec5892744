package chain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/petalcoin/gossipcoin/chainenc"
	"github.com/petalcoin/gossipcoin/keys"
)

func newOutputID() OutputID {
	return uuid.New()
}

// mineBlock assembles a candidate atop the store's current tip and
// searches nonces until it satisfies the PoW predicate, exactly like the
// miner's Search step, so tests exercise real hashes rather than fakes.
func mineBlock(t *testing.T, s *Store, minerAddr keys.Address, txs []Transaction, difficulty uint) Block {
	t.Helper()
	mine := Output{ID: newOutputID(), Amount: s.Reward(), Address: minerAddr}
	b := s.AssembleCandidate(NewBlockID(), txs, mine, 1)

	for nonce := uint64(0); nonce < 5_000_000; nonce++ {
		b.Nonce = nonce
		h := b.ComputeHash()
		if chainenc.Complete(h, difficulty) {
			b.Hash = h
			return b
		}
	}
	t.Fatal("failed to mine test block within nonce budget")
	return Block{}
}

func TestHandleBlockAcceptsGenesisThenExtendsTip(t *testing.T) {
	const difficulty = 4
	s := New(difficulty, 1000)

	minerKP, err := keys.Generate()
	require.NoError(t, err)

	genesis := mineBlock(t, s, minerKP.Address, nil, difficulty)
	accepted, err := s.HandleBlock(genesis)
	require.NoError(t, err)
	require.True(t, accepted)

	tipID, tipHash, height := s.Tip()
	require.Equal(t, genesis.ID, tipID)
	require.Equal(t, 0, tipHash.Cmp(genesis.Hash))
	require.Equal(t, 1, height)

	next := mineBlock(t, s, minerKP.Address, nil, difficulty)
	accepted, err = s.HandleBlock(next)
	require.NoError(t, err)
	require.True(t, accepted)

	_, _, height = s.Tip()
	require.Equal(t, 2, height)
	require.Equal(t, int64(2000), s.Ledger().BalanceOf(minerKP.Address))
}

func TestHandleBlockRejectsBadPoW(t *testing.T) {
	s := New(80, 1000) // difficulty so high nothing will plausibly satisfy it
	minerKP, _ := keys.Generate()

	b := s.AssembleCandidate(NewBlockID(), nil, Output{ID: newOutputID(), Amount: 1000, Address: minerKP.Address}, 1)
	b.Hash = b.ComputeHash()

	accepted, err := s.HandleBlock(b)
	require.NoError(t, err)
	require.False(t, accepted)
}

func TestTransactionWithNonPositiveOutputRejected(t *testing.T) {
	kp, err := keys.Generate()
	require.NoError(t, err)

	tx := Transaction{From: kp.Address, Outputs: []Output{{ID: newOutputID(), Amount: 0, Address: kp.Address}}}
	tx.Sign(kp)

	require.ErrorIs(t, tx.ValidateStandalone(), ErrNonPositiveOutput)
}

func TestTransactionBadSignatureRejected(t *testing.T) {
	kp, err := keys.Generate()
	require.NoError(t, err)
	other, err := keys.Generate()
	require.NoError(t, err)

	tx := Transaction{From: kp.Address, Outputs: []Output{{ID: newOutputID(), Amount: 5, Address: kp.Address}}}
	tx.Sign(other) // signed by the wrong key

	require.ErrorIs(t, tx.ValidateStandalone(), ErrBadSignature)
}
