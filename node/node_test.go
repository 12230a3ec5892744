package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/chainenc"
	"github.com/petalcoin/gossipcoin/config"
	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/p2p"
)

func testNode(t *testing.T) (*Node, keys.KeyPair) {
	t.Helper()
	kp, err := keys.Generate()
	require.NoError(t, err)
	cfg := config.Config{Difficulty: 4, Reward: 1000}
	return New(cfg, kp, "ws://localhost:0", true), kp
}

func mineGenesis(t *testing.T, n *Node, minerAddr keys.Address) chain.Block {
	t.Helper()
	tip, tipHash, _, _ := n.Snapshot()
	b := chain.Block{
		ID:                chain.NewBlockID(),
		Mine:              chain.Output{ID: chain.NewBlockID(), Amount: n.Reward(), Address: minerAddr},
		PreviousBlock:     tip,
		PreviousBlockHash: tipHash,
	}
	for nonce := uint64(0); nonce < 5_000_000; nonce++ {
		b.Nonce = nonce
		h := b.ComputeHash()
		if chainenc.Complete(h, n.Difficulty()) {
			b.Hash = h
			return b
		}
	}
	t.Fatal("exhausted nonce budget mining test genesis block")
	return chain.Block{}
}

func TestCommitMinedBlockResetsPendingPool(t *testing.T) {
	n, kp := testNode(t)
	b := mineGenesis(t, n, kp.Address)

	ok, err := n.CommitMinedBlock(b)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, txs, fee := n.Snapshot()
	require.Empty(t, txs)
	require.Zero(t, fee)
}

func TestAddPendingTransactionRejectsOverlappingInputs(t *testing.T) {
	n, kp := testNode(t)
	b := mineGenesis(t, n, kp.Address)
	_, err := n.CommitMinedBlock(b)
	require.NoError(t, err)

	recipient, err := keys.Generate()
	require.NoError(t, err)

	ledger := n.store.Ledger()
	total, chosen, err := ledger.SelectInputs(kp.Address, 100)
	require.NoError(t, err)

	tx1 := chain.Transaction{Inputs: chosen, Outputs: []chain.Output{
		{ID: chain.NewBlockID(), Amount: total, Address: recipient.Address},
	}, From: kp.Address}
	tx1.Sign(kp)
	require.NoError(t, n.AddPendingTransaction(tx1))

	tx2 := chain.Transaction{Inputs: chosen, Outputs: []chain.Output{
		{ID: chain.NewBlockID(), Amount: total, Address: recipient.Address},
	}, From: kp.Address}
	tx2.Sign(kp)
	require.ErrorIs(t, n.AddPendingTransaction(tx2), chain.ErrDuplicateInput)
}

func TestHandlePingRepliesPong(t *testing.T) {
	n, _ := testNode(t)
	reply, err := n.Handle(p2p.Envelope{Ping: true})
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.True(t, reply.Pong)
}

func TestHandleRequestBlockchainRepliesMain(t *testing.T) {
	n, kp := testNode(t)
	b := mineGenesis(t, n, kp.Address)
	_, err := n.CommitMinedBlock(b)
	require.NoError(t, err)

	reply, err := n.Handle(p2p.Envelope{RequestBlockchain: true})
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.Len(t, reply.Blocks, 1)
	require.Equal(t, b.ID, reply.Blocks[0].ID)
}

func TestHandlePeerListPeersAlwaysReplies(t *testing.T) {
	n, _ := testNode(t)
	reply, err := n.Handle(p2p.Envelope{Peer: "ws://unreachable:9", ListPeers: true})
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.Empty(t, reply.Peers) // the add attempt fails (nothing listening), but the list still comes back
}

func TestRequestRandomToleratesEmptyPeerSetOnGenesis(t *testing.T) {
	n, _ := testNode(t)
	reply, err := n.RequestRandom(p2p.Envelope{Ping: true})
	require.NoError(t, err)
	require.Equal(t, p2p.Envelope{}, reply)
}
