package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/chainenc"
	"github.com/petalcoin/gossipcoin/config"
	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/node"
)

func fundedNode(t *testing.T) (*node.Node, keys.KeyPair) {
	t.Helper()
	kp, err := keys.Generate()
	require.NoError(t, err)

	n := node.New(config.Config{Difficulty: 4, Reward: 1000}, kp, "ws://localhost:0", true)

	tip, tipHash, _, _ := n.Snapshot()
	b := chain.Block{
		ID:                chain.NewBlockID(),
		Mine:              chain.Output{ID: chain.NewBlockID(), Amount: n.Reward(), Address: kp.Address},
		PreviousBlock:     tip,
		PreviousBlockHash: tipHash,
	}
	for nonce := uint64(0); nonce < 5_000_000; nonce++ {
		b.Nonce = nonce
		h := b.ComputeHash()
		if chainenc.Complete(h, n.Difficulty()) {
			b.Hash = h
			break
		}
	}
	ok, err := n.CommitMinedBlock(b)
	require.NoError(t, err)
	require.True(t, ok)

	return n, kp
}

func TestPostTransactionSuccess(t *testing.T) {
	n, _ := fundedNode(t)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	router := NewRouter(n)

	body, _ := json.Marshal(transactionRequest{
		Outputs: []outputRequest{{Amount: 100, Address: recipient.Address}},
		Fee:     0,
	})
	req := httptest.NewRequest(http.MethodPost, "/transaction", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "OK", resp["msg"])
}

func TestPostTransactionInsufficientFunds(t *testing.T) {
	n, _ := fundedNode(t)
	recipient, err := keys.Generate()
	require.NoError(t, err)

	router := NewRouter(n)

	body, _ := json.Marshal(transactionRequest{
		Outputs: []outputRequest{{Amount: 1_000_000_000, Address: recipient.Address}},
	})
	req := httptest.NewRequest(http.MethodPost, "/transaction", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Insufficient funds!", resp["error"])
}

func TestGetBalances(t *testing.T) {
	n, kp := fundedNode(t)
	router := NewRouter(n)

	req := httptest.NewRequest(http.MethodGet, "/balances", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var balances map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balances))
	require.Equal(t, int64(1000), balances[string(kp.Address)])
}

func TestGetUnspent(t *testing.T) {
	n, _ := fundedNode(t)
	router := NewRouter(n)

	req := httptest.NewRequest(http.MethodGet, "/unspent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var outs []chain.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outs))
	require.Len(t, outs, 1)
}
