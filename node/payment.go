package node

import (
	"github.com/google/uuid"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/p2p"
)

// PaymentRequest is one recipient of a new transaction, as decoded from
// the wallet RPC's POST /transaction body (§4.H).
type PaymentRequest struct {
	Amount  int64
	Address keys.Address
}

// SendPayment constructs a transaction paying every request out of this
// node's own unspent outputs plus fee, signs it, admits it to the pending
// pool, and broadcasts it — the §4.H "construct, sign, broadcast" sequence
// collapsed into one call for the RPC handler.
func (n *Node) SendPayment(requests []PaymentRequest, fee int64) (chain.Transaction, error) {
	n.mu.Lock()
	ledger := n.store.Ledger()
	from := n.keys.Address

	var outTotal int64
	for _, r := range requests {
		outTotal += r.Amount
	}
	required := outTotal + fee

	total, chosen, err := ledger.SelectInputs(from, required)
	if err != nil {
		n.mu.Unlock()
		return chain.Transaction{}, err
	}

	outputs := make([]chain.Output, 0, len(requests)+1)
	for _, r := range requests {
		outputs = append(outputs, chain.Output{ID: uuid.New(), Amount: r.Amount, Address: r.Address})
	}
	if change := total - required; change > 0 {
		outputs = append(outputs, chain.Output{ID: uuid.New(), Amount: change, Address: from})
	}

	tx := chain.Transaction{Inputs: chosen, Outputs: outputs, From: from}
	tx.Sign(n.keys)
	n.mu.Unlock()

	if err := n.AddPendingTransaction(tx); err != nil {
		return chain.Transaction{}, err
	}
	n.Broadcast(p2p.Envelope{Transaction: &tx})
	return tx, nil
}
