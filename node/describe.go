package node

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/petalcoin/gossipcoin/chain"
	"github.com/petalcoin/gossipcoin/keys"
)

// UnspentOutputs returns every unspent output in the ledger, for the
// wallet RPC's GET /unspent (§4.H).
func (n *Node) UnspentOutputs() []chain.Output {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.Ledger().All()
}

// Balances returns every address's unspent total, for GET /balances.
func (n *Node) Balances() map[keys.Address]int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.Ledger().Balances()
}

// DescribeChain renders the main chain as a console table: one row per
// block with its height, id and transaction count. This carries forward
// the original source's print_chain console report (miner.py), per
// SPEC_FULL.md §10.
func (n *Node) DescribeChain() {
	n.mu.Lock()
	main := n.store.Main()
	n.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"height", "block id", "transactions", "miner"})
	for i, b := range main {
		t.AppendRow(table.Row{i + 1, b.ID, len(b.Transactions), b.MinerAddress()})
	}
	t.Render()
}

// DescribeUnspent renders the node's own unspent outputs as a console
// table, carrying forward the original source's print_unspent report.
func (n *Node) DescribeUnspent() {
	n.mu.Lock()
	ledger := n.store.Ledger()
	addr := n.keys.Address
	n.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"output id", "amount"})
	var total int64
	for _, out := range ledger.All() {
		if out.Address != addr {
			continue
		}
		t.AppendRow(table.Row{out.ID, out.Amount})
		total += out.Amount
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"balance", total})
	t.Render()
}
