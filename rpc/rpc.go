// Package rpc implements the wallet HTTP adapter of §4.H: three endpoints
// on localhost only, backed by the shared node.Node, built on
// github.com/go-chi/chi/v5 (the retrieval pack's nearest wallet-adjacent
// HTTP service, Fantasim/hdpay, routes the same way).
package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/node"
	"github.com/petalcoin/gossipcoin/utxo"
)

// NewRouter builds the chi router exposing the three §4.H endpoints
// against n. Bind it to 127.0.0.1 only, per §6 ("Listens on node_port+1
// on localhost only") — NewRouter itself stays transport-agnostic; the
// caller (main.go) chooses the listen address.
func NewRouter(n *node.Node) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Post("/transaction", postTransaction(n))
	r.Get("/unspent", getUnspent(n))
	r.Get("/balances", getBalances(n))
	return r
}

type outputRequest struct {
	Amount  int64        `json:"amount"`
	Address keys.Address `json:"address"`
}

type transactionRequest struct {
	Outputs []outputRequest `json:"outputs"`
	Fee     int64           `json:"fee"`
}

func postTransaction(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}

		requests := make([]node.PaymentRequest, 0, len(req.Outputs))
		for _, o := range req.Outputs {
			requests = append(requests, node.PaymentRequest{Amount: o.Amount, Address: o.Address})
		}

		_, err := n.SendPayment(requests, req.Fee)
		if err != nil {
			if errors.Is(err, utxo.ErrInsufficientFunds) {
				writeError(w, http.StatusOK, "Insufficient funds!")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"msg": "OK"})
	}
}

func getUnspent(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, n.UnspentOutputs())
	}
}

func getBalances(n *node.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, n.Balances())
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
