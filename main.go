package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/vrecan/death/v3"

	"github.com/petalcoin/gossipcoin/config"
	"github.com/petalcoin/gossipcoin/keys"
	"github.com/petalcoin/gossipcoin/miner"
	"github.com/petalcoin/gossipcoin/node"
	"github.com/petalcoin/gossipcoin/p2p"
	"github.com/petalcoin/gossipcoin/rpc"
)

// gen is the single optional CLI surface flag named in §6: it marks this
// instance as a genesis node (tolerates an empty peer set, skips the
// bootstrap file and the startup chain fetch). It does not change the
// listen port: every instance binds cfg.ListenPort. It replaces the teacher's much larger
// getbalance/send/createwallet/startnode subcommand set, which doesn't
// survive this rework — see DESIGN.md.
var gen = flag.Bool("gen", false, "start as the genesis node")

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("gossipcoind: %v", err)
	}

	kp, err := keys.Generate()
	if err != nil {
		log.Fatalf("gossipcoind: generating node identity: %v", err)
	}

	self := fmt.Sprintf("ws://localhost:%d", cfg.ListenPort)
	n := node.New(cfg, kp, self, *gen)

	fmt.Printf("gossipcoind starting: address=%s listen=%d wallet=%d genesis=%v\n",
		kp.Address, cfg.ListenPort, cfg.EffectiveWalletPort(), *gen)

	if !*gen {
		bootstrap, err := config.LoadBootstrapPeers(cfg.BootstrapFile, self)
		if err != nil {
			log.Fatalf("gossipcoind: loading bootstrap peers: %v", err)
		}
		for _, peer := range bootstrap {
			if n.AddPeer(peer) {
				log.Printf("gossipcoind: connected to bootstrap peer %s", peer)
			}
		}
		syncChainFromRandomPeer(n)
	}

	ctx, cancel := context.WithCancel(context.Background())

	gossip := p2p.NewServer(n.Handle, 50, 100)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.ListenPort)
		if err := gossip.ListenAndServe(ctx, addr); err != nil {
			log.Printf("gossipcoind: gossip server stopped: %v", err)
		}
	}()

	m := miner.New(n, kp.Address)
	go m.Run()

	walletRouter := rpc.NewRouter(n)
	walletAddr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", cfg.EffectiveWalletPort()))
	walletServer := &http.Server{Addr: walletAddr, Handler: walletRouter}
	go func() {
		if err := walletServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("gossipcoind: wallet server stopped: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM, reused directly from the
	// teacher's network.CloseDB shutdown hook.
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	d.WaitForDeathWithFunc(func() {
		m.Stop()
		cancel()
		_ = walletServer.Close()
		n.DescribeChain()
		os.Exit(0)
	})
}

// syncChainFromRandomPeer re-syncs from a random peer at startup, per §6's
// "every restart is cold; the node rejoins by gossip and re-syncs the
// chain from a random peer."
func syncChainFromRandomPeer(n *node.Node) {
	reply, err := n.RequestRandom(p2p.Envelope{RequestBlockchain: true})
	if err != nil {
		log.Printf("gossipcoind: could not sync chain at startup: %v", err)
		return
	}
	for _, b := range reply.Blocks {
		if _, err := n.ReceiveBlock(b); err != nil {
			log.Panicf("gossipcoind: invariant violation syncing startup chain: %v", err)
		}
	}
}
