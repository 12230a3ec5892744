// Package config loads node configuration from the environment, the way
// the retrieval pack's Fantasim/hdpay reference repo configures itself:
// github.com/kelseyhightower/envconfig into a typed struct, with
// github.com/joho/godotenv optionally loading a local .env file first.
// This replaces the teacher's and the original Python source's hard-coded
// PORT/NODE_ID globals and os.Getenv reads with one validated struct.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything a gossipcoin node needs to start, per §6's
// "External Interfaces" and §9's ambient configuration note.
type Config struct {
	// ListenPort is the gossip overlay's websocket listen port.
	ListenPort int `envconfig:"LISTEN_PORT" default:"4000"`
	// WalletPort overrides the wallet RPC port; defaults to
	// ListenPort+1 per §4.H when left at zero.
	WalletPort int `envconfig:"WALLET_PORT" default:"0"`
	// Difficulty is the proof-of-work parameter D in hash_complete's
	// 2^(512-D) target, per §4.A.
	Difficulty uint `envconfig:"DIFFICULTY" default:"20"`
	// Reward is the coinbase amount a mined block pays, per §4.E.
	Reward int64 `envconfig:"REWARD" default:"1000"`
	// BootstrapFile names a plain text file of one peer URL per line,
	// loaded at startup unless this instance is a genesis node (§6).
	BootstrapFile string `envconfig:"BOOTSTRAP_FILE" default:"peers.txt"`
}

// Load reads environment variables into a Config, first importing a local
// .env file if present (ignored if absent — godotenv.Load's error is only
// ever "file not found" in that case, which isn't fatal here).
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("gossipcoin", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// EffectiveWalletPort returns WalletPort if set, otherwise ListenPort+1,
// per §4.H ("node_port+1").
func (c Config) EffectiveWalletPort() int {
	if c.WalletPort != 0 {
		return c.WalletPort
	}
	return c.ListenPort + 1
}

// LoadBootstrapPeers reads one peer URL per line from path, skipping
// blank lines and self, per §4.G's "bootstrap from an initial URL list
// minus self." A missing file yields an empty list rather than an error:
// a freshly bootstrapped network has nothing to read yet.
func LoadBootstrapPeers(path, self string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading bootstrap file %s: %w", path, err)
	}
	defer f.Close()

	var peers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == self {
			continue
		}
		peers = append(peers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: scanning bootstrap file %s: %w", path, err)
	}
	return peers, nil
}
