package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all configurable parameters for the daemon.
type Config struct {
	ListenPort   int    `json:"listen_port"`
	StorageDir   string `json:"storage_dir"`
	Relayer      string `json:"relayer"`       // implicit-quota relayer; empty selects the built-in default
	CheckpointMs int    `json:"checkpoint_ms"` // state commit interval; 0 selects the default
}

// Load reads and parses a JSON config file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads the default config from config.json in the current directory.
func LoadDefault() (*Config, error) {
	return Load("config/config.json")
}

// RelayerAddress parses the configured relayer override. The zero address
// means "use the built-in default".
func (c *Config) RelayerAddress() common.Address {
	if c.Relayer == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Relayer)
}
