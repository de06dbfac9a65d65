// Package config resolves the deployment configuration for the attestation
// clients: which network to target, where to reach it, and the signing
// credential. The core clients never look anything up themselves; they
// receive the fully-resolved values produced here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"

	"github.com/attestkit/attestations-framework/chain/evm"
	"github.com/attestkit/attestations-framework/registry"
)

// Config is the raw deployment configuration.
//
// WARNING: This data type contains sensitive fields and should not be
// logged.
type Config struct {
	// Network is one of the supported environment names ("mainnet" or
	// "sepolia").
	Network string `mapstructure:"network" yaml:"network"`
	// RPCs are the EVM node endpoints, tried in order.
	RPCs []evm.RPC `mapstructure:"rpcs" yaml:"rpcs"`
	// IndexerURL overrides the network's default index endpoint.
	IndexerURL string `mapstructure:"indexer_url" yaml:"indexer_url,omitempty"`
	// SignerKey is the hex encoded private key of the attesting account. Secret.
	SignerKey string `mapstructure:"signer_key" yaml:"signer_key"`
	// GasLimit optionally fixes the gas limit instead of estimating.
	GasLimit uint64 `mapstructure:"gas_limit" yaml:"gas_limit,omitempty"`
}

// envBindings maps config keys to the environment variables that can
// provide their values. Viper uses the first variable that is set.
var envBindings = map[string][]string{
	"network":     {"ATTEST_NETWORK"},
	"indexer_url": {"ATTEST_INDEXER_URL"},
	"signer_key":  {"ATTEST_SIGNER_KEY"},
	"gas_limit":   {"ATTEST_GAS_LIMIT"},
}

// Load loads the config from the file path, falling back to env vars if
// the file does not exist. If the file exists, any env vars that are set
// override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadEnv loads the config from environment variables only.
func LoadEnv() (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	return nil
}

// String implements fmt.Stringer with the signing key redacted, so the
// config can appear in logs and error output without leaking the secret.
func (c *Config) String() string {
	redacted := *c
	if redacted.SignerKey != "" {
		redacted.SignerKey = "[redacted]"
	}

	return fmt.Sprintf("%+v", redacted)
}

// Validate checks that the resolved configuration is complete enough to
// construct clients.
func (c *Config) Validate() error {
	if c.Network == "" {
		return errors.New("network is required")
	}
	if _, err := registry.NetworkByName(c.Network); err != nil {
		return err
	}
	if len(c.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}
	if c.SignerKey == "" {
		return errors.New("signer key is required")
	}

	return nil
}

// ResolveNetwork returns the network preset named by the config.
func (c *Config) ResolveNetwork() (registry.Network, error) {
	return registry.NetworkByName(c.Network)
}

// SignerGenerator builds the transactor generator for the configured
// signing key.
func (c *Config) SignerGenerator() evm.SignerGenerator {
	opts := []evm.GeneratorOption{}
	if c.GasLimit > 0 {
		opts = append(opts, evm.WithGasLimit(c.GasLimit))
	}

	return evm.TransactorFromRaw(c.SignerKey, opts...)
}
