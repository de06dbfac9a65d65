package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignerGenerator generates geth *bind.TransactOpts instances used to sign
// transactions. The generated transactor holds the one signing credential a
// client instance uses for its lifetime.
type SignerGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
}

var (
	_ SignerGenerator = (*transactorFromRaw)(nil)
	_ SignerGenerator = (*transactorRandom)(nil)
)

// GeneratorOptions contains configuration options for the SignerGenerator.
type GeneratorOptions struct {
	gasLimit uint64
}

// GeneratorOption is a function that modifies GeneratorOptions.
type GeneratorOption func(*GeneratorOptions)

// WithGasLimit sets a fixed gas limit on generated transactors instead of
// estimating per transaction.
func WithGasLimit(gasLimit uint64) GeneratorOption {
	return func(opts *GeneratorOptions) {
		opts.gasLimit = gasLimit
	}
}

// TransactorFromRaw returns a generator which creates a transactor from a
// hex encoded raw private key.
func TransactorFromRaw(privKey string, opts ...GeneratorOption) SignerGenerator {
	defaultOpts := &GeneratorOptions{
		gasLimit: 0,
	}
	for _, opt := range opts {
		opt(defaultOpts)
	}

	return &transactorFromRaw{
		privKey:  privKey,
		gasLimit: defaultOpts.gasLimit,
	}
}

type transactorFromRaw struct {
	privKey  string
	gasLimit uint64
}

// Generate parses the hex encoded private key and returns the bind
// transactor options. The key itself never appears in returned errors.
func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := crypto.HexToECDSA(g.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	transactor, err := bind.NewKeyedTransactorWithChainID(privKey, chainID)
	if err != nil {
		return nil, err
	}
	if g.gasLimit > 0 {
		transactor.GasLimit = g.gasLimit
	}

	return transactor, nil
}

// TransactorRandom returns a SignerGenerator that creates a transactor with
// a random private key. The key is generated on the first Generate call and
// reused afterwards.
func TransactorRandom() SignerGenerator {
	return &transactorRandom{}
}

type transactorRandom struct {
	privKey *ecdsa.PrivateKey
}

func (g *transactorRandom) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	if g.privKey == nil {
		privKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate private key: %w", err)
		}
		g.privKey = privKey
	}

	return bind.NewKeyedTransactorWithChainID(g.privKey, chainID)
}
