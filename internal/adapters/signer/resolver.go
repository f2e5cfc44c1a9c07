package signer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	hdwallet "github.com/ethereum-optimism/go-ethereum-hdwallet"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

const (
	// DefaultDerivationPath is the first account of the standard Ethereum path
	DefaultDerivationPath = "m/44'/60'/0'/0/0"

	mnemonicEnv = "MNEMONIC"
)

// Resolver picks the deployer key: deployerPvtKey from the parameters, then
// the MNEMONIC environment variable
type Resolver struct {
	lookupEnv func(string) (string, bool)
	log       *slog.Logger
}

// NewResolver creates a new signer resolver
func NewResolver(log *slog.Logger) *Resolver {
	return &Resolver{
		lookupEnv: os.LookupEnv,
		log:       log.With("component", "SignerResolver"),
	}
}

// WithEnvLookup replaces the environment lookup
func (r *Resolver) WithEnvLookup(f func(string) (string, bool)) *Resolver {
	r.lookupEnv = f
	return r
}

// Resolve returns the deployer
func (r *Resolver) Resolve(ctx context.Context, params *models.UpgradeParameters) (*models.Signer, error) {
	if params != nil && params.DeployerPvtKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(params.DeployerPvtKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid deployerPvtKey: %w", err)
		}
		return &models.Signer{
			Address: crypto.PubkeyToAddress(key.PublicKey),
			Key:     key,
			Source:  "deployerPvtKey",
		}, nil
	}

	if mnemonic, ok := r.lookupEnv(mnemonicEnv); ok && strings.TrimSpace(mnemonic) != "" {
		return FromMnemonic(strings.TrimSpace(mnemonic), DefaultDerivationPath)
	}

	return nil, domain.ErrNoSigner
}

// FromMnemonic derives the signer at path
func FromMnemonic(mnemonic, path string) (*models.Signer, error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet from mnemonic: %w", err)
	}

	derivationPath, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %s: %w", path, err)
	}

	account, err := wallet.Derive(derivationPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account: %w", err)
	}

	key, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to get private key: %w", err)
	}

	return &models.Signer{
		Address: account.Address,
		Key:     key,
		Source:  mnemonicEnv,
	}, nil
}

// Ensure the adapter implements the interface
var _ usecase.SignerResolver = (*Resolver)(nil)
