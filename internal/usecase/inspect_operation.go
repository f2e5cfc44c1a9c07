package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/pkg/timelock"
)

// Interface names that resolve without compiled artifacts
const (
	InterfaceTimelock   = "timelock"
	InterfaceProxyAdmin = "proxy-admin"
)

// InspectOperation computes operation ids and decodes calldata offline
type InspectOperation struct {
	artifacts ArtifactRepository
	decoder   CallDecoder
	log       *slog.Logger
}

// NewInspectOperation creates a new inspect operation use case
func NewInspectOperation(artifacts ArtifactRepository, decoder CallDecoder, log *slog.Logger) *InspectOperation {
	return &InspectOperation{
		artifacts: artifacts,
		decoder:   decoder,
		log:       log.With("component", "InspectOperation"),
	}
}

// OperationIDOptions are the five hashed fields plus the id form
type OperationIDOptions struct {
	Target      common.Address
	Value       *big.Int
	Data        []byte
	Predecessor common.Hash
	Salt        common.Hash
	Encoding    timelock.IDEncoding
}

// OperationID returns the operation for the given fields
func (uc *InspectOperation) OperationID(opts OperationIDOptions) (*timelock.Operation, error) {
	encoding := opts.Encoding
	if encoding == "" {
		encoding = timelock.EncodingPacked
	}
	return timelock.NewOperation(opts.Target, opts.Value, opts.Data, opts.Predecessor, opts.Salt, encoding)
}

// DecodeOptions contains options for decoding calldata
type DecodeOptions struct {
	Data []byte
	// Interfaces names the ABI of each nesting level, outermost first. Names
	// other than the builtins are looked up among compiled artifacts.
	Interfaces []string
}

// Decode decodes calldata against the named interface chain
func (uc *InspectOperation) Decode(ctx context.Context, opts DecodeOptions) (*models.DecodedCall, error) {
	names := opts.Interfaces
	if len(names) == 0 {
		names = []string{InterfaceTimelock, InterfaceProxyAdmin}
	}

	interfaces := make([]*abi.ABI, 0, len(names))
	for _, name := range names {
		parsed, err := uc.resolveInterface(ctx, name)
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, parsed)
	}

	uc.log.Debug("decoding calldata", "bytes", len(opts.Data), "interfaces", names)
	return uc.decoder.Decode(opts.Data, interfaces...)
}

func (uc *InspectOperation) resolveInterface(ctx context.Context, name string) (*abi.ABI, error) {
	switch strings.ToLower(name) {
	case InterfaceTimelock, "timelockcontroller":
		return bindings.NewTimelockController().ABI(), nil
	case InterfaceProxyAdmin, "proxyadmin":
		return bindings.NewProxyAdmin().ABI(), nil
	}

	artifact, err := uc.artifacts.GetArtifact(ctx, name)
	if err != nil {
		return nil, err
	}
	if artifact.ABI == nil {
		return nil, fmt.Errorf("artifact %s has no ABI", name)
	}
	return artifact.ABI, nil
}
