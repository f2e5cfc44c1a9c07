package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/pkg/timelock"
)

// MinDelaySource selects where the scheduling delay comes from
type MinDelaySource string

const (
	// MinDelayFromParameters uses timelockMinDelay of the parameters record (0 when absent)
	MinDelayFromParameters MinDelaySource = "params"
	// MinDelayFromChain reads getMinDelay() from the timelock
	MinDelayFromChain MinDelaySource = "chain"
)

// ParseMinDelaySource parses a delay source name
func ParseMinDelaySource(s string) (MinDelaySource, error) {
	switch MinDelaySource(s) {
	case MinDelayFromParameters, MinDelayFromChain:
		return MinDelaySource(s), nil
	default:
		return "", fmt.Errorf("unknown min delay source %q (expected params or chain)", s)
	}
}

// timelockSettings are the scheduling inputs shared by every operation of a run
type timelockSettings struct {
	Timelock    common.Address
	Salt        common.Hash
	Predecessor common.Hash
	Delay       *big.Int
	Encoding    timelock.IDEncoding
}

// parseTimelockSettings reads salt, predecessor and id encoding from the record.
// Timelock and Delay are filled by the caller.
func parseTimelockSettings(params *models.UpgradeParameters) (*timelockSettings, error) {
	salt, err := timelock.ParseHash(params.TimelockSalt)
	if err != nil {
		return nil, fmt.Errorf("%w: timelockSalt: %v", domain.ErrInvalidParameters, err)
	}
	predecessor, err := timelock.ParseHash(params.TimelockPredecessor)
	if err != nil {
		return nil, fmt.Errorf("%w: timelockPredecessor: %v", domain.ErrInvalidParameters, err)
	}
	encoding, err := timelock.ParseIDEncoding(params.TimelockIDEncoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidParameters, err)
	}
	return &timelockSettings{
		Salt:        salt,
		Predecessor: predecessor,
		Encoding:    encoding,
	}, nil
}

// resolveMinDelay returns the delay to schedule with
func resolveMinDelay(ctx context.Context, chain ChainClient, source MinDelaySource, params *models.UpgradeParameters, timelockAddr common.Address) (*big.Int, error) {
	if source == MinDelayFromChain {
		delay, err := chain.MinDelay(ctx, timelockAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read min delay of %s: %w", timelockAddr.Hex(), err)
		}
		return delay, nil
	}
	return new(big.Int).SetUint64(params.TimelockMinDelay), nil
}

// checkPredecessor fails when a non-zero predecessor has not been executed yet
func checkPredecessor(ctx context.Context, chain ChainClient, settings *timelockSettings) error {
	if settings.Predecessor == (common.Hash{}) {
		return nil
	}
	done, err := chain.IsOperationDone(ctx, settings.Timelock, settings.Predecessor)
	if err != nil {
		return fmt.Errorf("failed to check predecessor %s: %w", settings.Predecessor.Hex(), err)
	}
	if !done {
		return fmt.Errorf("%w: %s", domain.ErrPredecessorNotDone, settings.Predecessor.Hex())
	}
	return nil
}

// buildTimelockPayload encodes schedule and execute calldata for one operation
// and decodes the schedule call for review. nested are the interfaces used to
// decode the inner call, outermost first.
func buildTimelockPayload(decoder CallDecoder, settings *timelockSettings, target common.Address, data []byte, nested ...*abi.ABI) (*models.TimelockPayload, error) {
	op, err := timelock.NewOperation(target, big.NewInt(0), data, settings.Predecessor, settings.Salt, settings.Encoding)
	if err != nil {
		return nil, err
	}

	scheduleData, err := timelock.EncodeSchedule(op, settings.Delay)
	if err != nil {
		return nil, err
	}
	executeData, err := timelock.EncodeExecute(op)
	if err != nil {
		return nil, err
	}

	interfaces := append([]*abi.ABI{bindings.NewTimelockController().ABI()}, nested...)
	decoded, err := decoder.Decode(scheduleData, interfaces...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode schedule data: %w", err)
	}

	return &models.TimelockPayload{
		OperationID:  op.ID,
		Target:       target,
		Data:         op.Data,
		Predecessor:  op.Predecessor,
		Salt:         op.Salt,
		Delay:        new(big.Int).Set(settings.Delay),
		ScheduleData: scheduleData,
		ExecuteData:  executeData,
		Timelock:     settings.Timelock,
		Decoded:      decoded,
	}, nil
}
