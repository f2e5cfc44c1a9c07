package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

var gwei = big.NewRat(1_000_000_000, 1)

// ParametersLoader reads parameter and deployment records from disk.
// Files ending in .yaml or .yml are read as YAML, everything else as JSON.
type ParametersLoader struct {
	validate *validator.Validate
	log      *slog.Logger
}

// NewParametersLoader creates a new parameters loader
func NewParametersLoader(log *slog.Logger) *ParametersLoader {
	return &ParametersLoader{
		validate: validator.New(),
		log:      log.With("component", "ParametersLoader"),
	}
}

// LoadUpgradeParameters reads and validates an upgrade parameters record
func (l *ParametersLoader) LoadUpgradeParameters(ctx context.Context, path string) (*models.UpgradeParameters, error) {
	var params models.UpgradeParameters
	if err := decodeFile(path, &params); err != nil {
		return nil, err
	}
	if err := l.validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParameters, path, err)
	}

	var err error
	params.TimelockMinDelay, err = parseMinDelay(params.RawTimelockMinDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParameters, path, err)
	}

	fees, err := parseFeeOverride(&params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParameters, path, err)
	}
	params.Fees = fees

	l.log.Debug("loaded upgrade parameters", "path", path, "upgrades", len(params.Upgrades), "fees", fees.Mode)
	return &params, nil
}

// LoadDeployOutput reads and validates a deployment output record
func (l *ParametersLoader) LoadDeployOutput(ctx context.Context, path string) (*models.DeployOutput, error) {
	var out models.DeployOutput
	if err := decodeFile(path, &out); err != nil {
		return nil, err
	}
	if err := l.validate.Struct(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParameters, path, err)
	}
	return &out, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		// numbers stay exact so large constructor arguments survive
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}

// parseMinDelay accepts the delay in seconds as a number or a numeric string
func parseMinDelay(raw any) (uint64, error) {
	if raw == nil {
		return 0, nil
	}
	if n, ok := raw.(json.Number); ok {
		raw = n.String()
	}
	delay, err := cast.ToUint64E(raw)
	if err != nil {
		return 0, fmt.Errorf("timelockMinDelay: %w", err)
	}
	return delay, nil
}

// parseFeeOverride normalizes the gas fields. Both caps select fixed mode,
// otherwise multiplierGas selects multiplier mode.
func parseFeeOverride(params *models.UpgradeParameters) (models.FeeOverride, error) {
	if !params.HasFeeOverride() {
		return models.FeeOverride{}, nil
	}

	if params.MaxFeePerGas != "" && params.MaxPriorityFeePerGas != "" {
		maxFee, err := parseGwei(params.MaxFeePerGas)
		if err != nil {
			return models.FeeOverride{}, fmt.Errorf("maxFeePerGas: %w", err)
		}
		tip, err := parseGwei(params.MaxPriorityFeePerGas)
		if err != nil {
			return models.FeeOverride{}, fmt.Errorf("maxPriorityFeePerGas: %w", err)
		}
		return models.FeeOverride{
			Mode:                 models.FeeOverrideFixed,
			MaxFeePerGas:         maxFee,
			MaxPriorityFeePerGas: tip,
		}, nil
	}

	if params.MultiplierGas == nil {
		return models.FeeOverride{}, fmt.Errorf("maxFeePerGas needs maxPriorityFeePerGas")
	}

	multiplier := params.MultiplierGas
	if n, ok := multiplier.(json.Number); ok {
		multiplier = n.String()
	}
	perMille, err := cast.ToInt64E(multiplier)
	if err != nil {
		return models.FeeOverride{}, fmt.Errorf("multiplierGas: %w", err)
	}
	if perMille <= 0 {
		return models.FeeOverride{}, fmt.Errorf("multiplierGas must be positive, got %d", perMille)
	}
	return models.FeeOverride{Mode: models.FeeOverrideMultiplier, MultiplierPerMille: perMille}, nil
}

// parseGwei converts a decimal gwei amount to wei
func parseGwei(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid gwei amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative gwei amount %q", s)
	}
	wei := r.Mul(r, gwei)
	if !wei.IsInt() {
		return nil, fmt.Errorf("%q gwei is not a whole number of wei", s)
	}
	return new(big.Int).Set(wei.Num()), nil
}

// Ensure the adapter implements the interface
var _ usecase.ParametersLoader = (*ParametersLoader)(nil)
