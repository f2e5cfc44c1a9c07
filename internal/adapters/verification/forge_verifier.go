package verification

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// CommandRunner runs a command in dir and returns its combined output
type CommandRunner func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// ForgeVerifier submits sources with forge verify-contract
type ForgeVerifier struct {
	projectRoot string
	apiKey      string
	verifierURL string
	run         CommandRunner
	log         *slog.Logger
}

// NewForgeVerifier creates a new forge verifier
func NewForgeVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *ForgeVerifier {
	return &ForgeVerifier{
		projectRoot: cfg.ProjectRoot,
		apiKey:      cfg.EtherscanAPIKey,
		verifierURL: cfg.EtherscanURL,
		run:         execRunner,
		log:         log.With("component", "ForgeVerifier"),
	}
}

// WithRunner replaces the command runner
func (v *ForgeVerifier) WithRunner(run CommandRunner) *ForgeVerifier {
	v.run = run
	return v
}

// Verify runs forge verify-contract for target
func (v *ForgeVerifier) Verify(ctx context.Context, target models.VerificationTarget, network *config.Network) error {
	args := BuildVerifyArgs(target, network.ChainID, v.verifierURL, v.apiKey)
	v.log.Debug("running forge verify-contract", "contract", target.ContractName, "address", target.Address)

	output, err := v.run(ctx, v.projectRoot, "forge", args...)
	outputStr := strings.TrimSpace(string(output))

	if strings.Contains(strings.ToLower(outputStr), "already verified") {
		return fmt.Errorf("%s: %w", target.ContractName, domain.ErrAlreadyVerified)
	}
	if err != nil {
		return &domain.VerificationError{
			Contract: target.ContractName,
			Address:  target.Address.Hex(),
			Output:   firstNonEmpty(outputStr, err.Error()),
		}
	}

	if strings.Contains(outputStr, "successfully verified") || strings.Contains(outputStr, "Pass - Verified") {
		return nil
	}
	return &domain.VerificationError{
		Contract: target.ContractName,
		Address:  target.Address.Hex(),
		Output:   "verification status unclear: " + outputStr,
	}
}

// BuildVerifyArgs builds the forge verify-contract arguments. An empty apiKey
// leaves the key out, for commands that are shown rather than run.
func BuildVerifyArgs(target models.VerificationTarget, chainID uint64, verifierURL, apiKey string) []string {
	contract := target.ContractPath
	if contract == "" {
		contract = target.ContractName
	}

	args := []string{
		"verify-contract",
		target.Address.Hex(),
		contract,
		"--chain-id", fmt.Sprintf("%d", chainID),
		"--watch",
	}
	if verifierURL != "" {
		args = append(args, "--verifier-url", verifierURL)
	}
	if apiKey != "" {
		args = append(args, "--etherscan-api-key", apiKey)
	}
	if len(target.ConstructorArgs) > 0 {
		args = append(args, "--constructor-args", strings.TrimPrefix(hexutil.Encode(target.ConstructorArgs), "0x"))
	}
	return args
}

// VerifyCommand returns the shell command that verifies target
func VerifyCommand(target models.VerificationTarget, chainID uint64) string {
	return "forge " + strings.Join(BuildVerifyArgs(target, chainID, "", ""), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
