package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"github.com/dappnode/smoothing-pool-ops/internal/adapters/verification"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// UpgradeRenderer renders prepared timelock operations
type UpgradeRenderer struct {
	out     io.Writer
	decoded *DecodedCallRenderer
	verbose bool
}

// NewUpgradeRenderer creates a new upgrade renderer. verbose adds the decoded
// schedule call of every operation.
func NewUpgradeRenderer(out io.Writer, verbose bool) *UpgradeRenderer {
	return &UpgradeRenderer{
		out:     out,
		decoded: NewDecodedCallRenderer(out),
		verbose: verbose,
	}
}

// RenderUpgradeResult renders every prepared proxy upgrade
func (r *UpgradeRenderer) RenderUpgradeResult(result *usecase.UpgradeProxiesResult) error {
	r.renderHeader(result.Network)
	r.field("Proxy admin", result.ProxyAdmin.Hex())
	r.field("Timelock", result.Timelock.Hex())

	for _, output := range result.Outputs {
		fmt.Fprintln(r.out)
		color.New(color.FgGreen, color.Bold).Fprintf(r.out, "%s\n", output.ContractName)
		r.field("Proxy", output.Proxy.Hex())
		r.field("Implementation", output.Implementation.Hex())
		if output.Deployed {
			r.field("Deploy tx", output.DeployTx.Hex())
		}
		if err := r.renderPayload(output); err != nil {
			return err
		}
		if output.Deployed && result.Network != nil && !result.Network.IsLocal() {
			r.renderVerifyHint(output, result.Network.ChainID)
		}
	}
	return nil
}

// RenderUpdateDelayResult renders a prepared delay update
func (r *UpgradeRenderer) RenderUpdateDelayResult(result *usecase.UpdateDelayResult) error {
	r.renderHeader(result.Network)
	r.field("New delay", fmt.Sprintf("%ss", result.NewDelay))
	return r.renderPayload(result.Output)
}

func (r *UpgradeRenderer) renderHeader(network *config.Network) {
	if network == nil {
		return
	}
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Timelock operations on %s (chain %d)\n", network.Name, network.ChainID)
}

func (r *UpgradeRenderer) renderPayload(output *models.UpgradeOutput) error {
	payload := output.Payload
	r.field("Operation id", payload.OperationID.Hex())
	if payload.Predecessor != (common.Hash{}) {
		r.field("Predecessor", payload.Predecessor.Hex())
	}
	r.field("Delay", fmt.Sprintf("%ss", payload.Delay))
	r.field("Schedule data", shorten(FormatValue(payload.ScheduleData), maxValueWidth))
	r.field("Execute data", shorten(FormatValue(payload.ExecuteData), maxValueWidth))
	if output.Path != "" {
		r.field("Written to", output.Path)
	}

	if !r.verbose {
		return nil
	}
	fmt.Fprintln(r.out)
	return r.decoded.Render(payload.Decoded)
}

func (r *UpgradeRenderer) renderVerifyHint(output *models.UpgradeOutput, chainID uint64) {
	target := models.VerificationTarget{
		ContractName:    output.ContractName,
		ContractPath:    output.ContractPath,
		Address:         output.Implementation,
		ConstructorArgs: output.ConstructorArgs,
	}
	fmt.Fprintln(r.out)
	color.New(color.FgYellow).Fprintln(r.out, "Verify the new implementation with:")
	fmt.Fprintf(r.out, "  %s\n", verification.VerifyCommand(target, chainID))
}

func (r *UpgradeRenderer) field(label, value string) {
	fmt.Fprintf(r.out, "  %-15s %s\n", label+":", value)
}
