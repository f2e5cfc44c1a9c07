package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// Render renders one line per contract
func (r *VerifyRenderer) Render(result *usecase.VerifyContractsResult) error {
	if result.Network != nil {
		color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Contracts on %s (chain %d):\n", result.Network.Name, result.Network.ChainID)
	}

	for _, res := range result.Results {
		fmt.Fprintf(r.out, "  %s %s at %s: %s\n",
			statusIcon(res.Status),
			color.New(color.Bold).Sprint(res.Target.ContractName),
			res.Target.Address.Hex(),
			statusLabel(res.Status),
		)
		if res.URL != "" {
			fmt.Fprintf(r.out, "    %s\n", color.New(color.Faint).Sprint(res.URL))
		}
	}
	return nil
}

func statusIcon(status models.VerificationStatus) string {
	switch status {
	case models.VerificationStatusVerified:
		return color.New(color.FgGreen).Sprint("✓")
	case models.VerificationStatusAlreadyVerified:
		return color.New(color.FgCyan).Sprint("✓")
	default:
		return color.New(color.FgRed).Sprint("✗")
	}
}

// statusLabel turns ALREADY_VERIFIED into "Already Verified"
func statusLabel(status models.VerificationStatus) string {
	words := strings.ReplaceAll(strings.ToLower(string(status)), "_", " ")
	return cases.Title(language.English).String(words)
}

var _ Renderer[*usecase.VerifyContractsResult] = (*VerifyRenderer)(nil)
