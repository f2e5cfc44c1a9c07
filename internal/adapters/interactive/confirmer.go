package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// ConfirmerAdapter asks yes/no questions on the terminal
type ConfirmerAdapter struct {
	nonInteractive bool
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{nonInteractive: cfg.NonInteractive}
}

// Confirm returns true when the user answers yes. In non-interactive mode
// every question is answered yes.
func (c *ConfirmerAdapter) Confirm(ctx context.Context, message string) (bool, error) {
	if c.nonInteractive {
		return true, nil
	}

	prompt := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt):
		return false, fmt.Errorf("prompt interrupted: %w", err)
	default:
		return false, fmt.Errorf("prompt failed: %w", err)
	}
}

// Ensure the adapter implements the interface
var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
