package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dappnode/smoothing-pool-ops/internal/adapters/progress"
	"github.com/dappnode/smoothing-pool-ops/internal/app"
	"github.com/dappnode/smoothing-pool-ops/internal/config"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spops",
		Short: "Post-deployment operations for the smoothing pool contracts",
		Long: `spops verifies deployed smoothing pool contracts on block explorers and
prepares timelock operations that upgrade its proxies or change the timelock delay.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if skipsApp(cmd) {
				return nil
			}

			projectRoot, _ := cmd.Flags().GetString("project-root")
			if projectRoot == "" {
				var err error
				projectRoot, err = config.FindProjectRoot()
				if err != nil {
					// Offline helpers work outside a Foundry project
					projectRoot = "."
				}
			}

			// Set up viper
			v := config.SetupViper(projectRoot)

			// Bind global flags that have been set
			bindGlobalFlags(v, cmd)

			// Initialize app with DI
			appInstance, err := app.InitApp(v, newProgressSink(cmd, v))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				// Store cancel func to be called on command completion
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., mainnet, hoodi)")
	rootCmd.PersistentFlags().String("project-root", "", "Project root (defaults to the nearest directory with foundry.toml)")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "offline",
		Title: "Offline Helpers",
	})

	// Main commands
	verifyCmd := NewVerifyCmd()
	verifyCmd.GroupID = "main"
	rootCmd.AddCommand(verifyCmd)

	upgradeCmd := NewUpgradeCmd()
	upgradeCmd.GroupID = "main"
	rootCmd.AddCommand(upgradeCmd)

	updateDelayCmd := NewUpdateDelayCmd()
	updateDelayCmd.GroupID = "main"
	rootCmd.AddCommand(updateDelayCmd)

	// Offline helpers
	operationIDCmd := NewOperationIDCmd()
	operationIDCmd.GroupID = "offline"
	rootCmd.AddCommand(operationIDCmd)

	decodeCmd := NewDecodeCmd()
	decodeCmd.GroupID = "offline"
	rootCmd.AddCommand(decodeCmd)

	// Version command
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func skipsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete":
		return true
	}
	return false
}

// globalFlagKeys maps persistent flags to viper keys
var globalFlagKeys = map[string]string{
	"debug":           "debug",
	"non-interactive": "non_interactive",
	"network":         "network",
	"project-root":    "project_root",
}

// bindGlobalFlags binds flags that have been set to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := globalFlagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

// newProgressSink reports progress on stderr, keeping stdout for results
func newProgressSink(cmd *cobra.Command, v *viper.Viper) usecase.ProgressSink {
	interactive := !config.NonInteractive(v)
	return progress.NewSpinnerProgress(cmd.ErrOrStderr(), interactive)
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// projectPath resolves path against the project root unless it is absolute
func projectPath(a *app.App, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.Config.ProjectRoot, path)
}
