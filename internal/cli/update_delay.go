package cli

import (
	"math/big"

	"github.com/spf13/cobra"

	"github.com/dappnode/smoothing-pool-ops/internal/cli/render"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// NewUpdateDelayCmd creates the update-delay command
func NewUpdateDelayCmd() *cobra.Command {
	var (
		parameters     string
		outputDir      string
		newDelay       uint64
		minDelaySource string
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "update-delay",
		Short: "Prepare a timelock operation that changes the timelock min delay",
		Long: `Prepare a timelock operation that calls updateDelay on the timelock itself.

The timelock is taken from the upgrade parameters (timelockAddress), or found
as the owner of the proxy admin. The result is written to
<output-dir>/upgradeMinDelay.json.

Examples:
  spops update-delay --network hoodi
  spops update-delay -n mainnet --new-delay 86400
  spops update-delay -n mainnet --min-delay-source params`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			source, err := usecase.ParseMinDelaySource(minDelaySource)
			if err != nil {
				return err
			}

			result, err := app.UpdateDelay.Run(cmd.Context(), usecase.UpdateDelayOptions{
				ParametersPath: projectPath(app, parameters),
				OutputDir:      projectPath(app, outputDir),
				NewDelay:       new(big.Int).SetUint64(newDelay),
				MinDelaySource: source,
			})
			if err != nil {
				return err
			}

			return render.NewUpgradeRenderer(cmd.OutOrStdout(), verbose).RenderUpdateDelayResult(result)
		},
	}

	cmd.Flags().StringVar(&parameters, "parameters", defaultParameters, "Upgrade parameters file (JSON or YAML)")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaultOutputDir, "Directory for the output file")
	cmd.Flags().Uint64Var(&newDelay, "new-delay", usecase.DefaultNewMinDelay, "New timelock min delay (seconds)")
	cmd.Flags().StringVar(&minDelaySource, "min-delay-source", string(usecase.MinDelayFromChain), "Where the operation delay comes from (params, chain)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the decoded schedule call")

	return cmd
}
