package cli

import (
	"github.com/spf13/cobra"

	"github.com/dappnode/smoothing-pool-ops/internal/cli/render"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

const (
	defaultParameters = "upgrade/upgrade_parameters.json"
	defaultOutputDir  = "upgrade"
)

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	var (
		parameters     string
		outputDir      string
		skipBuild      bool
		minDelaySource string
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Prepare timelock operations that upgrade proxies",
		Long: `Prepare timelock operations that upgrade the proxies listed in the upgrade parameters.

New implementations are deployed unless an entry names one. For every entry
the schedule and execute calldata is written to
<output-dir>/upgrade_output_<unix>_<index>_<contract>.json, ready to be
proposed to the timelock.

Examples:
  spops upgrade --network hoodi
  spops upgrade -n mainnet --parameters upgrade/upgrade_parameters.yaml
  spops upgrade -n mainnet --skip-build --min-delay-source chain -v`,
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

			result, err := app.UpgradeProxies.Run(cmd.Context(), usecase.UpgradeProxiesOptions{
				ParametersPath: projectPath(app, parameters),
				OutputDir:      projectPath(app, outputDir),
				SkipBuild:      skipBuild,
				MinDelaySource: source,
			})
			if err != nil {
				return err
			}

			return render.NewUpgradeRenderer(cmd.OutOrStdout(), verbose).RenderUpgradeResult(result)
		},
	}

	cmd.Flags().StringVar(&parameters, "parameters", defaultParameters, "Upgrade parameters file (JSON or YAML)")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaultOutputDir, "Directory for the output files")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "Do not run forge build first")
	cmd.Flags().StringVar(&minDelaySource, "min-delay-source", string(usecase.MinDelayFromParameters), "Where the operation delay comes from (params, chain)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the decoded schedule calls")

	return cmd
}
