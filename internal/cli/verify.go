package cli

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/dappnode/smoothing-pool-ops/internal/cli/render"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

const defaultDeployOutput = "deployment/deploy_output.json"

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var (
		deployOutput     string
		timelockMinDelay uint64
		timelockAdmin    string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the smoothing pool and its timelock on the block explorer",
		Long: `Verify the deployed smoothing pool and timelock contracts on the block explorer.

The addresses are read from the deployment output. Contracts the explorer
already knows are reported as such and do not fail the run.

Examples:
  spops verify --network hoodi
  spops verify -n mainnet --deploy-output deployment/deploy_output.json
  spops verify -n mainnet --timelock-min-delay 86400 --timelock-admin 0x...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			opts := usecase.VerifyContractsOptions{
				DeployOutputPath: projectPath(app, deployOutput),
				TimelockMinDelay: new(big.Int).SetUint64(timelockMinDelay),
			}
			if timelockAdmin != "" {
				if !common.IsHexAddress(timelockAdmin) {
					return fmt.Errorf("invalid --timelock-admin address: %s", timelockAdmin)
				}
				opts.TimelockAdmin = common.HexToAddress(timelockAdmin)
			}

			result, err := app.VerifyContracts.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			return render.NewVerifyRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&deployOutput, "deploy-output", defaultDeployOutput, "Deployment output with the contract addresses")
	cmd.Flags().Uint64Var(&timelockMinDelay, "timelock-min-delay", usecase.DefaultTimelockMinDelay, "Timelock min delay the contract was deployed with (seconds)")
	cmd.Flags().StringVar(&timelockAdmin, "timelock-admin", usecase.DefaultTimelockAdmin, "Timelock admin the contract was deployed with")

	return cmd
}
