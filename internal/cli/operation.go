package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/dappnode/smoothing-pool-ops/internal/adapters/fs"
	"github.com/dappnode/smoothing-pool-ops/internal/cli/render"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
	"github.com/dappnode/smoothing-pool-ops/pkg/timelock"
)

// NewOperationIDCmd creates the operation-id command
func NewOperationIDCmd() *cobra.Command {
	var (
		target      string
		value       string
		data        string
		predecessor string
		salt        string
		encoding    string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "operation-id",
		Short: "Compute the id of a timelock operation",
		Long: `Compute the id of a timelock operation from its fields. No network is needed.

The packed encoding hashes the tightly packed fields. The abi encoding hashes
their standard ABI encoding, as TimelockController.hashOperation does.

Examples:
  spops operation-id --target 0x... --data 0x99a88ec4...
  spops operation-id --target 0x... --data 0x... --salt 0x...01 --encoding abi --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			opts, err := parseOperationFlags(target, value, data, predecessor, salt, encoding)
			if err != nil {
				return err
			}

			op, err := app.InspectOperation.OperationID(opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), operationDocument(op, opts.Encoding))
			}
			fmt.Fprintln(cmd.OutOrStdout(), op.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target address of the call")
	cmd.Flags().StringVar(&value, "value", "0", "Value sent with the call (wei)")
	cmd.Flags().StringVar(&data, "data", "0x", "Calldata (hex)")
	cmd.Flags().StringVar(&predecessor, "predecessor", "", "Predecessor operation id (defaults to none)")
	cmd.Flags().StringVar(&salt, "salt", "", "Operation salt (defaults to zero)")
	cmd.Flags().StringVar(&encoding, "encoding", string(timelock.EncodingPacked), "Id encoding (packed, abi)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// NewDecodeCmd creates the decode command
func NewDecodeCmd() *cobra.Command {
	var (
		interfaces []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "decode <calldata>",
		Short: "Decode timelock calldata",
		Long: `Decode calldata against a chain of interfaces. No network is needed.

The first interface decodes the calldata itself. A bytes argument named data
or payload is decoded against the next interface, and so on. The builtin
names are timelock and proxy-admin; any other name is looked up among the
compiled artifacts.

Examples:
  spops decode 0x01d5062a...
  spops decode 0x134008d3... --interface timelock --interface proxy-admin --json
  spops decode 0x9623609d... --interface proxy-admin --interface DappnodeSmoothingPool`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			calldata, err := hexutil.Decode(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid calldata: %w", err)
			}

			call, err := app.InspectOperation.Decode(cmd.Context(), usecase.DecodeOptions{
				Data:       calldata,
				Interfaces: interfaces,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), call.Document(true))
			}
			return render.NewDecodedCallRenderer(cmd.OutOrStdout()).Render(call)
		},
	}

	cmd.Flags().StringSliceVarP(&interfaces, "interface", "i", nil, "Interface of each nesting level, outermost first (default timelock,proxy-admin)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func parseOperationFlags(target, value, data, predecessor, salt, encoding string) (usecase.OperationIDOptions, error) {
	var opts usecase.OperationIDOptions

	if !common.IsHexAddress(target) {
		return opts, fmt.Errorf("invalid --target address: %q", target)
	}
	opts.Target = common.HexToAddress(target)

	v, ok := new(big.Int).SetString(strings.TrimSpace(value), 0)
	if !ok || v.Sign() < 0 {
		return opts, fmt.Errorf("invalid --value: %q", value)
	}
	opts.Value = v

	if data != "" && data != "0x" {
		b, err := hexutil.Decode(data)
		if err != nil {
			return opts, fmt.Errorf("invalid --data: %w", err)
		}
		opts.Data = b
	}

	var err error
	if opts.Predecessor, err = timelock.ParseHash(predecessor); err != nil {
		return opts, fmt.Errorf("invalid --predecessor: %w", err)
	}
	if opts.Salt, err = timelock.ParseHash(salt); err != nil {
		return opts, fmt.Errorf("invalid --salt: %w", err)
	}
	if opts.Encoding, err = timelock.ParseIDEncoding(encoding); err != nil {
		return opts, err
	}
	return opts, nil
}

func operationDocument(op *timelock.Operation, encoding timelock.IDEncoding) models.Document {
	return models.Document{
		{Key: "operationId", Value: op.ID},
		{Key: "encoding", Value: string(encoding)},
		{Key: "target", Value: op.Target},
		{Key: "value", Value: op.Value},
		{Key: "data", Value: op.Data},
		{Key: "predecessor", Value: op.Predecessor},
		{Key: "salt", Value: op.Salt},
	}
}

func writeJSON(out io.Writer, doc models.Document) error {
	data, err := fs.MarshalDocument(doc, fs.HexValueEncoder{}, "  ")
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
