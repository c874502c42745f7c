package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrow/internal/deploy"
	"github.com/LeJamon/goEscrow/internal/rpc/client"
)

var (
	// Deploy flags
	deployURL     string
	deployParams  map[string]string
	deployEscrow  bool
	deployVerify  bool
	deployOutFile string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the RealEstate deployment module against a node",
	Long: `Deploy the RealEstate contract from the seller account and mint the
property deeds whose metadata lives under deploy.metadata_base_url. The
buyer, seller, inspector and lender are the node's first four accounts.

The deployment record is written as YAML to --out, or stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		url := deployURL
		if url == "" {
			url = cfg.Server.URL()
		}
		ec, err := client.Dial(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", url, err)
		}
		defer ec.Close()

		accounts, err := ec.Accounts(ctx)
		if err != nil {
			return err
		}
		roles, err := deploy.RolesFromAccounts(accounts)
		if err != nil {
			return err
		}
		opts, err := deployOptions(roles)
		if err != nil {
			return err
		}
		if opts.ChainID, err = ec.ChainID(ctx); err != nil {
			return err
		}

		d, err := deploy.Run(ctx, ec, opts)
		if err != nil {
			return err
		}
		return writeDeployment(cmd, d)
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVar(&deployURL, "url", "", "node JSON-RPC URL (default: the configured server address)")
	deployCmd.Flags().StringToStringVar(&deployParams, "param", nil, "module parameter override, e.g. --param unlockTime=1893456000")
	deployCmd.Flags().BoolVar(&deployEscrow, "with-escrow", false, "also deploy an Escrow over the collection")
	deployCmd.Flags().BoolVar(&deployVerify, "verify-metadata", false, "fetch and validate each deed's metadata before minting")
	deployCmd.Flags().StringVarP(&deployOutFile, "out", "o", "", "write the deployment record to this file")
}

// deployOptions merges the deploy section with command flags.
func deployOptions(roles deploy.Roles) (deploy.Options, error) {
	dc := cfg.Deploy
	opts := deploy.DefaultOptions(roles)
	opts.BaseURL = dc.MetadataBaseURL
	opts.MintCount = dc.MintCount
	opts.WithEscrow = dc.WithEscrow || deployEscrow
	opts.Logger = log.New("module", deploy.ModuleName)

	raw := map[string]interface{}{
		"unlockTime":   dc.UnlockTime,
		"lockedAmount": dc.LockedAmount,
	}
	for k, v := range deployParams {
		raw[k] = v
	}
	// flags may use either spelling of a key
	for _, pair := range [][2]string{{"unlock_time", "unlockTime"}, {"locked_amount", "lockedAmount"}} {
		if v, ok := raw[pair[0]]; ok {
			raw[pair[1]] = v
			delete(raw, pair[0])
		}
	}
	params, err := deploy.ParseParams(raw)
	if err != nil {
		return opts, err
	}
	opts.Params = params

	if dc.VerifyMetadata || deployVerify {
		opts.Verifier = deploy.NewMetadataVerifier(nil)
	}
	return opts, nil
}

// writeDeployment prints or saves the record.
func writeDeployment(cmd *cobra.Command, d *deploy.Deployment) error {
	out := deployOutFile
	if out == "" {
		out = cfg.Deploy.Output
	}
	if out == "" {
		return d.WriteYAML(cmd.OutOrStdout())
	}
	if err := d.Save(out); err != nil {
		return err
	}
	log.Info("Deployment saved", "path", out, "realEstate", d.RealEstate, "tokens", len(d.Tokens))
	return nil
}
