package cli

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/rpc/client"
)

var (
	showKeys    bool
	accountsURL string
	weiPerEther = big.NewInt(1_000_000_000_000_000_000)
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the devnet signer accounts",
	Long: `List the deterministic signer accounts of the configured chain. The
first four act as buyer, seller, inspector and lender. With --url the
balances are read from a running node.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		signers := account.Defaults()
		if len(cfg.Chain.Signers) > 0 {
			signers = account.NewSet(cfg.Chain.Signers...)
		}

		var ec *client.Client
		if accountsURL != "" {
			var err error
			if ec, err = client.Dial(cmd.Context(), accountsURL); err != nil {
				return fmt.Errorf("failed to connect to %s: %w", accountsURL, err)
			}
			defer ec.Close()
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		header := "#\tNAME\tADDRESS"
		if ec != nil {
			header += "\tBALANCE (ETH)"
		}
		if showKeys {
			header += "\tPRIVATE KEY"
		}
		fmt.Fprintln(w, header)
		for i, s := range signers.All() {
			line := fmt.Sprintf("%d\t%s\t%s", i, s.Name, s.Address.Hex())
			if ec != nil {
				bal, err := balanceOf(cmd.Context(), ec, s)
				if err != nil {
					return err
				}
				line += "\t" + bal
			}
			if showKeys {
				line += "\t" + s.PrivateKeyHex()
			}
			fmt.Fprintln(w, line)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)

	accountsCmd.Flags().BoolVar(&showKeys, "keys", false, "also print private keys")
	accountsCmd.Flags().StringVar(&accountsURL, "url", "", "read balances from the node at this JSON-RPC URL")
}

func balanceOf(ctx context.Context, ec *client.Client, s *account.Signer) (string, error) {
	wei, err := ec.BalanceAt(ctx, s.Address)
	if err != nil {
		return "", err
	}
	return formatEther(wei), nil
}

// formatEther renders wei as a decimal ether amount without trailing zeros.
func formatEther(wei *big.Int) string {
	q, r := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := new(big.Int).Abs(r).String()
	frac = strings.Repeat("0", 18-len(frac)) + frac
	return q.String() + "." + strings.TrimRight(frac, "0")
}
