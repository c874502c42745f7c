package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/deploy"
)

var (
	// Server flags
	port         int
	bindAddr     string
	enableGRPC   bool
	deployOnBoot bool
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the escrowd node",
	Long: `Start the escrowd node which provides:
- HTTP JSON-RPC API (eth_*, net_*, web3_*, evm_* and escrowd_* methods)
- WebSocket subscriptions (newHeads, logs)
- Prometheus metrics and a health check endpoint
- An optional gRPC gateway to the same methods

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}

	// Server-specific flags
	for _, c := range []*cobra.Command{serverCmd, rootCmd} {
		c.Flags().IntVarP(&port, "port", "p", 0, "JSON-RPC port (overrides server.port)")
		c.Flags().StringVar(&bindAddr, "bind", "", "JSON-RPC bind address (overrides server.bind)")
		c.Flags().BoolVar(&enableGRPC, "grpc", false, "enable the gRPC gateway")
		c.Flags().BoolVar(&deployOnBoot, "deploy", false, "run the deployment module once the chain is up")
	}
}

func applyServerFlags() {
	if port != 0 {
		cfg.Server.Port = port
	}
	if bindAddr != "" {
		cfg.Server.Bind = bindAddr
	}
	if enableGRPC {
		cfg.GRPC.Enabled = true
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	applyServerFlags()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := openNode(ctx, cfg)
	if err != nil {
		return err
	}
	defer n.close()

	if deployOnBoot {
		d, err := deployLocal(ctx, n)
		if err != nil {
			return fmt.Errorf("deployment failed: %w", err)
		}
		if err := writeDeployment(cmd, d); err != nil {
			return err
		}
	}
	return n.run(ctx)
}

// deployLocal runs the deployment module straight against the node's chain.
func deployLocal(ctx context.Context, n *node) (*deploy.Deployment, error) {
	roles, err := deploy.RolesFromAccounts(n.chain.Signers().Addresses())
	if err != nil {
		return nil, err
	}
	opts, err := deployOptions(roles)
	if err != nil {
		return nil, err
	}
	opts.ChainID = n.chain.ChainID()

	// the module waits for each receipt, so seal as it goes
	if !n.chain.AutoMine() {
		if err := n.chain.SetAutoMine(ctx, true); err != nil {
			return nil, err
		}
		defer n.chain.SetAutoMine(ctx, false)
	}
	return deploy.Run(ctx, bind.NewChainBackend(n.chain), opts)
}
