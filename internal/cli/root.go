package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrow/internal/config"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "0.1.0-dev"

var (
	// Global flags
	configFile string
	envFile    string
	debug      bool
	verbose    bool
	quiet      bool

	// cfg is loaded before any subcommand runs
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "escrowd",
	Short: "escrowd - local real estate escrow chain",
	Long: `escrowd runs a local development chain hosting the RealEstate deed
collection and the Escrow sale contract. It serves an Ethereum-style JSON-RPC
API over HTTP and WebSocket, an optional gRPC gateway, and ships the
deployment module that mints the property deeds.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with ESCROWD_ overrides")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (trace) logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
}

// initConfig reads the config file and ESCROWD_ environment variables, then
// installs the logger they describe.
func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(config.ConfigPaths{Main: configFile, Env: envFile})
	if err != nil {
		return err
	}
	cfg = loaded
	return setupLogging(cmd.ErrOrStderr(), cfg.Log)
}

// parseLevel maps a log.level name onto the logger's slog level.
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

func setupLogging(w io.Writer, lc config.LogConfig) error {
	level, err := parseLevel(lc.Level)
	if err != nil {
		return err
	}
	switch {
	case verbose:
		level = log.LevelTrace
	case debug:
		level = log.LevelDebug
	case quiet:
		level = log.LevelError
	}

	var h slog.Handler
	switch lc.Format {
	case "json":
		h = log.JSONHandlerWithLevel(w, level)
	case "logfmt":
		h = log.LogfmtHandlerWithLevel(w, level)
	default:
		h = log.NewTerminalHandlerWithLevel(w, level, false)
	}
	log.SetDefault(log.NewLogger(h))
	return nil
}
