package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/config"
	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/deploy"
	"github.com/LeJamon/goEscrow/internal/rpc"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "10000", formatEther(types.Ether(10000)))
	assert.Equal(t, "0", formatEther(new(big.Int)))
	assert.Equal(t, "0.000000001", formatEther(types.Gwei(1)))
	assert.Equal(t, "1.5", formatEther(new(big.Int).Add(types.Ether(1), big.NewInt(5e17))))
}

func TestParseArg(t *testing.T) {
	assert.Equal(t, (*hexutil.Big)(big.NewInt(12)), parseArg("12"))
	assert.Equal(t, "latest", parseArg("latest"))
	assert.Equal(t, "0xabc", parseArg("0xabc"))
	assert.Equal(t, json.RawMessage("true"), parseArg("true"))
	assert.Equal(t, json.RawMessage(`{"to":"0x01"}`), parseArg(`{"to":"0x01"}`))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"trace", log.LevelTrace},
		{"debug", log.LevelDebug},
		{"info", log.LevelInfo},
		{"", log.LevelInfo},
		{"WARN", log.LevelWarn},
		{"error", log.LevelError},
		{"crit", log.LevelCrit},
	}
	for _, tt := range tests {
		level, err := parseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, level, tt.name)
	}

	_, err := parseLevel("verbose")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestSetupLogging(t *testing.T) {
	for _, format := range []string{"terminal", "json", "logfmt"} {
		require.NoError(t, setupLogging(io.Discard, config.LogConfig{Level: "debug", Format: format}), format)
	}
	assert.Error(t, setupLogging(io.Discard, config.LogConfig{Level: "loud", Format: "json"}))
}

func TestDeployOptions(t *testing.T) {
	useConfig(t, config.Default())
	deployParams = map[string]string{"unlock_time": "1700000000"}
	t.Cleanup(func() { deployParams = nil })

	opts, err := deployOptions(deploy.Roles{})
	require.NoError(t, err)
	assert.Equal(t, deploy.DefaultBaseURL, opts.BaseURL)
	assert.Equal(t, 3, opts.MintCount)
	assert.Equal(t, uint64(1700000000), opts.Params.UnlockTime)
	assert.Equal(t, "1000000000", opts.Params.LockedAmount.String())
	assert.Nil(t, opts.Verifier)

	deployParams = map[string]string{"value": "1"}
	_, err = deployOptions(deploy.Roles{})
	assert.ErrorIs(t, err, deploy.ErrUnknownParameter)
}

func TestOpenNodePersistent(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.Storage.Backend = "pebble"
	c.Storage.Path = dir
	c.Storage.Compression = "lz4"
	c.Index.Driver = "sqlite"
	c.Index.DSN = filepath.Join(dir, "index.db")
	c.Chain.AutoMine = false
	require.NoError(t, config.ValidateConfig(c))
	useConfig(t, c)

	ctx := context.Background()
	n, err := openNode(ctx, c)
	require.NoError(t, err)

	d, err := deployLocal(ctx, n)
	require.NoError(t, err)
	assert.Len(t, d.Tokens, 3)
	assert.Equal(t, uint64(chain.DefaultChainID), d.ChainID)
	assert.False(t, n.chain.AutoMine(), "automine is restored after deploying")

	head := n.chain.BlockNumber()
	n.close()

	// the deeds survive a restart
	n, err = openNode(ctx, c)
	require.NoError(t, err)
	defer n.close()
	assert.Equal(t, head, n.chain.BlockNumber())

	token, err := realestate.New(ctx, common.HexToAddress(d.RealEstate), bind.NewChainBackend(n.chain))
	require.NoError(t, err)
	supply, err := token.TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), supply.Int64())
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rpcURL, deployURL, accountsURL, deployOutFile = "", "", "", ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testNode(t *testing.T) (*chain.Chain, string) {
	t.Helper()
	cc := chain.DefaultConfig()
	cc.Clock = chain.NewManualClock()
	c, err := chain.New(cc)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	srv := rpc.NewServer(&rpc_types.ServiceContainer{Chain: c, Version: "test"}, rpc.DefaultConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return c, ts.URL
}

func TestRPCCommands(t *testing.T) {
	c, url := testNode(t)
	_, err := c.Mine(context.Background())
	require.NoError(t, err)

	out, err := runCommand(t, "rpc", "block_number", "--url", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"0x1"`)

	out, err = runCommand(t, "rpc", "call", "web3_clientVersion", "--url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "escrowd/test")

	_, err = runCommand(t, "rpc", "call", "eth_nope", "--url", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-32601")
}

func TestDeployCommand(t *testing.T) {
	_, url := testNode(t)
	outFile := filepath.Join(t.TempDir(), "deployment.yaml")

	_, err := runCommand(t, "deploy", "--url", url, "--with-escrow", "--out", outFile)
	require.NoError(t, err)

	d, err := deploy.Load(outFile)
	require.NoError(t, err)
	assert.Equal(t, deploy.ModuleName, d.Module)
	assert.Equal(t, uint64(chain.DefaultChainID), d.ChainID)
	assert.Len(t, d.Tokens, 3)
	assert.NotEmpty(t, d.Escrow)
	deployEscrow = false

	out, err := runCommand(t, "rpc", "contracts", "--url", url)
	require.NoError(t, err)
	assert.Contains(t, out, realestate.Kind)
}

func TestAccountsCommand(t *testing.T) {
	_, url := testNode(t)
	out, err := runCommand(t, "accounts", "--url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "buyer")
	assert.Contains(t, out, "lender")
	assert.Contains(t, out, "10000")
	assert.NotContains(t, out, "PRIVATE KEY")
}
