package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

type testServer struct {
	*Server
	chain *chain.Chain
	http  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := chain.DefaultConfig()
	cfg.Clock = chain.NewManualClock()
	c, err := chain.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	srv := NewServer(&rpc_types.ServiceContainer{Chain: c, Version: "test"}, DefaultConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &testServer{Server: srv, chain: c, http: ts}
}

// post sends body and returns the status and raw response.
func (ts *testServer) post(t *testing.T, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(ts.http.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type testResponse struct {
	ID     json.RawMessage     `json:"id"`
	Result json.RawMessage     `json:"result"`
	Error  *rpc_types.RpcError `json:"error"`
}

func (ts *testServer) call(t *testing.T, method string, params ...interface{}) testResponse {
	t.Helper()
	if params == nil {
		params = []interface{}{}
	}
	p, err := json.Marshal(params)
	require.NoError(t, err)
	status, data := ts.post(t, fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":%s}`, method, p))
	require.Equal(t, http.StatusOK, status)
	var resp testResponse
	require.NoError(t, json.Unmarshal(data, &resp), string(data))
	return resp
}

func TestServerChainInfo(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.call(t, "eth_chainId")
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `"0x7a69"`, string(resp.Result))

	resp = ts.call(t, "net_version")
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `"31337"`, string(resp.Result))

	resp = ts.call(t, "web3_clientVersion")
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `"escrowd/test"`, string(resp.Result))

	resp = ts.call(t, "eth_accounts")
	require.Nil(t, resp.Error)
	var accounts []common.Address
	require.NoError(t, json.Unmarshal(resp.Result, &accounts))
	require.Len(t, accounts, ts.chain.Signers().Len())
	assert.Equal(t, ts.chain.Signers().MustGet(account.Buyer).Address, accounts[0])
}

func TestServerProtocolErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{"jsonrpc":`, rpc_types.RpcPARSE_ERROR},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"eth_chainId"}`, rpc_types.RpcINVALID_REQUEST},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, rpc_types.RpcINVALID_REQUEST},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"eth_mining"}`, rpc_types.RpcMETHOD_NOT_FOUND},
		{"empty batch", `[]`, rpc_types.RpcINVALID_REQUEST},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"eth_getBalance","params":{"a":1}}`, rpc_types.RpcINVALID_PARAMS},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"eth_getBalance","params":[]}`, rpc_types.RpcINVALID_PARAMS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := ts.post(t, tt.body)
			require.Equal(t, http.StatusOK, status)
			var resp testResponse
			require.NoError(t, json.Unmarshal(data, &resp), string(data))
			require.NotNil(t, resp.Error, string(data))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestServerBatch(t *testing.T) {
	ts := newTestServer(t)

	status, data := ts.post(t, `[
		{"jsonrpc":"2.0","id":1,"method":"eth_chainId"},
		{"jsonrpc":"2.0","method":"eth_blockNumber"},
		{"jsonrpc":"2.0","id":"two","method":"eth_blockNumber"}
	]`)
	require.Equal(t, http.StatusOK, status)

	var batch []testResponse
	require.NoError(t, json.Unmarshal(data, &batch))
	require.Len(t, batch, 2, "notifications get no response")
	assert.JSONEq(t, `1`, string(batch[0].ID))
	assert.JSONEq(t, `"0x7a69"`, string(batch[0].Result))
	assert.JSONEq(t, `"two"`, string(batch[1].ID))
	assert.JSONEq(t, `"0x0"`, string(batch[1].Result))
}

func TestServerNotificationOnly(t *testing.T) {
	ts := newTestServer(t)
	status, data := ts.post(t, `{"jsonrpc":"2.0","method":"eth_chainId"}`)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, data)
}

func TestServerNullResult(t *testing.T) {
	ts := newTestServer(t)
	_, data := ts.post(t, `{"jsonrpc":"2.0","id":1,"method":"eth_getTransactionReceipt","params":["0x0000000000000000000000000000000000000000000000000000000000000001"]}`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":null}`, string(data))
}

func TestServerHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 31337, health["chainId"])
}

func TestServerMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.call(t, "eth_chainId")
	ts.call(t, "eth_nothing")

	resp, err := http.Get(ts.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, `escrowd_rpc_requests_total{code="ok",method="eth_chainId"} 1`)
	assert.Contains(t, body, `escrowd_rpc_requests_total{code="-32601",method="unknown"} 1`)
	assert.Contains(t, body, "escrowd_chain_head_block 0")
}

func TestServerAdminMethodsNeedAdminRole(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, rpc_types.RoleAdmin, ts.roleFor("127.0.0.1"))
	assert.Equal(t, rpc_types.RoleGuest, ts.roleFor("10.1.2.3"))

	ctx := &rpc_types.RpcContext{Context: context.Background(), Role: rpc_types.RoleGuest, Services: ts.services}
	_, rpcErr := ts.Registry().Execute(ctx, "evm_snapshot", nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, rpc_types.RpcUNSUPPORTED, rpcErr.Code)

	// httptest clients connect over loopback.
	resp := ts.call(t, "evm_snapshot")
	require.Nil(t, resp.Error)
}

func TestServerSendTransaction(t *testing.T) {
	ts := newTestServer(t)
	signers := ts.chain.Signers()
	buyer := signers.MustGet(account.Buyer).Address
	seller := signers.MustGet(account.Seller).Address

	resp := ts.call(t, "eth_sendTransaction", map[string]interface{}{
		"from":  buyer,
		"to":    seller,
		"value": (*hexutil.Big)(big.NewInt(1000)),
	})
	require.Nil(t, resp.Error)
	var hash common.Hash
	require.NoError(t, json.Unmarshal(resp.Result, &hash))

	resp = ts.call(t, "eth_getTransactionReceipt", hash)
	require.Nil(t, resp.Error)
	var receipt struct {
		Status      hexutil.Uint64 `json:"status"`
		BlockNumber hexutil.Uint64 `json:"blockNumber"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &receipt))
	assert.EqualValues(t, 1, receipt.Status)
	assert.EqualValues(t, 1, receipt.BlockNumber)

	resp = ts.call(t, "eth_sendTransaction", map[string]interface{}{
		"from": common.HexToAddress("0x1234"),
		"to":   seller,
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc_types.RpcUNKNOWN_ACCOUNT, resp.Error.Code)

	resp = ts.call(t, "eth_sendTransaction", map[string]interface{}{"from": buyer, "contract": "Nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc_types.RpcTX_REJECTED, resp.Error.Code)
}

func TestServerCallRevert(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.chain.Signers().MustGet(account.Seller).Address
	addr, _, _, err := realestate.Deploy(&bind.TransactOpts{From: seller}, bind.NewChainBackend(ts.chain), seller)
	require.NoError(t, err)

	input, err := realestate.ABI.Pack("ownerOf", big.NewInt(7))
	require.NoError(t, err)
	resp := ts.call(t, "eth_call", map[string]interface{}{"to": addr, "input": hexutil.Bytes(input)}, "latest")
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc_types.RpcEXECUTION_REVERTED, resp.Error.Code)
	assert.Equal(t, "execution reverted: ERC721NonexistentToken(7)", resp.Error.Message)
	data, ok := resp.Error.Data.(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(data, "0x"))

	resp = ts.call(t, "eth_getCode", addr, "latest")
	require.Nil(t, resp.Error)
	var code hexutil.Bytes
	require.NoError(t, json.Unmarshal(resp.Result, &code))
	assert.Equal(t, realestate.Kind, string(code))

	resp = ts.call(t, "eth_getBalance", addr, "0x0")
	require.NotNil(t, resp.Error, "historical state is not kept")
	assert.Equal(t, rpc_types.RpcUNSUPPORTED, resp.Error.Code)
}

func TestServerGetLogsBlockTags(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.chain.Signers().MustGet(account.Seller).Address
	opts := &bind.TransactOpts{From: seller}
	addr, _, token, err := realestate.Deploy(opts, bind.NewChainBackend(ts.chain), seller)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = token.SafeMint(opts, seller, fmt.Sprintf("ipfs://deed/%d.json", i))
		require.NoError(t, err)
	}

	transfers := func(from string) int {
		t.Helper()
		resp := ts.call(t, "eth_getLogs", map[string]interface{}{
			"fromBlock": from,
			"address":   addr,
			"topics":    []common.Hash{realestate.ABI.Events["Transfer"].ID},
		})
		require.Nil(t, resp.Error)
		var logs []json.RawMessage
		require.NoError(t, json.Unmarshal(resp.Result, &logs))
		return len(logs)
	}
	assert.Equal(t, 2, transfers("earliest"))
	assert.Equal(t, 2, transfers("0x0"))
	assert.Equal(t, 1, transfers("latest"))
}
