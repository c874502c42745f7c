package rpc

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/account"
)

type wsMessage struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
	Error *struct {
		Code int `json:"code"`
	} `json:"error"`
}

func dialWS(t *testing.T, ts *testServer) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, params string) string {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"eth_subscribe","params":`+params+`}`)))
	msg := readWS(t, conn)
	require.Nil(t, msg.Error)
	var id string
	require.NoError(t, json.Unmarshal(msg.Result, &id))
	require.NotEmpty(t, id)
	return id
}

func TestWebSocketRequests(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":7,"method":"eth_chainId"}`)))
	msg := readWS(t, conn)
	assert.JSONEq(t, `7`, string(msg.ID))
	assert.JSONEq(t, `"0x7a69"`, string(msg.Result))
}

func TestWebSocketNewHeads(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts)
	id := subscribe(t, conn, `["newHeads"]`)

	_, err := ts.chain.Mine(context.Background())
	require.NoError(t, err)

	msg := readWS(t, conn)
	assert.Equal(t, "eth_subscription", msg.Method)
	assert.Equal(t, id, msg.Params.Subscription)
	var head struct {
		Number hexutil.Uint64 `json:"number"`
	}
	require.NoError(t, json.Unmarshal(msg.Params.Result, &head))
	assert.EqualValues(t, 1, head.Number)
}

func TestWebSocketLogs(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.chain.Signers().MustGet(account.Seller).Address
	backend := bind.NewChainBackend(ts.chain)
	addr, _, token, err := realestate.Deploy(&bind.TransactOpts{From: seller}, backend, seller)
	require.NoError(t, err)

	conn := dialWS(t, ts)
	id := subscribe(t, conn, `["logs",{"address":"`+addr.Hex()+`","topics":["`+realestate.ABI.Events["Transfer"].ID.Hex()+`"]}]`)

	_, err = token.SafeMint(&bind.TransactOpts{From: seller}, seller, "ipfs://deed/1.json")
	require.NoError(t, err)

	msg := readWS(t, conn)
	assert.Equal(t, id, msg.Params.Subscription)
	var log struct {
		Address common.Address `json:"address"`
		Topics  []common.Hash  `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(msg.Params.Result, &log))
	assert.Equal(t, addr, log.Address)
	assert.Equal(t, realestate.ABI.Events["Transfer"].ID, log.Topics[0])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"jsonrpc":"2.0","id":2,"method":"eth_unsubscribe","params":["`+id+`"]}`)))
	msg = readWS(t, conn)
	assert.JSONEq(t, `true`, string(msg.Result))
}

func TestSubscribeOverHTTPUnsupported(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.call(t, "eth_subscribe", "newHeads")
	require.NotNil(t, resp.Error)
}
