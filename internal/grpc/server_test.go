package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/rpc"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

func newTestGateway(t *testing.T, cfg *ServerConfig) (*grpc.ClientConn, *chain.Chain) {
	t.Helper()
	chainCfg := chain.DefaultConfig()
	chainCfg.Clock = chain.NewManualClock()
	c, err := chain.New(chainCfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	services := &rpc_types.ServiceContainer{Chain: c, Version: "test"}
	rpcServer := rpc.NewServer(services, rpc.DefaultConfig())
	srv, err := NewServer(cfg, rpcServer.Registry(), services)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.StopNow)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, c
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, params ...interface{}) (*structpb.Value, error) {
	t.Helper()
	if params == nil {
		params = []interface{}{}
	}
	req, err := structpb.NewStruct(map[string]interface{}{"method": method, "params": params})
	require.NoError(t, err)
	resp := new(structpb.Struct)
	if err := conn.Invoke(context.Background(), InvokeMethod, req, resp); err != nil {
		return nil, err
	}
	return resp.GetFields()["result"], nil
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	require.NoError(t, cfg.Validate())

	cfg.Address = "50051"
	assert.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.MaxRecvMsgSize = 0
	assert.Error(t, cfg.Validate())
}

func TestInvoke(t *testing.T) {
	conn, c := newTestGateway(t, DefaultServerConfig())

	result, err := invoke(t, conn, "eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, "0x7a69", result.GetStringValue())

	buyer := c.Signers().MustGet(account.Buyer).Address
	result, err = invoke(t, conn, "eth_getBalance", buyer.Hex(), "latest")
	require.NoError(t, err)
	assert.Equal(t, "0x21e19e0c9bab2400000", result.GetStringValue())

	result, err = invoke(t, conn, "eth_accounts")
	require.NoError(t, err)
	assert.Len(t, result.GetListValue().GetValues(), c.Signers().Len())
}

func TestInvokeErrors(t *testing.T) {
	conn, _ := newTestGateway(t, DefaultServerConfig())

	_, err := invoke(t, conn, "eth_unknown")
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	_, err = invoke(t, conn, "eth_getBalance")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// bufconn peers are not loopback.
	_, err = invoke(t, conn, "evm_snapshot")
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	req, err := structpb.NewStruct(map[string]interface{}{})
	require.NoError(t, err)
	err = conn.Invoke(context.Background(), InvokeMethod, req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestInvokeAdminAll(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.AdminAll = true
	conn, _ := newTestGateway(t, cfg)

	result, err := invoke(t, conn, "evm_snapshot")
	require.NoError(t, err)
	assert.NotEmpty(t, result.GetStringValue())
}

func TestHealth(t *testing.T) {
	conn, _ := newTestGateway(t, DefaultServerConfig())
	client := healthpb.NewHealthClient(conn)

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: QueryServiceName})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING
	}, time.Second*5, 10*time.Millisecond)
}
