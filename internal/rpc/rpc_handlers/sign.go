package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// SignMethod handles the eth_sign RPC method: a personal-message signature
// over data by one of the devnet signers.
type SignMethod struct{}

func (m *SignMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		addr common.Address
		data hexutil.Bytes
	)
	if err := rpc_types.ParseParams(params, 2, &addr, &data); err != nil {
		return nil, err
	}
	signer, ok := ctx.Services.Chain.Signers().ByAddress(addr)
	if !ok {
		return nil, rpc_types.RpcErrorUnknownAccount(addr.Hex())
	}
	sig, err := signer.SignText(data)
	if err != nil {
		return nil, rpc_types.RpcErrorInternal("signing failed: " + err.Error())
	}
	return hexutil.Bytes(sig), nil
}

func (m *SignMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
