package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// AccountsMethod handles the eth_accounts RPC method. It lists the devnet
// signers in role order: buyer, seller, inspector, lender first.
type AccountsMethod struct{}

func (m *AccountsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return ctx.Services.Chain.Signers().Addresses(), nil
}

func (m *AccountsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
