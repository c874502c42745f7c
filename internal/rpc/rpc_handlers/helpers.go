package rpc_handlers

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// resolveBlock maps a block tag to a sealed block number. latest, pending,
// safe and finalized all resolve to the head.
func resolveBlock(svc rpc_types.ChainService, tag rpc.BlockNumber) (uint64, *rpc_types.RpcError) {
	head := svc.BlockNumber()
	if tag < 0 {
		return head, nil
	}
	if uint64(tag) > head {
		return 0, rpc_types.RpcErrorNotFound("block " + tag.String() + " not found")
	}
	return uint64(tag), nil
}

// requireHeadState rejects queries against anything but the head state.
// Only the head state is kept.
func requireHeadState(svc rpc_types.ChainService, tag *rpc.BlockNumberOrHash) *rpc_types.RpcError {
	if tag == nil {
		return nil
	}
	if hash, ok := tag.Hash(); ok {
		if hash != svc.Head().Hash {
			return rpc_types.RpcErrorUnsupported("historical state is not available")
		}
		return nil
	}
	number, _ := tag.Number()
	if number < 0 {
		return nil
	}
	if uint64(number) != svc.BlockNumber() {
		return rpc_types.RpcErrorUnsupported("historical state is not available")
	}
	return nil
}

// requireSigner checks that addr is a devnet-managed account.
func requireSigner(svc rpc_types.ChainService, addr *common.Address) *rpc_types.RpcError {
	if addr == nil {
		return rpc_types.RpcErrorInvalidParams("missing from address")
	}
	if !svc.Signers().Has(*addr) {
		return rpc_types.RpcErrorUnknownAccount(addr.Hex())
	}
	return nil
}
