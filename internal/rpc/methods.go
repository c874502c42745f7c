package rpc

import (
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_handlers"
)

// registerAllMethods registers every JSON-RPC method. It is called by
// NewServer to set up the complete method registry.
func (s *Server) registerAllMethods() {
	// Node information
	s.registry.Register("web3_clientVersion", &rpc_handlers.ClientVersionMethod{})
	s.registry.Register("net_version", &rpc_handlers.NetVersionMethod{})
	s.registry.Register("eth_chainId", &rpc_handlers.ChainIdMethod{})
	s.registry.Register("eth_accounts", &rpc_handlers.AccountsMethod{})
	s.registry.Register("rpc_methods", &rpc_handlers.RpcMethodsMethod{Registry: s.registry})

	// State
	s.registry.Register("eth_blockNumber", &rpc_handlers.BlockNumberMethod{})
	s.registry.Register("eth_getBalance", &rpc_handlers.GetBalanceMethod{})
	s.registry.Register("eth_getTransactionCount", &rpc_handlers.GetTransactionCountMethod{})
	s.registry.Register("eth_getCode", &rpc_handlers.GetCodeMethod{})
	s.registry.Register("eth_call", &rpc_handlers.CallMethod{})

	// Transactions
	s.registry.Register("eth_sendTransaction", &rpc_handlers.SendTransactionMethod{})
	s.registry.Register("eth_sign", &rpc_handlers.SignMethod{})
	s.registry.Register("eth_getTransactionByHash", &rpc_handlers.GetTransactionByHashMethod{})
	s.registry.Register("eth_getTransactionReceipt", &rpc_handlers.GetTransactionReceiptMethod{})

	// Blocks and logs
	s.registry.Register("eth_getBlockByNumber", &rpc_handlers.GetBlockByNumberMethod{})
	s.registry.Register("eth_getLogs", &rpc_handlers.GetLogsMethod{})

	// Subscription Methods (WebSocket only)
	s.registry.Register("eth_subscribe", &rpc_handlers.SubscribeMethod{})
	s.registry.Register("eth_unsubscribe", &rpc_handlers.UnsubscribeMethod{})

	// Devnet control (admin)
	s.registry.Register("evm_snapshot", &rpc_handlers.SnapshotMethod{})
	s.registry.Register("evm_revert", &rpc_handlers.RevertMethod{})
	s.registry.Register("evm_mine", &rpc_handlers.MineMethod{})
	s.registry.Register("evm_increaseTime", &rpc_handlers.IncreaseTimeMethod{})
	s.registry.Register("evm_setAutomine", &rpc_handlers.SetAutomineMethod{})
	s.registry.Register("hardhat_setBalance", &rpc_handlers.SetBalanceMethod{})

	// Escrow helpers
	s.registry.Register("escrowd_contracts", &rpc_handlers.ContractsMethod{})
	s.registry.Register("escrowd_listing", &rpc_handlers.ListingMethod{})
}
