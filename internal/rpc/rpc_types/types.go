package rpc_types

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Role-based access control. Devnet control methods (evm_*, hardhat_*)
// need RoleAdmin, which local connections get by default.
type Role int

const (
	RoleGuest Role = iota
	RoleAdmin
)

// RPC Context contains request-specific information
type RpcContext struct {
	Context  context.Context
	Role     Role
	ClientIP string
	Services *ServiceContainer

	// Notifier is set on websocket connections and lets handlers open
	// subscriptions.
	Notifier Notifier
}

// Notifier delivers subscription notifications to one connection.
type Notifier interface {
	Subscribe(kind string, filter *FilterArgs) (string, error)
	Unsubscribe(id string) bool
}

// Method handler interface - all RPC methods implement this
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
}

// Method registry for dynamic method registration
type MethodRegistry struct {
	mu      sync.RWMutex
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names, sorted.
func (r *MethodRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Execute runs the named method with the role check applied.
func (r *MethodRegistry) Execute(ctx *RpcContext, method string, params json.RawMessage) (interface{}, *RpcError) {
	handler, ok := r.Get(method)
	if !ok {
		return nil, RpcErrorMethodNotFound(method)
	}
	if ctx.Role < handler.RequiredRole() {
		return nil, RpcErrorUnsupported(fmt.Sprintf("method %s is not allowed for this connection", method))
	}
	if ctx.Services == nil || ctx.Services.Chain == nil {
		return nil, RpcErrorInternal("chain service not available")
	}
	return handler.Handle(ctx, params)
}

// ParseParams decodes positional JSON-RPC params into out. The first
// `required` entries must be present; the rest are optional and left
// untouched when absent or null.
func ParseParams(params json.RawMessage, required int, out ...interface{}) *RpcError {
	var raw []json.RawMessage
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &raw); err != nil {
			return RpcErrorInvalidParams("params must be an array")
		}
	}
	if len(raw) < required {
		return RpcErrorInvalidParams(fmt.Sprintf("missing value for required argument %d", len(raw)))
	}
	if len(raw) > len(out) {
		return RpcErrorInvalidParams(fmt.Sprintf("too many arguments, want at most %d", len(out)))
	}
	for i, item := range raw {
		if string(item) == "null" {
			if i < required {
				return RpcErrorInvalidParams(fmt.Sprintf("missing value for required argument %d", i))
			}
			continue
		}
		if err := json.Unmarshal(item, out[i]); err != nil {
			return RpcErrorInvalidParams(fmt.Sprintf("invalid argument %d: %v", i, err))
		}
	}
	return nil
}

// TransactionArgs are the arguments of eth_sendTransaction and eth_call.
// Contract names the kind to deploy when To is empty.
type TransactionArgs struct {
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Value    *hexutil.Big    `json:"value"`
	Data     *hexutil.Bytes  `json:"data"`
	Input    *hexutil.Bytes  `json:"input"`
	Contract string          `json:"contract"`

	// Accepted for client compatibility and ignored: the devnet has no gas.
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
}

// CallData returns input, falling back to data.
func (args *TransactionArgs) CallData() []byte {
	if args.Input != nil {
		return *args.Input
	}
	if args.Data != nil {
		return *args.Data
	}
	return nil
}

// FilterArgs is the eth_getLogs / logs subscription filter.
type FilterArgs struct {
	BlockHash *common.Hash
	FromBlock *rpc.BlockNumber
	ToBlock   *rpc.BlockNumber
	Addresses []common.Address
	Topics    [][]common.Hash
}

// UnmarshalJSON accepts a single address or a list, and topic positions
// that are null, a single hash, or a list of alternatives.
func (args *FilterArgs) UnmarshalJSON(data []byte) error {
	var raw struct {
		BlockHash *common.Hash      `json:"blockHash"`
		FromBlock *rpc.BlockNumber  `json:"fromBlock"`
		ToBlock   *rpc.BlockNumber  `json:"toBlock"`
		Address   json.RawMessage   `json:"address"`
		Topics    []json.RawMessage `json:"topics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.BlockHash != nil && (raw.FromBlock != nil || raw.ToBlock != nil) {
		return fmt.Errorf("cannot specify both blockHash and fromBlock/toBlock")
	}
	*args = FilterArgs{BlockHash: raw.BlockHash, FromBlock: raw.FromBlock, ToBlock: raw.ToBlock}

	if len(raw.Address) > 0 && string(raw.Address) != "null" {
		var single common.Address
		if err := json.Unmarshal(raw.Address, &single); err == nil {
			args.Addresses = []common.Address{single}
		} else if err := json.Unmarshal(raw.Address, &args.Addresses); err != nil {
			return fmt.Errorf("invalid address filter: %w", err)
		}
	}
	for i, position := range raw.Topics {
		var alternatives []common.Hash
		if string(position) != "null" {
			var single common.Hash
			if err := json.Unmarshal(position, &single); err == nil {
				alternatives = []common.Hash{single}
			} else if err := json.Unmarshal(position, &alternatives); err != nil {
				return fmt.Errorf("invalid topic %d: %w", i, err)
			}
		}
		args.Topics = append(args.Topics, alternatives)
	}
	return nil
}

// ListingResult is the escrowd_listing result.
type ListingResult struct {
	Escrow           common.Address `json:"escrow"`
	TokenID          *hexutil.Big   `json:"tokenId"`
	Listed           bool           `json:"listed"`
	PurchasePrice    *hexutil.Big   `json:"purchasePrice"`
	EscrowAmount     *hexutil.Big   `json:"escrowAmount"`
	Buyer            common.Address `json:"buyer"`
	InspectionPassed bool           `json:"inspectionPassed"`
	BuyerApproved    bool           `json:"buyerApproved"`
	SellerApproved   bool           `json:"sellerApproved"`
	LenderApproved   bool           `json:"lenderApproved"`
	Deposited        *hexutil.Big   `json:"deposited"`
}
