// Package rpc serves the devnet over JSON-RPC 2.0: HTTP POST at / and /rpc,
// websocket subscriptions at /ws, and Prometheus metrics at /metrics.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxBatch    = 100
	defaultMaxBodySize = 5 * 1024 * 1024
)

// Config configures the RPC server.
type Config struct {
	// Timeout bounds the execution of a single request.
	Timeout time.Duration

	// MaxBatch is the largest accepted batch.
	MaxBatch int

	// AdminAll grants admin methods to every client. By default only
	// loopback clients get them.
	AdminAll bool

	// EnableWS and EnableMetrics mount /ws and /metrics on Handler.
	EnableWS      bool
	EnableMetrics bool
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       defaultTimeout,
		MaxBatch:      defaultMaxBatch,
		EnableWS:      true,
		EnableMetrics: true,
	}
}

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	cfg      Config
	metrics  *Metrics
	ws       *WebSocketServer
	log      log.Logger
}

// NewServer creates a new RPC server over services.
func NewServer(services *rpc_types.ServiceContainer, cfg Config) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = defaultMaxBatch
	}
	server := &Server{
		registry: rpc_types.NewMethodRegistry(),
		services: services,
		cfg:      cfg,
		metrics:  NewMetrics(services),
		log:      log.New("module", "rpc"),
	}

	// Register all RPC methods
	server.registerAllMethods()

	server.ws = NewWebSocketServer(server)
	return server
}

// Registry returns the method registry, shared with the gRPC gateway.
func (s *Server) Registry() *rpc_types.MethodRegistry {
	return s.registry
}

// Services returns the services handlers run against.
func (s *Server) Services() *rpc_types.ServiceContainer {
	return s.services
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s)
	mux.Handle("/rpc", s)
	mux.HandleFunc("/health", s.serveHealth)
	if s.cfg.EnableWS {
		mux.Handle("/ws", s.ws)
	}
	if s.cfg.EnableMetrics {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Close drops all websocket connections.
func (s *Server) Close() {
	s.ws.Close()
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
		// Websocket clients commonly dial the root path.
		if websocketUpgrade(r) && s.cfg.EnableWS {
			s.ws.ServeHTTP(w, r)
			return
		}
		s.serveHealth(w, r)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, defaultMaxBodySize))
	if err != nil {
		s.writeJSON(w, errorResponse(nil, rpc_types.RpcErrorInternal("failed to read request body")))
		return
	}
	defer r.Body.Close()

	base := &rpc_types.RpcContext{
		Context:  r.Context(),
		Role:     s.roleFor(remoteHost(r)),
		ClientIP: getClientIP(r),
		Services: s.services,
	}
	if resp, ok := s.handleMessage(base, body); ok {
		s.writeJSON(w, resp)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMessage processes a single request or a batch. The boolean is false
// when nothing needs to be written back (only notifications).
func (s *Server) handleMessage(base *rpc_types.RpcContext, body []byte) (interface{}, bool) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return errorResponse(nil, rpc_types.RpcErrorInvalidRequest("empty body")), true
	}

	if trimmed[0] != '[' {
		var req JsonRpcRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return errorResponse(nil, rpc_types.RpcErrorParse(err.Error())), true
		}
		resp := s.handleRequest(base, &req)
		if req.isNotification() {
			return nil, false
		}
		return resp, true
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return errorResponse(nil, rpc_types.RpcErrorParse(err.Error())), true
	}
	if len(batch) == 0 {
		return errorResponse(nil, rpc_types.RpcErrorInvalidRequest("empty batch")), true
	}
	if len(batch) > s.cfg.MaxBatch {
		return errorResponse(nil, rpc_types.RpcErrorInvalidRequest("batch too large")), true
	}

	responses := make([]JsonRpcResponse, 0, len(batch))
	for _, raw := range batch {
		var req JsonRpcRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			responses = append(responses, errorResponse(nil, rpc_types.RpcErrorInvalidRequest(err.Error())))
			continue
		}
		resp := s.handleRequest(base, &req)
		if !req.isNotification() {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil, false
	}
	return responses, true
}

// handleRequest validates and executes one request.
func (s *Server) handleRequest(base *rpc_types.RpcContext, req *JsonRpcRequest) JsonRpcResponse {
	if req.JsonRpc != jsonrpcVersion {
		return errorResponse(req.ID, rpc_types.RpcErrorInvalidRequest("jsonrpc must be \"2.0\""))
	}
	if req.Method == "" {
		return errorResponse(req.ID, rpc_types.RpcErrorInvalidRequest("missing method"))
	}

	ctx, cancel := context.WithTimeout(base.Context, s.cfg.Timeout)
	defer cancel()
	rpcCtx := *base
	rpcCtx.Context = ctx

	start := time.Now()
	result, rpcErr := s.registry.Execute(&rpcCtx, req.Method, req.Params)
	label := req.Method
	if _, ok := s.registry.Get(req.Method); !ok {
		label = "unknown"
	}
	s.metrics.observe(label, rpcErr, time.Since(start))

	if rpcErr != nil {
		s.log.Debug("RPC request failed", "method", req.Method, "code", rpcErr.Code, "err", rpcErr.Message)
		return errorResponse(req.ID, rpcErr)
	}
	s.log.Trace("Served RPC request", "method", req.Method, "elapsed", time.Since(start))
	return JsonRpcResponse{JsonRpc: jsonrpcVersion, ID: req.ID, Result: result}
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if s.services != nil && s.services.Chain != nil {
		status["chainId"] = s.services.Chain.ChainID()
		status["blockNumber"] = s.services.Chain.BlockNumber()
	}
	s.writeJSON(w, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Failed to marshal response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// roleFor grants admin to loopback clients, or to everyone with AdminAll.
func (s *Server) roleFor(ip string) rpc_types.Role {
	if s.cfg.AdminAll {
		return rpc_types.RoleAdmin
	}
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return rpc_types.RoleAdmin
	}
	return rpc_types.RoleGuest
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return remoteHost(r)
}

// remoteHost is the peer address of the connection. Forwarding headers are
// ignored, so it is safe for access decisions.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
