package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// Server represents the gRPC gateway.
type Server struct {
	mu sync.RWMutex

	// grpcServer is the underlying gRPC server
	grpcServer *grpc.Server

	// health reports SERVING while the server runs
	health *health.Server

	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer

	// config holds the server configuration
	config *ServerConfig

	// listener is the network listener
	listener net.Listener

	// running indicates if the server is currently running
	running bool

	log log.Logger
}

// NewServer creates a gateway that dispatches into registry.
func NewServer(cfg *ServerConfig, registry *rpc_types.MethodRegistry, services *rpc_types.ServiceContainer) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, errors.New("method registry is required")
	}

	server := &Server{
		health:   health.NewServer(),
		registry: registry,
		services: services,
		config:   cfg,
		log:      log.New("module", "grpc"),
	}
	server.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.UnaryInterceptor(server.unaryInterceptor),
	)
	registerQueryServer(server.grpcServer, server)
	healthpb.RegisterHealthServer(server.grpcServer, server.health)
	server.health.SetServingStatus(QueryServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return server, nil
}

// Start starts the gRPC server and begins accepting connections.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// StartAsync starts the gRPC server in a goroutine and returns immediately.
func (s *Server) StartAsync() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	go func() {
		if err := s.Serve(listener); err != nil {
			s.log.Error("gRPC server failed", "err", err)
		}
	}()
	return nil
}

func (s *Server) listen() (net.Listener, error) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if running {
		return nil, errors.New("server is already running")
	}
	return net.Listen("tcp", s.config.Address)
}

// Serve accepts connections on listener until the server stops.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.health.SetServingStatus(QueryServiceName, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.log.Info("gRPC gateway listening", "addr", listener.Addr())
	err := s.grpcServer.Serve(listener)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop gracefully stops the gRPC server.
// It stops accepting new connections and waits for existing connections to complete.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.running = false
}

// StopNow immediately stops the gRPC server without waiting for connections.
func (s *Server) StopNow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.health.Shutdown()
	s.grpcServer.Stop()
	s.running = false
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on.
// Returns empty string if the server is not running.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetGRPCServer returns the underlying grpc.Server.
// This can be used to register additional services.
func (s *Server) GetGRPCServer() *grpc.Server {
	return s.grpcServer
}

// unaryInterceptor logs every call with its latency.
func (s *Server) unaryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.log.Debug("gRPC call failed", "method", info.FullMethod, "elapsed", time.Since(start), "err", err)
	} else {
		s.log.Trace("Served gRPC call", "method", info.FullMethod, "elapsed", time.Since(start))
	}
	return resp, err
}
