package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/LeJamon/goEscrow/internal/grpc"
	"github.com/LeJamon/goEscrow/internal/rpc"
)

// ServerConfig configures the JSON-RPC endpoint
type ServerConfig struct {
	Bind     string        `toml:"bind" mapstructure:"bind" validate:"required,ip"`
	Port     int           `toml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	Timeout  time.Duration `toml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	MaxBatch int           `toml:"max_batch" mapstructure:"max_batch" validate:"gte=1"`
	WS       bool          `toml:"ws" mapstructure:"ws"`
	Metrics  bool          `toml:"metrics" mapstructure:"metrics"`

	// AdminAll grants the admin role to every client, not only loopback ones.
	AdminAll bool `toml:"admin_all" mapstructure:"admin_all"`
}

// GRPCConfig configures the gRPC gateway
type GRPCConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Address string `toml:"address" mapstructure:"address" validate:"omitempty,hostname_port"`
}

// Address returns the host:port the JSON-RPC server listens on.
func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// URL returns the http URL of the JSON-RPC endpoint.
func (s *ServerConfig) URL() string {
	return fmt.Sprintf("http://%s", s.Address())
}

// RPCConfig converts the section into the RPC server configuration.
func (s *ServerConfig) RPCConfig() rpc.Config {
	cfg := rpc.DefaultConfig()
	cfg.Timeout = s.Timeout
	cfg.MaxBatch = s.MaxBatch
	cfg.AdminAll = s.AdminAll
	cfg.EnableWS = s.WS
	cfg.EnableMetrics = s.Metrics
	return cfg
}

// ServerConfig converts the section into the gRPC gateway configuration.
func (g *GRPCConfig) ServerConfig(adminAll bool) *grpc.ServerConfig {
	cfg := grpc.DefaultServerConfig()
	if g.Address != "" {
		cfg.Address = g.Address
	}
	cfg.AdminAll = adminAll
	return cfg
}
