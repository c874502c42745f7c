package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goEscrow/internal/config"
	_ "github.com/LeJamon/goEscrow/internal/contracts/all"
	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	escrowgrpc "github.com/LeJamon/goEscrow/internal/grpc"
	"github.com/LeJamon/goEscrow/internal/rpc"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
	"github.com/LeJamon/goEscrow/internal/storage"
	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb"
	"github.com/LeJamon/goEscrow/internal/storage/relationaldb"
)

// chainDBName is the key-value database holding blocks and state.
const chainDBName = "chain"

// node owns the chain and everything serving it.
type node struct {
	cfg   *config.Config
	chain *chain.Chain
	kv    keyValueDb.Manager
	index *relationaldb.SQLIndex
	rpc   *rpc.Server
	grpc  *escrowgrpc.Server
	log   log.Logger
}

// chainConfig translates the chain and storage sections.
func chainConfig(c *config.Config) chain.Config {
	cc := chain.DefaultConfig()
	cc.ChainID = c.Chain.ChainID
	cc.AutoMine = c.Chain.AutoMine
	cc.SignerBalance = c.Chain.GenesisBalance()
	if len(c.Chain.Signers) > 0 {
		cc.Signers = account.NewSet(c.Chain.Signers...)
	}
	cc.Compression = c.Storage.Compression
	cc.CacheSize = c.Storage.CacheSize
	cc.Logger = log.New("module", "chain")
	return cc
}

// openNode opens storage, the optional SQL index and the chain.
func openNode(ctx context.Context, c *config.Config) (n *node, err error) {
	n = &node{cfg: c, log: log.New("module", "node")}
	defer func() {
		if err != nil {
			n.close()
		}
	}()

	cc := chainConfig(c)
	if c.IsPersistent() {
		if n.kv, err = storage.OpenKV(c.Storage.Backend, c.Storage.Path); err != nil {
			return nil, err
		}
		if cc.Store, err = n.kv.OpenDB(chainDBName); err != nil {
			return nil, fmt.Errorf("opening %s store: %w", c.Storage.Backend, err)
		}
	}
	if c.HasIndex() {
		if n.index, err = relationaldb.Open(ctx, c.Index.RelationalConfig()); err != nil {
			return nil, fmt.Errorf("opening index: %w", err)
		}
		cc.Index = n.index
	}
	if n.chain, err = chain.New(cc); err != nil {
		return nil, err
	}
	n.log.Info("Chain ready",
		"chainId", c.Chain.ChainID, "automine", c.Chain.AutoMine,
		"storage", c.Storage.Backend, "index", c.Index.Driver, "signers", cc.Signers.Len())
	return n, nil
}

func (n *node) services() *rpc_types.ServiceContainer {
	return &rpc_types.ServiceContainer{Chain: n.chain, Version: Version}
}

// run serves the JSON-RPC endpoint, the optional gRPC gateway and the
// interval miner until ctx is cancelled or one of them fails.
func (n *node) run(ctx context.Context) error {
	services := n.services()
	n.rpc = rpc.NewServer(services, n.cfg.Server.RPCConfig())

	ln, err := net.Listen("tcp", n.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", n.cfg.Server.Address(), err)
	}
	httpSrv := &http.Server{
		Handler:           n.rpc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcLn net.Listener
	if n.cfg.GRPC.Enabled {
		n.grpc, err = escrowgrpc.NewServer(n.cfg.GRPC.ServerConfig(n.cfg.Server.AdminAll), n.rpc.Registry(), services)
		if err == nil {
			grpcLn, err = net.Listen("tcp", n.cfg.GRPC.Address)
		}
		if err != nil {
			ln.Close()
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n.log.Info("JSON-RPC server listening", "url", "http://"+ln.Addr().String(), "ws", n.cfg.Server.WS)
		if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if n.grpc != nil {
		g.Go(func() error {
			n.log.Info("gRPC gateway listening", "address", grpcLn.Addr().String())
			return n.grpc.Serve(grpcLn)
		})
	}
	if d := n.cfg.Chain.BlockTime; d > 0 {
		g.Go(func() error { return n.mineEvery(ctx, d) })
	}
	g.Go(func() error {
		<-ctx.Done()
		n.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if n.grpc != nil {
			n.grpc.Stop()
		}
		n.rpc.Close()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// mineEvery seals a block on every tick, whether or not transactions are
// pending.
func (n *node) mineEvery(ctx context.Context, d time.Duration) error {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := n.chain.Mine(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("interval mining: %w", err)
			}
		}
	}
}

func (n *node) close() {
	if n.chain != nil {
		if err := n.chain.Close(); err != nil {
			n.log.Warn("Failed to close chain", "err", err)
		}
	}
	if n.index != nil {
		if err := n.index.Close(); err != nil {
			n.log.Warn("Failed to close index", "err", err)
		}
	}
	if n.kv != nil {
		if err := n.kv.Close(); err != nil {
			n.log.Warn("Failed to close store", "err", err)
		}
	}
}
