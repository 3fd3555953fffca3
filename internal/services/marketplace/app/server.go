// Package server wires the marketplace runtime: storage, the HTTP API and
// the gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	platformgrpc "github.com/imranshabbir-developer/project-management/internal/platform/grpc"
	"github.com/imranshabbir-developer/project-management/internal/platform/timeouts"
	marketplaceapi "github.com/imranshabbir-developer/project-management/internal/services/marketplace/api/http/marketplace"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/lifecycle"
	marketplacesqlite "github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage/sqlite"
)

// HealthService is the gRPC health service name reported by the process.
const HealthService = "marketplace.v1.MarketplaceService"

// Config holds the runtime settings of a marketplace server.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	DBPath      string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	DevMode     bool
}

// Server hosts the marketplace HTTP API and gRPC health endpoint.
type Server struct {
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        *marketplacesqlite.Store
}

// New opens storage and binds both listeners.
func New(cfg Config) (*Server, error) {
	verifier, err := marketplaceapi.NewTokenVerifier(marketplaceapi.TokenConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, err
	}
	store, err := openMarketplaceStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	handler, err := marketplaceapi.NewHandler(lifecycle.New(store), verifier, marketplaceapi.Options{DevMode: cfg.DevMode})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on grpc addr %s: %w", cfg.GRPCAddr, err)
	}

	grpcServer, healthServer := platformgrpc.NewHealthServer(HealthService)
	return &Server{
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: timeouts.ReadHeader,
			WriteTimeout:      timeouts.Write,
			IdleTimeout:       timeouts.Idle,
		},
		grpcListener: grpcListener,
		grpcServer:   grpcServer,
		health:       healthServer,
		store:        store,
	}, nil
}

// HTTPAddr returns the bound HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound health listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a marketplace server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve runs both servers until ctx ends or either one fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("marketplace HTTP server listening at %v", s.httpListener.Addr())
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		log.Printf("marketplace health server listening at %v", s.grpcListener.Addr())
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.shutdown()
		return nil
	})
	return group.Wait()
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown marketplace HTTP server: %v", err)
	}
	s.grpcServer.GracefulStop()
}

func (s *Server) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close marketplace store: %v", err)
	}
}

func openMarketplaceStore(path string) (*marketplacesqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "marketplace.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := marketplacesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marketplace sqlite store: %w", err)
	}
	return store, nil
}
