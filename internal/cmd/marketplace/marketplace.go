// Package marketplace parses marketplace service flags and launches the service.
package marketplace

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/imranshabbir-developer/project-management/internal/platform/cmd"
	server "github.com/imranshabbir-developer/project-management/internal/services/marketplace/app"
)

// Config holds marketplace command configuration.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"8081"`
	DBPath      string `env:"DB_PATH" envDefault:"data/marketplace.db"`
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	JWTAudience string `env:"JWT_AUDIENCE"`
	DevMode     bool   `env:"DEV_MODE"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	err := entrypoint.Load(&cfg, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The marketplace HTTP API address")
		fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The gRPC health server port")
		fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the SQLite database")
		fs.BoolVar(&cfg.DevMode, "dev", cfg.DevMode, "Include raw error detail in API responses")
	})
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("MARKETPLACE_JWT_SECRET is required")
	}
	if cfg.GRPCPort <= 0 {
		return Config{}, fmt.Errorf("grpc port must be positive, got %d", cfg.GRPCPort)
	}
	return cfg, nil
}

// ServerConfig maps command configuration onto the server runtime.
func (c Config) ServerConfig() server.Config {
	return server.Config{
		HTTPAddr:    c.HTTPAddr,
		GRPCAddr:    fmt.Sprintf(":%d", c.GRPCPort),
		DBPath:      c.DBPath,
		JWTSecret:   c.JWTSecret,
		JWTIssuer:   c.JWTIssuer,
		JWTAudience: c.JWTAudience,
		DevMode:     c.DevMode,
	}
}

// Run starts the marketplace service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMarketplace, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig())
	})
}
