// Package healthcheck checks a running marketplace process over gRPC health.
package healthcheck

import (
	"context"
	"flag"
	"log"
	"time"

	entrypoint "github.com/imranshabbir-developer/project-management/internal/platform/cmd"
	platformgrpc "github.com/imranshabbir-developer/project-management/internal/platform/grpc"
	"github.com/imranshabbir-developer/project-management/internal/platform/timeouts"
	server "github.com/imranshabbir-developer/project-management/internal/services/marketplace/app"
)

// Config holds healthcheck command configuration.
type Config struct {
	Addr    string        `env:"HEALTH_ADDR" envDefault:"localhost:8081"`
	Service string        `env:"HEALTH_SERVICE"`
	Timeout time.Duration `env:"HEALTH_TIMEOUT"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Service: server.HealthService, Timeout: timeouts.HealthDial}
	err := entrypoint.Load(&cfg, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The gRPC health endpoint address")
		fs.StringVar(&cfg.Service, "service", cfg.Service, "The health service name to check")
		fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "How long to wait for SERVING")
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run waits until the target reports SERVING or the timeout elapses.
func Run(ctx context.Context, cfg Config) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.HealthDial
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return platformgrpc.CheckServing(ctx, cfg.Addr, cfg.Service, log.Printf)
}
