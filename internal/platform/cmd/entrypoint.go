// Package cmd holds shared startup helpers for marketplace commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/imranshabbir-developer/project-management/internal/platform/config"
	"github.com/imranshabbir-developer/project-management/internal/platform/otel"
	"github.com/imranshabbir-developer/project-management/internal/platform/timeouts"
)

// ServiceMarketplace names the API process in telemetry.
const ServiceMarketplace = "marketplace"

// Load fills cfg from MARKETPLACE_* variables, then lets bind register
// flags whose defaults are the environment values, then parses args.
// Flags given on the command line therefore win over the environment.
func Load[T any](cfg *T, fs *flag.FlagSet, args []string, bind func(*flag.FlagSet, *T)) error {
	switch {
	case cfg == nil:
		return errors.New("config target is required")
	case fs == nil:
		return errors.New("flag set is required")
	}
	if err := config.ParseEnv(cfg); err != nil {
		return err
	}
	if bind != nil {
		bind(fs, cfg)
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the OpenTelemetry providers for service, runs
// run, and flushes the providers once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case run == nil:
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
