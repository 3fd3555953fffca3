package main

import (
	"context"
	"flag"
	"os"

	healthcheckcmd "github.com/imranshabbir-developer/project-management/internal/cmd/healthcheck"
	"github.com/imranshabbir-developer/project-management/internal/platform/config"
)

func main() {
	cfg, err := healthcheckcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := healthcheckcmd.Run(context.Background(), cfg); err != nil {
		config.Exitf("unhealthy: %v", err)
	}
}
