package main

import (
	"context"
	"fmt"
	"os"

	"infinicraft-backend/infrastructure/config"
	"infinicraft-backend/infrastructure/di"
	"infinicraft-backend/interfaces/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func load(ctx context.Context) (cli.Service, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	// Operator runs seed explicitly and never watch files
	cfg.SeedFile = ""
	cfg.SeedWatch = false

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := container.Bootstrap(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return container.CraftingService, cleanup, nil
}

func main() {
	if err := cli.NewRootCommand(load, version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
