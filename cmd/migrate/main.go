// Package main applies database schema migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"fuelstock/internal/config"
	"fuelstock/internal/infrastructure/storage/postgres"
	"fuelstock/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	migrator, err := postgres.NewMigrator(cfg.MigrationsPath, cfg.PGDSN, log)
	if err != nil {
		log.Fatalw("failed to initialize migrator", "error", err)
	}
	defer migrator.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			log.Fatalw("migration up failed", "error", err)
		}
	case "down":
		if err := migrator.Down(ctx); err != nil {
			log.Fatalw("migration down failed", "error", err)
		}
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			log.Fatalw("failed to read migration version", "error", err)
		}
		fmt.Printf("version: %d dirty: %v\n", version, dirty)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage: migrate <up|down|version>")
	fmt.Println("  up       apply all pending migrations")
	fmt.Println("  down     roll back the last migration")
	fmt.Println("  version  print the current schema version")
}
