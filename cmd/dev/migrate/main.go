package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"taxibooking/pkg/config"
	"taxibooking/pkg/db"
)

func main() {
	steps := flag.Int("steps", 0, "apply n migrations (negative rolls back); 0 applies all pending")
	flag.Parse()

	cfg := config.Load()
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	// Uses DIRECT_URL when set; poolers reject the advisory locks migrate takes.
	var err error
	if *steps != 0 {
		err = db.MigrateSteps(cfg.MigrationsPath, cfg, *steps)
	} else {
		err = db.MigrateConfig(cfg.MigrationsPath, cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	version, dirty, err := db.SchemaVersion(cfg.MigrationsPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read schema version: %v\n", err)
		os.Exit(1)
	}

	// The API connects through DATABASE_URL, which may differ from the migration DSN.
	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	pool.Close()

	fmt.Printf("schema version=%d dirty=%t\n", version, dirty)
}
