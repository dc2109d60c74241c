// Package main seeds the catalog from a beach JSON file.
//
// Beaches whose slug already exists are skipped, so the tool can be re-run
// after adding entries to the file. Run it while the server is stopped; the
// search index is updated as beaches are inserted.
//
// Usage:
//
//	go run ./cmd/seed -file data/beach-database.json
//	DATA_PATH=~/BeachAtlas go run ./cmd/seed -file osm-beaches-greece.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/di"
	"github.com/beachatlas/beachatlas-server/internal/di/providers"
	"github.com/beachatlas/beachatlas-server/internal/ingest"
	"github.com/beachatlas/beachatlas-server/internal/logger"
)

var file = flag.String("file", "data/beach-database.json", "Beach JSON file to import")

func main() {
	injector := di.NewContainer()

	if err := run(injector); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		injector.Shutdown() //nolint:errcheck // exiting anyway
		os.Exit(1)
	}
	injector.Shutdown() //nolint:errcheck // nothing left to flush
}

func run(injector do.Injector) error {
	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	storeHandle := do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	beachFile, err := ingest.ReadBeachFile(*file)
	if err != nil {
		return err
	}
	log.Info("Loaded beach file", "path", *file, "beaches", len(beachFile.Beaches))

	result, err := ingest.NewSeeder(storeHandle.Store, log.Component("seed"), nil).Seed(ctx, beachFile.Beaches)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d beaches (%d already present, %d failed)\n", result.Inserted, result.Skipped, result.Failed)
	return nil
}
