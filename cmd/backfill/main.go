// Package main adds an Unsplash photo to every beach that has none.
//
// Usage:
//
//	UNSPLASH_ACCESS_KEY=... go run ./cmd/backfill
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
	"github.com/beachatlas/beachatlas-server/internal/ingest/unsplash"
	"github.com/beachatlas/beachatlas-server/internal/logger"
)

var interval = flag.Duration("interval", ingest.DefaultBeachInterval, "Minimum time between beaches")

func main() {
	injector := di.NewContainer()

	if err := run(injector); err != nil {
		fmt.Fprintf(os.Stderr, "backfill: %v\n", err)
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
	photos := do.MustInvoke[*unsplash.Client](injector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := ingest.NewBackfiller(storeHandle.Store, photos, log.Component("backfill"), *interval).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Added %d photos (%d beaches without a match)\n", result.Updated, result.Failed)
	if result.Stopped {
		fmt.Println("Stopped early: Unsplash refused further requests")
	}
	return nil
}
