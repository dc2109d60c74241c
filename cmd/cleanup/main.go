// Package main removes placeholder beaches whose name contains "Unnamed"
// from the catalog and the search index. Run it while the server is stopped.
//
// Usage:
//
//	go run ./cmd/cleanup
package main

import (
	"context"
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

func main() {
	injector := di.NewContainer()

	if err := run(injector); err != nil {
		fmt.Fprintf(os.Stderr, "cleanup: %v\n", err)
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

	n, err := ingest.RemoveUnnamed(ctx, storeHandle.Store, log.Component("cleanup"))
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d unnamed beaches\n", n)
	return nil
}
