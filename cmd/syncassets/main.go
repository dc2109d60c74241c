// Package main imports manually uploaded beach photos from the upload
// queue into the asset store.
//
// Each folder under the queue is named after a beach slug or name:
//
//	upload_queue/navagio-beach/sunset.jpg
//
// Usage:
//
//	go run ./cmd/syncassets
//	go run ./cmd/syncassets -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/di"
	"github.com/beachatlas/beachatlas-server/internal/di/providers"
	"github.com/beachatlas/beachatlas-server/internal/ingest"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
)

var watch = flag.Bool("watch", false, "Keep running and import new uploads as they arrive")

func main() {
	injector := di.NewContainer()

	if err := run(injector); err != nil {
		fmt.Fprintf(os.Stderr, "syncassets: %v\n", err)
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
	cfg := do.MustInvoke[*config.Config](injector)
	storeHandle := do.MustInvoke[*providers.StoreHandle](injector)
	processor := do.MustInvoke[*images.Processor](injector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer := ingest.NewAssetSyncer(storeHandle.Store, processor, cfg.Assets.UploadQueue, log.Component("assets"))
	if *watch {
		return syncer.Watch(ctx)
	}

	result, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d photos from %d folders (%d unmatched, %d skipped, %d failed)\n",
		result.Uploaded, result.Folders, result.Unmatched, result.Skipped, result.Failed)
	return nil
}
