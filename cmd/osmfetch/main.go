// Package main fetches beaches for a country or bounding box from
// OpenStreetMap, enriches them with Wikipedia summaries and Unsplash photos,
// and writes them in the seed file format.
//
// Usage:
//
//	go run ./cmd/osmfetch Greece
//	go run ./cmd/osmfetch 36.0,22.5,36.5,23.2
//	go run ./cmd/osmfetch -out data/ Portugal
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/di"
	"github.com/beachatlas/beachatlas-server/internal/ingest"
	"github.com/beachatlas/beachatlas-server/internal/ingest/overpass"
	"github.com/beachatlas/beachatlas-server/internal/ingest/unsplash"
	"github.com/beachatlas/beachatlas-server/internal/ingest/wikipedia"
	"github.com/beachatlas/beachatlas-server/internal/logger"
)

var (
	outDir    = flag.String("out", ".", "Directory to write the beach file to")
	instances = flag.String("overpass", "", "Comma separated Overpass endpoints (default: public mirrors)")
)

func main() {
	injector := di.NewContainer()

	if err := run(injector); err != nil {
		fmt.Fprintf(os.Stderr, "osmfetch: %v\n", err)
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
	if flag.NArg() != 1 {
		return errors.New("usage: osmfetch [flags] <country | minLat,minLon,maxLat,maxLon>")
	}
	area, err := overpass.ParseArea(flag.Arg(0))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var endpoints []string
	if *instances != "" {
		endpoints = strings.Split(*instances, ",")
	}

	fetcher := ingest.NewOSMFetcher(
		overpass.NewClient(endpoints, log.Component("overpass")),
		wikipedia.NewClient("", log.Component("wikipedia")),
		do.MustInvoke[*unsplash.Client](injector),
		log.Component("osm"),
		ingest.OSMOptions{},
	)

	beaches, err := fetcher.Fetch(ctx, area)
	if err != nil {
		return err
	}

	path := filepath.Join(*outDir, ingest.OutputFileName(area))
	if err := ingest.WriteBeachFile(path, beaches); err != nil {
		return err
	}

	fmt.Printf("Wrote %d beaches to %s\n", len(beaches), path)
	return nil
}
