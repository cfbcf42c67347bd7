// Command normalize_export runs a saved-places export through the
// normalization chain and prints the place names a discovery session
// would be built from.
//
// Usage:
//
//	go run ./scripts -file Saved_Places.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/FACorreiaa/go-place-recs/internal/api/ingest"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

var (
	file    = flag.String("file", "", "path to the saved-places export (JSON)")
	asJSON  = flag.Bool("json", false, "print the names as a JSON array")
	verbose = flag.Bool("verbose", false, "log what happens to each record")
)

func main() {
	flag.Parse()
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open export: %v", err)
	}
	defer f.Close()

	service := ingest.NewIngestService(logger)
	names, total, err := service.ParseExport(context.Background(), f)
	if err != nil {
		if errors.Is(err, types.ErrNoUsablePlaces) {
			log.Fatalf("Export has %d records but none yielded a usable name", total)
		}
		log.Fatalf("Failed to parse export: %v", err)
	}

	if *asJSON {
		out, err := json.MarshalIndent(names, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode names: %v", err)
		}
		fmt.Println(string(out))
	} else {
		for _, name := range names {
			fmt.Println(name)
		}
	}
	fmt.Fprintf(os.Stderr, "%d of %d records usable\n", len(names), total)
}
