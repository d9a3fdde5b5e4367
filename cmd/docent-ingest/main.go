// Command docent-ingest indexes every supported document under a directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"

	"github.com/docentai/docent/rag/config"
	"github.com/docentai/docent/rag/ingest"
	"github.com/docentai/docent/rag/pipeline"
)

func usage() {
	fmt.Fprint(os.Stderr, `Usage: docent-ingest [flags] <directory>

Recursively indexes every supported document under <directory>.
Supported types: .txt, .md, .html, .htm, .pdf, .docx, .pptx

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	reset := flag.Bool("reset", false, "drop the collection before ingesting")
	noLayout := flag.Bool("no-layout", false, "disable layout-aware PDF extraction")
	collection := flag.String("collection", "", "collection to ingest into (overrides DOCENT_COLLECTION)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	log.DefaultLogger = log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
	}

	if err := run(flag.Arg(0), *reset, *noLayout, *collection); err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
}

func run(dir string, reset, noLayout bool, collection string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if noLayout {
		cfg.PreserveLayout = false
	}
	if collection != "" {
		cfg.Collection = collection
	}

	ctx := context.Background()
	pipe, err := pipeline.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	if reset {
		if err := pipe.Reset(ctx); err != nil {
			return err
		}
		log.Info().Str("collection", cfg.Collection).Msg("collection reset")
	}

	start := time.Now()
	res, err := ingest.Directory(ctx, pipe, dir)
	if err != nil {
		return err
	}

	log.Info().
		Str("collection", cfg.Collection).
		Int("indexed", res.Indexed).
		Int("failed", len(res.Failed)).
		Int("chunks", res.Chunks).
		Dur("elapsed", time.Since(start)).
		Msg("ingestion complete")

	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(res.Failed), res.Matched)
	}
	return nil
}
