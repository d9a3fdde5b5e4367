// Package ingest walks a directory tree and feeds every supported document
// into the pipeline, keeping per-file accounting.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
)

// Adder indexes one file at a time. *pipeline.Pipeline satisfies it.
type Adder interface {
	Supports(path string) bool
	AddFile(ctx context.Context, path string) (int, error)
}

// Failure records one file that could not be ingested.
type Failure struct {
	Path string
	Err  error
}

// Result summarizes one directory ingestion.
type Result struct {
	Scanned int // regular files seen
	Matched int // files with a supported extension
	Indexed int // files stored
	Chunks  int // chunks written
	Failed  []Failure
}

// Directory recursively ingests every supported file under dir. A file that
// fails to parse or index is logged, recorded in the result and skipped;
// ingestion continues with the next file. Dot-directories are not descended
// into.
func Directory(ctx context.Context, p Adder, dir string) (*Result, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	res := &Result{}
	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if info.IsDir() {
			name := info.Name()
			if path != absPath && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		res.Scanned++

		if !p.Supports(path) {
			return nil
		}
		res.Matched++

		rel, rerr := filepath.Rel(absPath, path)
		if rerr != nil {
			rel = path
		}

		n, aerr := p.AddFile(ctx, path)
		if aerr != nil {
			log.Warn().Err(aerr).Str("file", rel).Msg("failed to ingest file")
			res.Failed = append(res.Failed, Failure{Path: path, Err: aerr})
			return nil
		}
		res.Indexed++
		res.Chunks += n
		log.Info().Str("file", rel).Int("chunks", n).Msg("indexed file")
		return nil
	})
	if err != nil {
		return res, err
	}
	return res, nil
}
