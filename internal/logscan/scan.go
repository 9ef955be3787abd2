// Package logscan pulls chat fragments out of free-form log files. Logs
// mix plain text, JSON snippets and HTML-ish markup; every extractor here
// is best-effort and hands its matches to the pipeline as raw fragments
// for validation.
package logscan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
)

const defaultWorkers = 4

// Options bounds a scan.
type Options struct {
	MaxFiles int // 0 = no cap
	Workers  int // concurrent file readers, 0 = default
}

// Scan walks dir for *.log files and extracts raw fragments from each.
// Files are scanned concurrently but results are re-assembled in
// deterministic walk order: the heuristic assembler downstream depends on
// original input order. Unreadable files are skipped with a warning.
func Scan(ctx context.Context, dir string, opts Options) ([]pipeline.RawFragment, error) {
	files, err := listLogFiles(dir)
	if err != nil {
		return nil, err
	}
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		slog.Info("log scan capped", "max_files", opts.MaxFiles, "found", len(files))
		files = files[:opts.MaxFiles]
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([][]pipeline.RawFragment, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("log scan: skipping file", "path", path, "error", err)
				return nil
			}
			results[i] = extractAll(string(data), filepath.Base(path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []pipeline.RawFragment
	for _, r := range results {
		out = append(out, r...)
	}
	slog.Info("log scan complete", "files", len(files), "fragments", len(out))
	return out, nil
}

func listLogFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("log scan: walk error", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".log") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
