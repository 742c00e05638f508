package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Scanner discovers files to ingest.
type Scanner struct {
	logger *slog.Logger
}

// New creates a Scanner. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan walks the root directory and streams matching files in lexical
// order. The channel is closed when scanning is complete.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{MaxDepth: Unlimited}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	results := make(chan ScanResult, 16)
	go func() {
		defer close(results)
		s.scan(ctx, rootDir, absRoot, opts, maxFileSize, results)
	}()

	return results, nil
}

// Collect drains Scan into a slice, stopping at the first error.
func (s *Scanner) Collect(ctx context.Context, opts *ScanOptions) ([]*FileInfo, error) {
	ch, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*FileInfo
	var scanErr error
	for r := range ch {
		if r.Error != nil {
			if scanErr == nil {
				scanErr = r.Error
			}
			continue
		}
		files = append(files, r.File)
	}
	return files, scanErr
}

func (s *Scanner) scan(ctx context.Context, rootDir, absRoot string, opts *ScanOptions, maxFileSize int64, results chan<- ScanResult) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			s.logger.Debug("skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if s.shouldExcludeDir(relPath, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !matchesExtension(relPath, opts.Extensions) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize {
			s.logger.Debug("skipping large file", slog.String("path", relPath), slog.Int64("size", info.Size()))
			return nil
		}
		if isBinaryFile(path) {
			return nil
		}

		fileInfo := &FileInfo{
			Path:    filepath.Join(rootDir, relPath),
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		select {
		case results <- ScanResult{File: fileInfo}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// shouldExcludeDir reports whether the directory at relPath is pruned.
func (s *Scanner) shouldExcludeDir(relPath string, opts *ScanOptions) bool {
	if opts.MaxDepth >= 0 && depth(relPath) > opts.MaxDepth {
		return true
	}

	base := filepath.Base(relPath)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, name := range defaultExcludeDirs {
		if base == name {
			return true
		}
	}
	for _, name := range opts.ExcludeDirs {
		if base == name {
			return true
		}
	}
	return false
}

// depth counts the components of a relative directory path.
func depth(relPath string) int {
	return len(strings.Split(filepath.ToSlash(relPath), "/"))
}

func matchesExtension(relPath string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(relPath))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// isBinaryFile checks if a file is binary by looking for null bytes.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}

	return bytes.Contains(buf[:n], []byte{0})
}
