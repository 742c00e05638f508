// Package scanner discovers source documents under a root directory.
// Traversal is depth-bounded and filtered by file extension.
package scanner

import "time"

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Unlimited disables the depth bound.
const Unlimited = -1

// FileInfo describes a discovered file.
type FileInfo struct {
	Path    string    // Path as given root joined with the relative path
	RelPath string    // Relative to the scan root, slash-separated
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the directory to scan.
	RootDir string

	// MaxDepth is the deepest directory level whose files are returned:
	// 0 is the root only, 2 allows root/a/b/file. Unlimited disables it.
	MaxDepth int

	// Extensions filters by file extension, with the dot (empty = all).
	// Matching is case-insensitive.
	Extensions []string

	// ExcludeDirs names directories skipped at any level, in addition to
	// hidden directories and the defaults.
	ExcludeDirs []string

	// MaxFileSize is the maximum file size to include in bytes (0 = 10MB default).
	MaxFileSize int64
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// defaultExcludeDirs are build and cache directories found in documentation trees.
var defaultExcludeDirs = []string{
	"_build",
	"__pycache__",
	"node_modules",
	"build",
	"venv",
}
