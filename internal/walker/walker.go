// Package walker enumerates candidate source files under an analysis root.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/aaronchenweb/apiscan/internal/errors"
	"github.com/aaronchenweb/apiscan/internal/logger"
)

// File is a candidate source file discovered during the walk.
// Index is the position in walk order and is the sort key that
// restores deterministic ordering after parallel per-file scans.
type File struct {
	Index   int
	Path    string // path relative to the analysis root, slash-separated
	AbsPath string
	Dir     string // relative directory, slash-separated
}

// Options control the walk.
type Options struct {
	Extensions     []string // file extensions to keep, e.g. [".py"]
	ExcludeDirs    []string // directory base names skipped entirely
	FilesPerSecond float64  // 0 disables read throttling
	MaxFileSize    int64    // files larger than this are skipped on read
}

// DefaultOptions returns the default walk options.
func DefaultOptions() Options {
	return Options{
		Extensions:  []string{".py"},
		ExcludeDirs: []string{".git", ".hg", ".svn", "__pycache__", "node_modules", "venv", ".venv", ".tox", "site-packages"},
		MaxFileSize: 2 << 20,
	}
}

// Walker walks a source tree and reads its files.
type Walker struct {
	root    string
	opts    Options
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates a walker for the given root. It fails fast when the root
// does not exist or is not a directory.
func New(root string, opts Options) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewBadRootError(root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewBadRootError(root, fs.ErrInvalid)
	}

	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultOptions().MaxFileSize
	}

	w := &Walker{
		root: root,
		opts: opts,
		log:  logger.Global().WithComponent("walker"),
	}
	if opts.FilesPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(opts.FilesPerSecond), 1)
	}
	return w, nil
}

// Root returns the analysis root.
func (w *Walker) Root() string {
	return w.root
}

// Walk enumerates candidate source files in deterministic order.
// Unreadable directories are skipped, not fatal.
func (w *Walker) Walk(ctx context.Context) ([]File, error) {
	var files []File

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			w.log.WithError(err).Debugf("skipping unreadable entry: %s", path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != w.root && w.excluded(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !w.wantExtension(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		files = append(files, File{
			Path:    rel,
			AbsPath: path,
			Dir:     dirOf(rel),
		})
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return nil, errors.Categorize(err, w.root)
	}

	// WalkDir visits lexically, but make the guarantee explicit.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for i := range files {
		files[i].Index = i
	}

	w.log.Debugf("walk found %d candidate files", len(files))
	if ctx.Err() != nil {
		return files, errors.NewCancelledError(w.root, "walk")
	}
	return files, nil
}

// Read returns the decoded text content of a file. Binary or oversized
// content yields a skippable error.
func (w *Walker) Read(ctx context.Context, f File) ([]byte, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, errors.NewCancelledError(f.Path, "read")
		}
	}

	info, err := os.Stat(f.AbsPath)
	if err != nil {
		return nil, errors.NewFileReadError(f.Path, err)
	}
	if info.Size() > w.opts.MaxFileSize {
		return nil, errors.NewDecodeError(f.Path, nil)
	}

	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, errors.NewFileReadError(f.Path, err)
	}
	if !looksLikeText(data) {
		return nil, errors.NewDecodeError(f.Path, nil)
	}
	return data, nil
}

func (w *Walker) excluded(name string) bool {
	for _, d := range w.opts.ExcludeDirs {
		if name == d {
			return true
		}
	}
	return false
}

func (w *Walker) wantExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func dirOf(rel string) string {
	d := filepath.ToSlash(filepath.Dir(rel))
	if d == "." {
		return ""
	}
	return d
}

// looksLikeText rejects NUL-bearing or invalid-UTF-8 content.
func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	for _, b := range sample {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(sample) || len(sample) == 8192
}
