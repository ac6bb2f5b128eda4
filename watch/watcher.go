// Package watch reacts to saved listing pages appearing or changing in a
// directory.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Handler is called with the absolute path of a changed page.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	// Debounce is how long changes are collected before the handler runs.
	Debounce time.Duration

	// Extensions lists the file extensions to react to (e.g. ".html").
	Extensions []string

	Logger *slog.Logger
}

// Watcher watches one directory and calls a handler for every page whose
// content changed. Handlers run one at a time.
type Watcher struct {
	dir        string
	debounce   time.Duration
	extensions map[string]bool
	logger     *slog.Logger
	fsw        *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]struct{}

	// content hash per path, so rewrites of identical bytes are ignored
	hashes map[string]string
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	w := &Watcher{
		dir:        abs,
		debounce:   opts.Debounce,
		extensions: make(map[string]bool),
		logger:     opts.Logger,
		fsw:        fsw,
		pending:    make(map[string]struct{}),
		hashes:     make(map[string]string),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".html", ".htm"}
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extensions[strings.ToLower(ext)] = true
	}

	return w, nil
}

// Dir returns the absolute path of the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Close stops watching. Run returns once the watcher is closed.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes file events until ctx is done or the watcher is closed.
// Handler errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	w.logger.Info("Watching for listing pages",
		"dir", w.dir,
		"debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flush(ctx, handle)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("Listing page change detected",
		"path", event.Name,
		"op", event.Op.String())
}

func (w *Watcher) flush(ctx context.Context, handle Handler) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	sort.Strings(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Removed or renamed before the flush.
			w.logger.Debug("Skipping unreadable page", "path", path, "error", err)
			continue
		}

		sum := sha256.Sum256(content)
		hash := hex.EncodeToString(sum[:])
		if w.hashes[path] == hash {
			continue
		}
		w.hashes[path] = hash

		if err := handle(ctx, path); err != nil {
			w.logger.Error("Failed to process listing page",
				"path", path,
				"error", err)
		}
	}
}
