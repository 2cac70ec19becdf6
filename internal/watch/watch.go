package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Zumgugger/reformat-sub001/internal/item"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
	"github.com/Zumgugger/reformat-sub001/internal/scheduler"
)

// DefaultSettleDelay is the gap between the two size probes that decide a
// new file has finished writing.
const DefaultSettleDelay = 200 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	// Dirs are the roots to watch, recursively.
	Dirs []string

	// Extensions filters candidate files; keys are lowercased with a
	// leading dot, as produced by config.ExtensionSet.
	Extensions map[string]bool

	// IgnoreDir, when set, suppresses events under it. The watch command
	// points this at the output directory so converted files are never
	// re-imported.
	IgnoreDir string

	// SettleDelay overrides DefaultSettleDelay when > 0.
	SettleDelay time.Duration

	// Token stops the watcher when it trips. A nil token watches forever.
	Token *scheduler.Token

	// OnItem receives each settled file, on the watcher goroutine, one at
	// a time.
	OnItem func(item.Item)
}

// Watcher converts files as they land in the watched directories. A file
// is handed to OnItem only after its size holds still across two probes,
// so half-copied files are never picked up.
type Watcher struct {
	opts      Options
	ignoreDir string
	pending   map[string]int64 // path -> size at last probe, -1 before the first
}

// New validates the options and absolutizes the paths so event names and
// ignore checks compare consistently.
func New(opts Options) (*Watcher, error) {
	if len(opts.Dirs) == 0 {
		return nil, errors.New("watch: no directories to watch")
	}
	if opts.OnItem == nil {
		return nil, errors.New("watch: OnItem callback is required")
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	dirs := make([]string, len(opts.Dirs))
	for i, dir := range opts.Dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving watch directory %s: %w", dir, err)
		}
		dirs[i] = abs
	}
	opts.Dirs = dirs

	ignoreDir := ""
	if opts.IgnoreDir != "" {
		abs, err := filepath.Abs(opts.IgnoreDir)
		if err != nil {
			return nil, fmt.Errorf("resolving ignore directory %s: %w", opts.IgnoreDir, err)
		}
		ignoreDir = abs
	}

	return &Watcher{
		opts:      opts,
		ignoreDir: ignoreDir,
		pending:   make(map[string]int64),
	}, nil
}

// Run watches until the token trips or the event stream closes. It blocks;
// OnItem calls happen on the calling goroutine.
func (w *Watcher) Run() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatchErrors.Inc()
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	watchCount := w.addDirectories(watcher)
	if watchCount == 0 {
		return errors.New("watch: no watchable directories")
	}
	metrics.WatchedDirectories.Set(float64(watchCount))
	defer metrics.WatchedDirectories.Set(0)
	logging.Info("Watching %d directories for new images", watchCount)

	stop := make(chan struct{})
	w.opts.Token.OnCancel(func() { close(stop) })

	ticker := time.NewTicker(w.opts.SettleDelay)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatchErrors.Inc()

		case <-ticker.C:
			w.settlePending()

		case <-stop:
			logging.Info("Watch mode stopping")
			return nil
		}
	}
}

// addDirectories registers every non-hidden directory under the roots and
// returns how many were added.
func (w *Watcher) addDirectories(watcher *fsnotify.Watcher) int {
	watchCount := 0
	for _, dir := range w.opts.Dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return nil
			}
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			if w.ignored(path) {
				return filepath.SkipDir
			}
			if addErr := watcher.Add(path); addErr != nil {
				logging.Warn("failed to watch %s: %v", path, addErr)
				metrics.WatchErrors.Inc()
			} else {
				watchCount++
			}
			return nil
		})
		if err != nil {
			logging.Error("failed to walk %s for watching: %v", dir, err)
			metrics.WatchErrors.Inc()
		}
	}
	return watchCount
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	// Skip hidden files and anything inside hidden directories.
	if strings.Contains(filepath.ToSlash(event.Name), "/.") {
		return
	}

	metrics.WatchEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if w.ignored(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.adoptTree(watcher, event.Name)
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.opts.Extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	if _, tracked := w.pending[event.Name]; !tracked {
		w.pending[event.Name] = -1
		logging.Debug("Tracking new file: %s", event.Name)
	}
}

// adoptTree registers a directory that appeared after startup. Directories
// moved in wholesale carry files that never fire their own events, so the
// walk also tracks any matching files already inside.
func (w *Watcher) adoptTree(watcher *fsnotify.Watcher, root string) {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(info.Name(), ".") && path != root {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if w.ignored(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if addErr := watcher.Add(path); addErr != nil {
				logging.Warn("failed to watch new directory %s: %v", path, addErr)
				metrics.WatchErrors.Inc()
			} else {
				logging.Debug("Watching new directory: %s", path)
				metrics.WatchedDirectories.Inc()
			}
			return nil
		}
		if w.opts.Extensions[strings.ToLower(filepath.Ext(path))] {
			if _, tracked := w.pending[path]; !tracked {
				w.pending[path] = -1
			}
		}
		return nil
	})
	if err != nil {
		logging.Warn("failed to adopt new directory %s: %v", root, err)
		metrics.WatchErrors.Inc()
	}
}

// settlePending re-probes tracked files and emits the ones whose size held
// still since the previous tick.
func (w *Watcher) settlePending() {
	for path, lastSize := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			// Removed or renamed away mid-copy.
			delete(w.pending, path)
			continue
		}
		if info.IsDir() {
			delete(w.pending, path)
			continue
		}
		if info.Size() != lastSize {
			w.pending[path] = info.Size()
			continue
		}
		delete(w.pending, path)
		w.emit(path, info)
	}
}

func (w *Watcher) emit(path string, info os.FileInfo) {
	it, err := item.FromFile(path, info)
	if err != nil {
		logging.Warn("skipping %s: %v", path, err)
		return
	}
	logging.Info("New image settled: %s (%dx%d %s)", filepath.Base(path), it.Width, it.Height, it.Format)
	w.opts.OnItem(it)
}

// ignored reports whether path sits inside the ignore directory.
func (w *Watcher) ignored(path string) bool {
	if w.ignoreDir == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(w.ignoreDir, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
