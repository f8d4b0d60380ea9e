package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vcnkl/rexec/git"
	"github.com/vcnkl/rexec/logger"
)

const DefaultDebounce = 100 * time.Millisecond

type Watcher struct {
	roots    []string
	files    map[string]bool
	outputs  []string
	ignore   []string
	debounce time.Duration
	onChange func(paths []string)
	fsw      *fsnotify.Watcher
	log      logger.Logger
	mu       sync.Mutex
}

// NewWatcher watches directories recursively. A path naming a regular file
// is watched through its parent directory, so editors that replace the file
// on save still trigger a change.
func NewWatcher(paths []string, ignore []string, log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	w := &Watcher{
		files:    make(map[string]bool),
		ignore:   ignore,
		debounce: DefaultDebounce,
		fsw:      fsw,
		log:      log,
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch path %s: %w", p, err)
		}
		if info.IsDir() {
			w.roots = append(w.roots, abs)
		} else {
			w.files[abs] = true
		}
	}

	return w, nil
}

// OnChange registers fn to receive each debounced batch of changed paths.
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Exclude drops events for files the run itself writes, along with the temp
// files used to replace them. Call before Start.
func (w *Watcher) Exclude(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			w.outputs = append(w.outputs, abs)
		}
	}
}

func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", root, err)
		}
	}
	for file := range w.files {
		if err := w.fsw.Add(filepath.Dir(file)); err != nil {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
	}

	debouncer := NewDebouncer(w.debounce, func(paths []string) {
		w.mu.Lock()
		fn := w.onChange
		w.mu.Unlock()

		if fn != nil {
			fn(paths)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !w.relevant(event.Name) || w.shouldIgnore(event.Name) || w.isOutput(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debouncer.Add(event.Name)
			}

			if event.Op&fsnotify.Create != 0 && w.underRoot(event.Name) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", logger.Err(err))
		}
	}
}

func (w *Watcher) Stop() {
	w.fsw.Close()
}

func (w *Watcher) relevant(path string) bool {
	return w.files[path] || w.underRoot(path)
}

// isOutput matches an excluded file, the ".<name>.*.tmp" files reports are
// staged in, and the "<name><digits>" files os.CreateTemp makes for metrics.
func (w *Watcher) isOutput(path string) bool {
	dir, name := filepath.Dir(path), filepath.Base(path)
	for _, out := range w.outputs {
		if filepath.Dir(out) != dir {
			continue
		}
		base := filepath.Base(out)
		switch {
		case name == base:
			return true
		case strings.HasPrefix(name, "."+base+".") && strings.HasSuffix(name, ".tmp"):
			return true
		case strings.HasPrefix(name, base) && isDigits(name[len(base):]):
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			if path != root && w.shouldIgnore(path) {
				return filepath.SkipDir
			}
			if ignored, _ := git.IsIgnored(path); ignored && path != root {
				return filepath.SkipDir
			}

			if err = w.fsw.Add(path); err != nil {
				w.log.Debug("failed to watch directory", logger.String("path", path), logger.Err(err))
			}
		}

		return nil
	})
}

// shouldIgnore matches the base name and every path element against the
// ignore globs.
func (w *Watcher) shouldIgnore(path string) bool {
	for _, pattern := range w.ignore {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "./"), "/")
		for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
			if elem == "" {
				continue
			}
			if matched, err := filepath.Match(pattern, elem); err == nil && matched {
				return true
			}
		}
	}
	return false
}
