package listendir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ListenDirectory = (*Watcher)(nil)

// minDebounce bounds the quiet period; go-cache treats zero as "never expire".
const minDebounce = 50 * time.Millisecond

// Watcher implements driven.ListenDirectory on top of fsnotify.
type Watcher struct {
	dir        string
	archiveDir string
	debounce   time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	now     func() time.Time
}

// New creates a watcher for dir that archives into archiveDir.
func New(dir, archiveDir string, debounce time.Duration) *Watcher {
	if debounce < minDebounce {
		debounce = minDebounce
	}
	return &Watcher{
		dir:        dir,
		archiveDir: archiveDir,
		debounce:   debounce,
		now:        time.Now,
	}
}

// Events starts watching and returns the stream of ready files.
func (w *Watcher) Events(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create listen directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		fw.Close()
		return nil, errors.New("listen directory is already being watched")
	}
	w.watcher = fw
	w.mu.Unlock()

	existing, err := w.existingFiles()
	if err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan string)
	go w.loop(ctx, fw, existing, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, existing []string, out chan<- string) {
	defer close(out)
	defer w.Close()

	done := make(chan struct{})
	defer close(done)

	// Each write pushes the path's expiry forward; expiry means the file is quiet.
	ready := make(chan string, 16)
	pending := gocache.New(w.debounce, w.debounce/2)
	pending.OnEvicted(func(path string, _ any) {
		select {
		case ready <- path:
		case <-done:
		}
	})
	defer pending.Flush()

	for _, path := range existing {
		select {
		case out <- path:
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if path := w.candidate(event); path != "" {
				pending.Set(path, struct{}{}, gocache.DefaultExpiration)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("Listen directory watch error: %v", err)

		case path := <-ready:
			if !w.isLoadable(path) {
				continue
			}
			logger.Debug("File ready: %s", path)
			select {
			case out <- path:
			case <-ctx.Done():
				return
			}
		}
	}
}

// candidate returns the path of an event that may introduce a new file.
func (w *Watcher) candidate(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) || isHidden(event.Name) {
		return ""
	}
	return event.Name
}

// isLoadable reports whether path is a visible regular file.
func (w *Watcher) isLoadable(path string) bool {
	if isHidden(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// existingFiles lists loadable files already in the directory, by name.
func (w *Watcher) existingFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read listen directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if w.isLoadable(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Archive moves path into the archive directory. An existing file of the
// same name is kept and the new one gets a timestamp suffix.
func (w *Watcher) Archive(path string) error {
	if err := os.MkdirAll(w.archiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	base := filepath.Base(path)
	target := filepath.Join(w.archiveDir, base)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		target = filepath.Join(w.archiveDir, stem+"."+w.now().Format("20060102T150405.000000000")+ext)
	}

	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

// isHidden reports whether the file name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
