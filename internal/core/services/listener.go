package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// Ensure Listener implements the interface.
var _ driving.Listener = (*Listener)(nil)

// Listener loads files as they appear in a listen directory. Files are
// loaded one at a time and archived once loaded.
type Listener struct {
	dir         driven.ListenDirectory
	loader      driving.MarcLoader
	institution string
	limiter     *rate.Limiter

	mu      sync.Mutex
	running bool
	loaded  int
}

// NewListener creates a listener that loads at most filesPerMinute files
// per minute under the given institution code.
func NewListener(
	dir driven.ListenDirectory,
	loader driving.MarcLoader,
	institution string,
	filesPerMinute int,
) *Listener {
	if filesPerMinute < 1 {
		filesPerMinute = domain.DefaultAppSettings().Watch.FilesPerMinute
	}
	return &Listener{
		dir:         dir,
		loader:      loader,
		institution: institution,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(filesPerMinute)), 1),
	}
}

// Run processes directory events until the context is cancelled or the
// event stream closes. A file being loaded when the context is cancelled
// is still loaded to completion.
func (l *Listener) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil // Already running
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	events, err := l.dir.Events(ctx)
	if err != nil {
		return err
	}

	logger.Info("Listening for MARC files")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := l.limiter.Wait(ctx); err != nil {
				return err
			}
			l.handle(ctx, path)
		}
	}
}

// Loaded returns the number of files loaded and archived so far.
func (l *Listener) Loaded() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// handle loads a single file and archives it. A file that cannot be
// opened stays where it is.
func (l *Listener) handle(ctx context.Context, path string) {
	report, err := l.loader.LoadFile(context.WithoutCancel(ctx), driving.LoadRequest{
		Path:            path,
		InstitutionCode: l.institution,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSourceOpen) {
			logger.Warn("Leaving %s in place: %v", path, err)
		} else {
			logger.Error("Failed to load %s: %v", path, err)
		}
		return
	}

	if err := l.dir.Archive(path); err != nil {
		logger.Error("Failed to archive %s: %v", path, err)
		return
	}

	l.mu.Lock()
	l.loaded++
	l.mu.Unlock()

	logger.Info("Archived %s after %d records in %s", path, report.Records, report.Duration().Round(time.Millisecond))
}
