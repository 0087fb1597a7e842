package seeddata

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"infinicraft-backend/application/services"
)

// ApplyFunc receives the rows of a changed seed file
type ApplyFunc func(ctx context.Context, rows []services.SeedRow) error

// Watcher re-applies a seed file whenever it changes
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	apply    ApplyFunc
	debounce time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher watches path and its directory so editor renames are seen
func NewWatcher(path string, apply ApplyFunc, logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch seed directory: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  watcher,
		apply:    apply,
		debounce: 200 * time.Millisecond,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.watchLoop(ctx)
	}()
	w.logger.Info("Seed watcher started", zap.String("path", w.path))
}

// Stop stops watching and waits for the loop to exit
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
	w.wg.Wait()
	w.logger.Info("Seed watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.reload(ctx)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	rows, err := Load(w.path)
	if err != nil {
		w.logger.Error("Failed to reload seed file, keeping current data", zap.Error(err))
		return
	}

	w.logger.Info("Seed file changed, re-applying", zap.String("path", w.path), zap.Int("rows", len(rows)))
	if err := w.apply(ctx, rows); err != nil {
		w.logger.Error("Failed to apply seed file", zap.Error(err))
	}
}
