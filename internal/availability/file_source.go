package availability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// FileSource serves availability from a YAML document and reloads it when the file
// changes. A failed reload keeps the last good snapshot.
type FileSource struct {
	path   string
	logger *logging.Logger

	mu      sync.RWMutex
	snap    Snapshot
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	stopped sync.Once
}

// NewFileSource loads path once. Call Watch to follow later edits.
func NewFileSource(path string, logger *logging.Logger) (*FileSource, error) {
	if logger == nil {
		logger = logging.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("availability: absolute path: %w", err)
	}
	snap, err := loadDocument(abs)
	if err != nil {
		return nil, err
	}
	return &FileSource{
		path:   abs,
		logger: logger,
		snap:   snap,
		stopCh: make(chan struct{}),
	}, nil
}

func (f *FileSource) Snapshot(ctx context.Context) (Snapshot, error) {
	_, span := tracer.Start(ctx, "availability.file_snapshot")
	defer span.End()

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap, nil
}

// Reload re-reads the file.
func (f *FileSource) Reload() error {
	snap, err := loadDocument(f.path)
	if err != nil {
		f.logger.Error("availability reload failed, keeping previous snapshot", "path", f.path, "error", err)
		return err
	}
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
	f.logger.Info("availability reloaded", "path", f.path)
	return nil
}

// Watch follows the file's directory so editors that save by rename are seen.
func (f *FileSource) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("availability: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("availability: watch directory: %w", err)
	}
	f.watcher = watcher
	go f.watchLoop()
	return nil
}

// Stop ends watching.
func (f *FileSource) Stop() {
	f.stopped.Do(func() {
		close(f.stopCh)
		if f.watcher != nil {
			f.watcher.Close()
		}
	})
}

func (f *FileSource) watchLoop() {
	name := filepath.Base(f.path)
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				_ = f.Reload()
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Error("availability watcher error", "error", err)
		case <-f.stopCh:
			return
		}
	}
}

func loadDocument(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("availability: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("availability: parse %s: %w", path, err)
	}
	return doc.Snapshot(), nil
}
