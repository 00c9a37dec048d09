package plugin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the Watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange after definition files in Dir are created, written,
// removed or renamed. Bursts of events collapse into one call.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	OnChange func()
	Log      *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Start begins watching. It returns once the directory is registered; events
// are handled in a goroutine until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}
	if w.OnChange == nil {
		return errors.New("plugin watcher: no OnChange callback")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.Dir); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run(ctx, fw, w.stopCh, w.doneCh)
	w.logger().Info("watching plugin dir", zap.String("dir", w.Dir))
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fw := w.watcher
	if fw == nil {
		w.mu.Unlock()
		return nil
	}
	w.watcher = nil
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	return fw.Close()
}

func (w *Watcher) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	delay := w.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.logger().Debug("plugin file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(delay)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger().Warn("plugin watcher error", zap.Error(err))
		case <-timer.C:
			w.OnChange()
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !IsDefinitionFile(ev.Name) {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
