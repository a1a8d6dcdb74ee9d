// Package watch re-runs linking whenever a fix-list file changes.
package watch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// LinkFunc is called with the current fix list on start and after every
// change to the file.
type LinkFunc func(ctx context.Context, fixes []string) error

// ParseFixList reads one commit per line. Blank lines and lines starting
// with '#' are skipped; order and duplicates are kept.
func ParseFixList(r io.Reader) ([]string, error) {
	var fixes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fixes = append(fixes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fix list: %w", err)
	}
	return fixes, nil
}

func ReadFixList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseFixList(file)
}

type Watcher struct {
	// Debounce is how long the file must be quiet before linking again.
	Debounce time.Duration

	path    string
	link    LinkFunc
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// New watches path. The parent directory is watched rather than the file
// so that editors which save by replacing the file are still seen.
func New(path string, link LinkFunc, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		Debounce: DefaultDebounce,
		path:     abs,
		link:     link,
		watcher:  watcher,
		logger:   logger,
	}, nil
}

// Run links once, then again after each change, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.trigger(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("fix list changed", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.trigger(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) trigger(ctx context.Context) {
	fixes, err := ReadFixList(w.path)
	if err != nil {
		w.logger.Error("reading fix list", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("linking fix list", zap.String("path", w.path), zap.Int("commits", len(fixes)))
	if err := w.link(ctx, fixes); err != nil {
		w.logger.Error("linking fix list", zap.Error(err))
	}
}
