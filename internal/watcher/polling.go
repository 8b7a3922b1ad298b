package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher watches for changes by periodically walking the roots.
// Used as a fallback when fsnotify is not available or fails.
type PollingWatcher struct {
	interval  time.Duration
	fileState map[string]fileSnapshot
	events    chan Event
	errors    chan error
	stopCh    chan struct{}
	ready     chan struct{}
	mu        sync.RWMutex
	stopped   bool
	roots     []string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a new polling watcher with the given interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan Event, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		ready:     make(chan struct{}),
	}
}

// Start begins watching the given roots by polling.
func (p *PollingWatcher) Start(ctx context.Context, roots []string) error {
	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		a, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve absolute path for %s: %w", root, err)
		}
		abs = append(abs, a)
	}
	p.roots = abs

	// Baseline walk so the first tick only reports real changes.
	if err := p.scan(); err != nil {
		return fmt.Errorf("perform baseline scan: %w", err)
	}
	close(p.ready)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Ready is closed once the baseline walk is complete and subsequent
// filesystem changes will surface as events.
func (p *PollingWatcher) Ready() <-chan struct{} {
	return p.ready
}

// Events returns the channel of events.
func (p *PollingWatcher) Events() <-chan Event {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// scan walks the roots and records file state.
func (p *PollingWatcher) scan() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, root := range p.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // Skip subtrees we can't access
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			p.fileState[path] = fileSnapshot{
				modTime: info.ModTime(),
				size:    info.Size(),
				isDir:   d.IsDir(),
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk root %s: %w", root, err)
		}
	}
	return nil
}

// detectChanges compares current state with previous state and emits events.
func (p *PollingWatcher) detectChanges() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]fileSnapshot, len(p.fileState))

	for _, root := range p.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}

			snap := fileSnapshot{
				modTime: info.ModTime(),
				size:    info.Size(),
				isDir:   d.IsDir(),
			}
			current[path] = snap

			if prev, exists := p.fileState[path]; !exists {
				p.emitEvent(Event{
					Path:      path,
					Operation: OpCreate,
					IsDir:     d.IsDir(),
					Timestamp: time.Now(),
				})
			} else if prev.modTime != snap.modTime || prev.size != snap.size {
				p.emitEvent(Event{
					Path:      path,
					Operation: OpModify,
					IsDir:     d.IsDir(),
					Timestamp: time.Now(),
				})
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk root %s for changes: %w", root, err)
		}
	}

	// Anything in the previous state but not the current walk is gone.
	for path, snap := range p.fileState {
		if _, exists := current[path]; !exists {
			p.emitEvent(Event{
				Path:      path,
				Operation: OpDelete,
				IsDir:     snap.isDir,
				Timestamp: time.Now(),
			})
		}
	}

	p.fileState = current
	return nil
}

// emitEvent sends an event to the events channel.
// Must be called with lock held.
func (p *PollingWatcher) emitEvent(event Event) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
