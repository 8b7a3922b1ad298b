// Package watcher observes configured roots for filesystem changes and
// emits debounced batches of change events for the indexer pipeline.
package watcher

import (
	"context"
	"time"
)

// Operation represents a filesystem change type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away from this
	// path. The new path surfaces as a separate OpCreate, so an
	// uncorrelated rename degrades to an independent remove plus create.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event represents a single filesystem change.
type Event struct {
	// Path is the absolute path of the changed object.
	Path string

	// Operation is the type of change.
	Operation Operation

	// IsDir indicates the event is for a directory, when known.
	IsDir bool

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Watcher is the interface the pipeline consumes. Events arrive as
// debounced batches; the channels close when the watcher stops.
type Watcher interface {
	// Start begins watching the given roots recursively and blocks until
	// Stop is called or the context is cancelled.
	Start(ctx context.Context, roots []string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns the channel of debounced event batches.
	Events() <-chan []Event

	// Errors returns the channel of non-fatal watcher errors.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 500ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 1000
	EventBufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 1000,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
