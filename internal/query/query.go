// Package query executes authenticated, permission-filtered path queries
// against a pipeline view.
//
// A query runs entirely against one immutable view, so its results are
// consistent with each other and pagination over an unchanged index is
// deterministic: the same pattern at different offsets partitions the same
// canonical result order.
package query

import (
	"context"
	"time"

	pdxerrors "github.com/pathdex/pathdex/internal/errors"
	"github.com/pathdex/pathdex/internal/index"
	"github.com/pathdex/pathdex/internal/perm"
	"github.com/pathdex/pathdex/internal/pipeline"
)

// ViewSource yields the current combined index view.
type ViewSource interface {
	View() *pipeline.View
}

// Validator maps a presented secret to the requesting identity.
type Validator interface {
	Validate(secret string) (perm.Identity, error)
}

// Request is one query as received from a client.
type Request struct {
	// Secret authenticates the requesting user.
	Secret string
	// Pattern is matched as a substring of the indexed paths.
	Pattern string
	// Count is the maximum number of matches to return. Must be positive.
	Count int
	// Offset skips that many matches in canonical order.
	Offset int
}

// Match is one result row.
type Match struct {
	// Path is the absolute matched path.
	Path string `json:"path"`
	// Kind names the object type.
	Kind string `json:"kind"`
	// Size is the size in bytes at last observation.
	Size int64 `json:"size"`
	// ModTime is the modification time at last observation.
	ModTime time.Time `json:"mod_time"`
}

// Result is one page of matches.
type Result struct {
	// Matches is the page, in canonical order.
	Matches []Match `json:"matches"`
	// Total is the number of visible matches before pagination.
	Total int `json:"total"`
	// Version identifies the index generation the query ran against.
	Version uint64 `json:"version"`
}

// Options configures the executor.
type Options struct {
	// MaxCount caps the per-request Count. Default: 10000
	MaxCount int
	// Timeout bounds each query. Default: 10s
	Timeout time.Duration
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.MaxCount <= 0 {
		o.MaxCount = 10000
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

// Executor runs queries.
type Executor struct {
	views  ViewSource
	tokens Validator
	opts   Options
}

// New creates an executor over the given view source and token validator.
func New(views ViewSource, tokens Validator, opts Options) *Executor {
	return &Executor{views: views, tokens: tokens, opts: opts.WithDefaults()}
}

// Query authenticates the request, searches one view, filters by the
// requesting user's permissions and paginates the visible matches.
func (e *Executor) Query(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := e.tokens.Validate(req.Secret)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	view := e.views.View()

	entries, err := view.Index.Search(ctx, req.Pattern)
	if err != nil {
		return nil, pdxerrors.InternalError("query execution", err)
	}

	visible := entries[:0:0]
	for _, entry := range entries {
		if view.Perm.Visible(entry.Path, id) {
			visible = append(visible, entry)
		}
	}

	count := min(req.Count, e.opts.MaxCount)
	page := paginate(visible, req.Offset, count)

	matches := make([]Match, 0, len(page))
	for _, entry := range page {
		matches = append(matches, Match{
			Path:    entry.Path,
			Kind:    entry.Kind.String(),
			Size:    entry.Size,
			ModTime: entry.ModTime,
		})
	}

	return &Result{
		Matches: matches,
		Total:   len(visible),
		Version: view.Index.Version(),
	}, nil
}

func validate(req Request) error {
	if req.Pattern == "" {
		return pdxerrors.InvalidArgumentError("pattern must not be empty")
	}
	if req.Count <= 0 {
		return pdxerrors.InvalidArgumentError("count must be positive")
	}
	if req.Offset < 0 {
		return pdxerrors.InvalidArgumentError("offset must not be negative")
	}
	return nil
}

func paginate(entries []*index.Entry, offset, count int) []*index.Entry {
	if offset >= len(entries) {
		return nil
	}
	end := min(offset+count, len(entries))
	return entries[offset:end]
}
