// Package pipeline owns the single writer feeding the path and permission
// indexes. It performs the initial scan of the configured roots, then
// applies debounced watcher batches, publishing a combined view of both
// indexes after each batch so a query never sees a path in one index but
// not the other.
package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	pdxerrors "github.com/pathdex/pathdex/internal/errors"
	"github.com/pathdex/pathdex/internal/index"
	"github.com/pathdex/pathdex/internal/meta"
	"github.com/pathdex/pathdex/internal/perm"
	"github.com/pathdex/pathdex/internal/watcher"
)

// View is an immutable pairing of the two index snapshots taken after the
// same mutation batch. Queries work against one view for their whole
// lifetime.
type View struct {
	// Index is the path index snapshot.
	Index *index.Snapshot
	// Perm is the permission index snapshot.
	Perm *perm.Snapshot
}

// Options configures the pipeline.
type Options struct {
	// Workers bounds concurrent root scans. Default: 4
	Workers int
	// BatchSize is the mutation batch size during the initial scan.
	// Default: 512
	BatchSize int
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 512
	}
	return o
}

// Pipeline is the single writer for both indexes.
type Pipeline struct {
	store    *index.Store
	perms    *perm.Index
	resolver meta.Resolver
	opts     Options
	view     atomic.Pointer[View]
	mu       sync.Mutex // serializes apply+publish
}

// New creates a pipeline over the given stores and publishes an initial
// empty view.
func New(store *index.Store, perms *perm.Index, opts Options) *Pipeline {
	p := &Pipeline{
		store: store,
		perms: perms,
		opts:  opts.WithDefaults(),
	}
	p.view.Store(&View{Index: store.Snapshot(), Perm: perms.Snapshot()})
	return p
}

// View returns the current combined view. Never blocks.
func (p *Pipeline) View() *View {
	return p.view.Load()
}

// InitialScan walks the roots and populates both indexes. Roots are
// scanned concurrently; a failure in one root is reported but does not
// abort the others. Per-path stat failures are logged and skipped.
func (p *Pipeline) InitialScan(ctx context.Context, roots []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	var (
		errMu    sync.Mutex
		firstErr error
	)

	for _, root := range roots {
		root := root
		g.Go(func() error {
			if err := p.scanRoot(ctx, root); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("root scan failed",
					slog.String("root", root),
					slog.String("error", err.Error()),
				)
				errMu.Lock()
				if firstErr == nil {
					firstErr = pdxerrors.ScanError(root, err)
				}
				errMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return firstErr
}

// scanRoot walks one root, applying mutations in batches.
func (p *Pipeline) scanRoot(ctx context.Context, root string) error {
	idxBatch := make([]index.Mutation, 0, p.opts.BatchSize)
	permBatch := make([]perm.Mutation, 0, p.opts.BatchSize)

	flush := func() {
		if len(idxBatch) == 0 {
			return
		}
		p.apply(idxBatch, permBatch)
		idxBatch = idxBatch[:0]
		permBatch = permBatch[:0]
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// A failure on the root itself means the whole scan produced
			// nothing; only descendant failures are skippable.
			if path == root || d == nil {
				return err
			}
			slog.Warn("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		m, rerr := p.resolver.Resolve(path)
		if rerr != nil {
			// Path vanished or stat failed between walk and resolve.
			slog.Warn("skipping path with unresolvable metadata",
				slog.String("path", path),
				slog.String("error", rerr.Error()),
			)
			return nil
		}

		idxBatch = append(idxBatch, index.Mutation{Op: index.OpUpsert, Path: path, Meta: m})
		permBatch = append(permBatch, perm.Mutation{Record: perm.FromMetadata(path, m)})
		if len(idxBatch) >= p.opts.BatchSize {
			flush()
		}
		return nil
	})
	flush()
	return err
}

// Run consumes watcher batches until the context is cancelled or the
// watcher's channels close. The watcher must already be started.
func (p *Pipeline) Run(ctx context.Context, w watcher.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			p.ApplyEvents(batch)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// ApplyEvents converts one debounced watcher batch into index mutations and
// publishes the resulting view.
func (p *Pipeline) ApplyEvents(events []watcher.Event) {
	if len(events) == 0 {
		return
	}

	idxBatch := make([]index.Mutation, 0, len(events))
	permBatch := make([]perm.Mutation, 0, len(events))

	for _, ev := range events {
		switch ev.Operation {
		case watcher.OpDelete, watcher.OpRename:
			idxBatch = append(idxBatch, index.Mutation{Op: index.OpRemove, Path: ev.Path})
			permBatch = append(permBatch, perm.Mutation{Remove: true, Record: perm.Record{Path: ev.Path}})
			// A removed directory yields one event; its indexed
			// descendants produce none and must be dropped here.
			p.removeSubtree(ev.Path, &idxBatch, &permBatch)

		case watcher.OpCreate, watcher.OpModify:
			m, err := p.resolver.Resolve(ev.Path)
			if err != nil {
				// The path is already gone again; treat as removal so
				// the index converges to the filesystem.
				idxBatch = append(idxBatch, index.Mutation{Op: index.OpRemove, Path: ev.Path})
				permBatch = append(permBatch, perm.Mutation{Remove: true, Record: perm.Record{Path: ev.Path}})
				p.removeSubtree(ev.Path, &idxBatch, &permBatch)
				continue
			}
			idxBatch = append(idxBatch, index.Mutation{Op: index.OpUpsert, Path: ev.Path, Meta: m})
			permBatch = append(permBatch, perm.Mutation{Record: perm.FromMetadata(ev.Path, m)})
			// A directory moved into a root arrives as one create; its
			// pre-existing contents never emit their own events.
			if ev.Operation == watcher.OpCreate && m.Kind == meta.KindDir {
				p.scanSubtree(ev.Path, &idxBatch, &permBatch)
			}
		}
	}

	p.apply(idxBatch, permBatch)
}

// scanSubtree appends upserts for everything under dir, excluding dir
// itself.
func (p *Pipeline) scanSubtree(dir string, idxBatch *[]index.Mutation, permBatch *[]perm.Mutation) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == dir {
			return nil
		}
		m, rerr := p.resolver.Resolve(path)
		if rerr != nil {
			return nil
		}
		*idxBatch = append(*idxBatch, index.Mutation{Op: index.OpUpsert, Path: path, Meta: m})
		*permBatch = append(*permBatch, perm.Mutation{Record: perm.FromMetadata(path, m)})
		return nil
	})
}

// removeSubtree appends removals for every indexed path under dir,
// excluding dir itself.
func (p *Pipeline) removeSubtree(dir string, idxBatch *[]index.Mutation, permBatch *[]perm.Mutation) {
	children, err := p.store.Snapshot().PrefixScan(context.Background(), dir+"/")
	if err != nil {
		return
	}
	for _, c := range children {
		*idxBatch = append(*idxBatch, index.Mutation{Op: index.OpRemove, Path: c.Path})
		*permBatch = append(*permBatch, perm.Mutation{Remove: true, Record: perm.Record{Path: c.Path}})
	}
}

// apply updates both indexes and publishes a combined view of the results.
func (p *Pipeline) apply(idxBatch []index.Mutation, permBatch []perm.Mutation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.Apply(idxBatch)
	p.perms.Apply(permBatch)
	p.view.Store(&View{Index: p.store.Snapshot(), Perm: p.perms.Snapshot()})
}

// Stats summarizes the current view for status reporting.
type Stats struct {
	// Entries is the number of indexed paths.
	Entries int
	// Version is the index snapshot version.
	Version uint64
}

// Stats returns counters from the current view.
func (p *Pipeline) Stats() Stats {
	v := p.View()
	return Stats{Entries: v.Index.Len(), Version: v.Index.Version()}
}
