package cmd

import (
	"context"

	"github.com/pathdex/pathdex/internal/config"
	"github.com/pathdex/pathdex/internal/daemon"
	"github.com/pathdex/pathdex/internal/index"
	"github.com/pathdex/pathdex/internal/perm"
	"github.com/pathdex/pathdex/internal/pipeline"
	"github.com/pathdex/pathdex/internal/query"
	"github.com/pathdex/pathdex/internal/token"
	"github.com/pathdex/pathdex/internal/watcher"
)

// service wires the daemon's components together and adapts them to the
// RPC handler interface.
type service struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	watch    *watcher.HybridWatcher
	tokens   *token.Manager
	executor *query.Executor
}

func newService(cfg *config.Config) (*service, error) {
	resolver, err := perm.NewResolver()
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(cfg.TokenDir(), resolver)
	if err != nil {
		return nil, err
	}
	if err := tokens.EnsureUsers(cfg.Tokens.Users); err != nil {
		return nil, err
	}

	pipe := pipeline.New(index.NewStore(), perm.NewIndex(), pipeline.Options{
		Workers:   cfg.Scan.Workers,
		BatchSize: cfg.Scan.BatchSize,
	})

	watch, err := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow:  cfg.DebounceWindow(),
		PollInterval:    cfg.PollInterval(),
		EventBufferSize: cfg.Watch.EventBuffer,
	})
	if err != nil {
		return nil, err
	}

	executor := query.New(pipe, tokens, query.Options{
		MaxCount: cfg.Query.MaxCount,
		Timeout:  cfg.QueryTimeout(),
	})

	return &service{
		cfg:      cfg,
		pipe:     pipe,
		watch:    watch,
		tokens:   tokens,
		executor: executor,
	}, nil
}

func (s *service) initialScan(ctx context.Context) error {
	return s.pipe.InitialScan(ctx, s.cfg.Roots)
}

func (s *service) runWatcher(ctx context.Context) error {
	return s.watch.Start(ctx, s.cfg.Roots)
}

func (s *service) runPipeline(ctx context.Context) error {
	return s.pipe.Run(ctx, s.watch)
}

func (s *service) shutdown() {
	_ = s.watch.Stop()
}

// HandleQuery implements daemon.RequestHandler.
func (s *service) HandleQuery(ctx context.Context, params daemon.QueryParams) (*query.Result, error) {
	return s.executor.Query(ctx, query.Request{
		Secret:  params.Secret,
		Pattern: params.Pattern,
		Count:   params.Count,
		Offset:  params.Offset,
	})
}

// HandleSecretPath implements daemon.RequestHandler.
func (s *service) HandleSecretPath(_ context.Context, params daemon.SecretPathParams) (string, error) {
	return s.tokens.PathFor(params.User)
}

// GetStatus implements daemon.RequestHandler.
func (s *service) GetStatus() daemon.StatusResult {
	stats := s.pipe.Stats()
	return daemon.StatusResult{
		Entries:      stats.Entries,
		IndexVersion: stats.Version,
		WatcherType:  s.watch.WatcherType(),
		Roots:        s.cfg.Roots,
	}
}
