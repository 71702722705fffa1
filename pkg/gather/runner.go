package gather

import (
	"context"
	"sort"

	"ctxgather/pkg/cache"
	"ctxgather/pkg/paths"

	"go.uber.org/zap"
)

// keyVersion changes whenever the shape of Result or the key inputs change.
const keyVersion = "gather/v1"

// Outcome is a Result plus cache metadata.
type Outcome struct {
	Result   Result
	CacheHit bool   // Served from the cache without running the pipeline.
	CacheKey string // Key the result is stored under.
}

// Runner memoizes whole gather runs in the context namespace.
type Runner struct {
	Cache  cache.Namespace[Result]
	Logger *zap.Logger
}

// NewRunner builds a Runner on store. A nil store disables caching.
func NewRunner(store *cache.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Cache:  cache.NewNamespace[Result](store, cache.NamespaceContext),
		Logger: logger,
	}
}

// Run validates roots, then serves the result from the cache or runs the
// pipeline and stores its result. Failed runs are never cached.
func (r *Runner) Run(ctx context.Context, roots []string, opts Options) (Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolved, err := paths.ValidateRoots(roots)
	if err != nil {
		return Outcome{}, err
	}
	opts = opts.withDefaults()
	key := CacheKey(resolved, opts)

	if cached, ok := r.Cache.Get(key); ok {
		logger.Info("Serving gather result from cache", zap.String("cacheKey", key))
		return Outcome{Result: cached, CacheHit: true, CacheKey: key}, nil
	}

	res, err := gatherResolved(ctx, resolved, opts, logger)
	if err != nil {
		return Outcome{}, err
	}
	r.Cache.Set(key, res)
	return Outcome{Result: res, CacheKey: key}, nil
}

// CacheKey derives the cache key from every input that affects the result.
// Roots, patterns and extra junk directories are sorted so presentation order
// does not matter.
func CacheKey(roots []string, opts Options) string {
	opts = opts.withDefaults()
	return cache.MakeKey(
		keyVersion,
		sorted(roots),
		sorted(opts.Patterns),
		opts.Relevance != nil,
		opts.RelevanceID,
		opts.Compress,
		opts.Reduce,
		opts.AllowTestArtifacts,
		opts.MaxFileSizeBytes,
		opts.MaxDepth,
		opts.MaxItems,
		opts.SortBySize,
		sorted(opts.ExtraJunkDirs),
	)
}

func sorted(values []string) []string {
	out := append([]string{}, values...)
	sort.Strings(out)
	return out
}
