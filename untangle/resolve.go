package untangle

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mqsplit/search"
)

// DefaultConcurrency bounds in-flight search invocations when no explicit
// limit is configured. The bound protects process and descriptor limits of
// the host, it never changes classification outcomes.
const DefaultConcurrency = 10

// Outcome is the classification of a single unit. Origin is set when exactly
// one candidate file survived filtering, otherwise the unit is unresolved.
// Err carries the underlying search provider failure, if any, for verbose
// diagnostics only.
type Outcome struct {
	Unit   *Unit
	Origin string
	Err    error
}

// Resolved reports whether the unit was attributed to a single origin file.
func (o Outcome) Resolved() bool {
	return len(o.Origin) > 0
}

// ResolverOptions configures origin resolution.
type ResolverOptions struct {
	// Glob optionally narrows searches to matching paths.
	Glob string
	// Ignore lists files never considered valid origins.
	Ignore []string
	// Self is the stylesheet being processed. It is always ignored to
	// avoid self-matches, whether or not it appears in Ignore.
	Self string
	// Extension is the expected source stylesheet extension (".less").
	// Matches with any other extension are never valid origins.
	Extension string
	// Concurrency bounds in-flight search invocations, DefaultConcurrency
	// when zero or negative.
	Concurrency int
}

// Resolver attributes units to origin files via a search provider.
type Resolver struct {
	provider    search.Provider
	glob        string
	ignore      map[string]struct{}
	ext         string
	concurrency int
	log         *zap.Logger
}

// NewResolver creates a resolver over the given search provider.
func NewResolver(provider search.Provider, opts ResolverOptions, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}

	ignore := make(map[string]struct{}, len(opts.Ignore)+1)
	for _, p := range opts.Ignore {
		ignore[normalizePath(p)] = struct{}{}
	}
	if len(opts.Self) > 0 {
		ignore[normalizePath(opts.Self)] = struct{}{}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Resolver{
		provider:    provider,
		glob:        opts.Glob,
		ignore:      ignore,
		ext:         strings.ToLower(opts.Extension),
		concurrency: concurrency,
		log:         log.Named("resolve"),
	}
}

// ResolveAll dispatches all units against the search provider and returns a
// channel of outcomes, closed once every unit has been classified. At most
// the configured number of searches is in flight at any moment. Outcomes
// arrive in completion order, which is unrelated to submission order, and
// every dispatched unit produces exactly one outcome - success or failure.
func (r *Resolver) ResolveAll(ctx context.Context, units []*Unit) <-chan Outcome {
	jobs := make(chan *Unit)
	out := make(chan Outcome)

	var wg sync.WaitGroup
	for range r.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				out <- r.resolve(ctx, u)
			}
		}()
	}

	go func() {
		for _, u := range units {
			jobs <- u
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	return out
}

// resolve classifies a single unit. Provider failures collapse to an
// unresolved outcome, they never abort processing of other units.
func (r *Resolver) resolve(ctx context.Context, u *Unit) Outcome {
	token := u.Token()

	paths, err := r.provider.Search(ctx, token, r.glob)
	if err != nil {
		r.log.Debug("Search provider failed",
			zap.String("token", token), zap.String("selector", u.Selector), zap.Error(err))
		u.Origins = []string{}
		return Outcome{Unit: u, Err: err}
	}

	u.Origins = r.filter(paths)
	if len(u.Origins) == 1 {
		return Outcome{Unit: u, Origin: u.Origins[0]}
	}
	r.log.Debug("Selector has no single origin",
		zap.String("token", token), zap.Int("candidates", len(u.Origins)))
	return Outcome{Unit: u}
}

// filter applies the classification policy to raw provider matches: drop
// ignored paths, drop paths with the wrong extension, then deduplicate
// preserving first-seen order.
func (r *Resolver) filter(paths []string) []string {
	filtered := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		key := normalizePath(p)
		if _, ok := r.ignore[key]; ok {
			continue
		}
		if strings.ToLower(path.Ext(key)) != r.ext {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		filtered = append(filtered, p)
	}
	return filtered
}

// normalizePath brings provider and caller supplied paths to a common shape
// so ignore checks and deduplication compare like with like.
func normalizePath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
