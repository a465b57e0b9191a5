package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/infrastructure/ruleformat"
	"github.com/doeshing/cmdguard/internal/ports"
)

// Remote serves rules fetched from a network origin on a refresh cadence.
// The transport lives behind ports.FeedFetcher; this provider only consumes
// already-fetched bytes in the canonical rule format. Fetch or parse
// failures never reach validation: the last-known-good rules keep serving,
// or the provider contributes nothing if no fetch ever succeeded.
type Remote struct {
	origin   string
	fetcher  ports.FeedFetcher
	timeout  time.Duration
	maxAge   time.Duration
	priority uint32
	log      ports.Logger

	mu        sync.Mutex
	lastGood  []domain.Rule
	fetchedAt time.Time
}

// NewRemote builds the feed-backed provider. maxAge controls the refresh
// cadence; timeout bounds each individual fetch.
func NewRemote(origin string, fetcher ports.FeedFetcher, timeout, maxAge time.Duration, priority uint32, log ports.Logger) *Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Remote{
		origin:   origin,
		fetcher:  fetcher,
		timeout:  timeout,
		maxAge:   maxAge,
		priority: priority,
		log:      log,
	}
}

func (r *Remote) Name() string     { return "remote" }
func (r *Remote) Priority() uint32 { return r.priority }

// LoadRules returns the cached feed, fetching once if nothing has been
// retrieved yet.
func (r *Remote) LoadRules(ctx context.Context) ([]domain.Rule, error) {
	r.mu.Lock()
	cached, have := r.lastGood, !r.fetchedAt.IsZero()
	r.mu.Unlock()
	if have {
		return cached, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastGood, nil
}

// NeedsRefresh reports whether the cadence has elapsed since the last
// successful fetch.
func (r *Remote) NeedsRefresh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchedAt.IsZero() || time.Since(r.fetchedAt) >= r.maxAge
}

// Refresh fetches and parses the feed under the configured timeout. On any
// failure the previous cache is retained.
func (r *Remote) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return timeout("remote", err)
		}
		return unavailable("remote", err)
	}

	now := time.Now()
	source := domain.RuleSource{Kind: domain.SourceRemote, Origin: r.origin, FetchedAt: now}
	rules, errs := ruleformat.ParseRules(string(data), source)
	for _, perr := range errs {
		r.log.Warn("remote rule skipped", map[string]interface{}{"origin": r.origin, "error": perr.Error()})
	}
	if len(rules) == 0 && len(errs) > 0 {
		return parseFailed("remote", fmt.Errorf("feed yielded no usable rules (%d errors)", len(errs)))
	}

	r.mu.Lock()
	r.lastGood = rules
	r.fetchedAt = now
	r.mu.Unlock()
	return nil
}

var _ ports.RuleProvider = (*Remote)(nil)
