// Package usecase contains the report builders: the business logic that
// turns raw GitHub API data into cached, threshold-classified reports.
package usecase

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lima-zulu/github-org-analyser/internal/config"
	"github.com/lima-zulu/github-org-analyser/internal/domain"
	"github.com/lima-zulu/github-org-analyser/internal/gateway"
)

// ReportCache is the subset of the expiring cache the builders depend on.
type ReportCache interface {
	// Get loads a live entry into out and reports whether one was found.
	Get(org, reportType string, out any) bool
	// Put stores payload with the given TTL; failures are absorbed.
	Put(org, reportType string, payload any, ttlHours int)
}

// Builder orchestrates gateway calls, threshold classification and cache
// writes for every report type. The configuration is resolved once at
// construction and treated as read-only by every build.
type Builder struct {
	fetcher gateway.Fetcher
	cache   ReportCache
	cfg     *config.Config
	logger  *log.Logger
	now     func() time.Time
}

// NewBuilder creates a new Builder instance.
func NewBuilder(fetcher gateway.Fetcher, cache ReportCache, cfg *config.Config, logger *log.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// buildReport wraps a report producer with the shared cache-first contract:
// unless skipCache is set, a live cache entry short-circuits the build
// without a single gateway call; a successful build is always written
// through to the cache, skipCache included (refresh semantics).
func buildReport[T any](ctx context.Context, b *Builder, org, reportType string, skipCache bool, produce func(ctx context.Context) (*T, error)) (*T, error) {
	if !skipCache {
		var cached T
		if b.cache.Get(org, reportType, &cached) {
			b.logger.Printf("Cache hit for %s/%s.", org, reportType)
			return &cached, nil
		}
	}

	b.logger.Printf("Building %s report for org %s...", reportType, org)
	result, err := produce(ctx)
	if err != nil {
		return nil, err
	}

	b.cache.Put(org, reportType, result, b.cfg.CacheTTLHours)
	b.logger.Printf("Completed %s report for org %s.", reportType, org)
	return result, nil
}

// activeRepositories filters the collection down to the default iteration
// scope. The exclusion rule is identical across every builder: archived
// repositories and forks are never enriched.
func activeRepositories(repos []domain.RepositoryRecord) []domain.RepositoryRecord {
	active := make([]domain.RepositoryRecord, 0, len(repos))
	for _, repo := range repos {
		if repo.Active() {
			active = append(active, repo)
		}
	}
	return active
}

// forEachRepo runs fn for every repository with bounded concurrency.
// Enrichment failures are value-level (each sub-fetch defaults on its own),
// so fn never returns an error and no repository can abort another.
func (b *Builder) forEachRepo(ctx context.Context, repos []domain.RepositoryRecord, fn func(ctx context.Context, repo domain.RepositoryRecord)) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.cfg.Workers)
	for _, repo := range repos {
		repo := repo
		eg.Go(func() error {
			fn(egCtx, repo)
			return nil
		})
	}
	_ = eg.Wait()
}

// daysSince converts an age to whole days relative to the build clock.
func (b *Builder) daysSince(t time.Time) int {
	return int(b.now().Sub(t).Hours() / 24)
}

// truncate caps rows to the display limit; callers record the true total
// before truncating.
func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
