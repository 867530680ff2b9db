package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

func TestBuilder_CacheHitMakesNoGatewayCalls(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, reportCache, cfg := newTestBuilder(t, fetcher)

	cached := &domain.OverviewReport{Org: "acme", TotalRepos: 42}
	reportCache.Put("acme", domain.ReportOverview, cached, cfg.CacheTTLHours)

	// No expectations are set on the fetcher: any gateway call fails the
	// test. A cached report must never trigger network traffic.
	result, err := builder.BuildOverview(context.Background(), "acme", false)
	require.NoError(t, err)
	assert.Equal(t, 42, result.TotalRepos)
	fetcher.AssertNotCalled(t, "ListOrgRepositories", mock.Anything, "acme")
}

func TestBuilder_SkipCacheBypassesReadButStillWrites(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, reportCache, cfg := newTestBuilder(t, fetcher)

	stale := &domain.OverviewReport{Org: "acme", TotalRepos: 99}
	reportCache.Put("acme", domain.ReportOverview, stale, cfg.CacheTTLHours)

	fetcher.On("ListOrgRepositories", mock.Anything, "acme").Return([]domain.RepositoryRecord{
		{Name: "repo-a", PushedAt: daysAgo(1)},
	}, nil)

	result, err := builder.BuildOverview(context.Background(), "acme", true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRepos, "must rebuild, not reuse the cached 99")
	fetcher.AssertExpectations(t)

	// Refresh semantics: the rebuilt result replaced the cached one.
	var refreshed domain.OverviewReport
	require.True(t, reportCache.Get("acme", domain.ReportOverview, &refreshed))
	assert.Equal(t, 1, refreshed.TotalRepos)
}

func TestBuilder_TopLevelFailureAbortsWithoutCacheWrite(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, reportCache, _ := newTestBuilder(t, fetcher)

	fetcher.On("ListOrgRepositories", mock.Anything, "acme").Return(nil, errors.New("github api error"))

	_, err := builder.BuildOverview(context.Background(), "acme", false)
	assert.Error(t, err)

	var out domain.OverviewReport
	assert.False(t, reportCache.Get("acme", domain.ReportOverview, &out), "failed builds must not cache")
}

func TestBuilder_ArchivedAndForkExclusion(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, _, _ := newTestBuilder(t, fetcher)

	repos := []domain.RepositoryRecord{
		{Name: "active-a"},
		{Name: "active-b", Private: true, OpenIssues: 3},
		{Name: "old-archive", Archived: true},
		{Name: "some-fork", Fork: true},
		{Name: "archived-fork", Archived: true, Fork: true},
	}
	fetcher.On("ListOrgRepositories", mock.Anything, "acme").Return(repos, nil)
	// Only the two active repos may be enriched.
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "active-a").Return(nil)
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "active-b").Return(nil)

	_, err := builder.BuildSecurity(context.Background(), "acme", false)
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "ListDependabotAlertsOpen", mock.Anything, "acme", "old-archive")
	fetcher.AssertNotCalled(t, "ListDependabotAlertsOpen", mock.Anything, "acme", "some-fork")
	fetcher.AssertNotCalled(t, "ListDependabotAlertsOpen", mock.Anything, "acme", "archived-fork")
}

func TestActiveRepositories(t *testing.T) {
	repos := []domain.RepositoryRecord{
		{Name: "a"},
		{Name: "b", Archived: true},
		{Name: "c", Fork: true},
		{Name: "d", Private: true},
	}
	active := activeRepositories(repos)
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].Name)
	assert.Equal(t, "d", active[1].Name)
}

func TestTruncate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Len(t, truncate(rows, 3), 3)
	assert.Len(t, truncate(rows, 10), 5)
	assert.Len(t, truncate(rows, 0), 5, "zero limit means unlimited")
}
