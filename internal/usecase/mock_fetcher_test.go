package usecase

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lima-zulu/github-org-analyser/internal/cache"
	"github.com/lima-zulu/github-org-analyser/internal/config"
	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// buildClock is the fixed "now" every builder test runs against.
var buildClock = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// daysAgo returns a timestamp the given number of days before buildClock.
func daysAgo(days int) time.Time {
	return buildClock.AddDate(0, 0, -days)
}

// newTestBuilder wires a builder with a real in-memory cache and a fixed
// clock. The config starts from the built-in defaults; mutate cfg in the
// test before first use when a scenario needs different thresholds.
func newTestBuilder(t *testing.T, fetcher *mockFetcher) (*Builder, *cache.ReportCache, *config.Config) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	reportCache, err := cache.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reportCache.Close() })

	cfg, err := config.Load("")
	require.NoError(t, err)

	builder := NewBuilder(fetcher, reportCache, cfg, logger)
	builder.now = func() time.Time { return buildClock }
	return builder, reportCache, cfg
}

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRecord, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepositoryRecord), args.Error(1)
}

func (m *mockFetcher) GetRepository(ctx context.Context, org, repo string) (*domain.RepositoryRecord, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepositoryRecord), args.Error(1)
}

func (m *mockFetcher) GetBranchProtection(ctx context.Context, org, repo, branch string) (bool, error) {
	args := m.Called(ctx, org, repo, branch)
	return args.Bool(0), args.Error(1)
}

func (m *mockFetcher) ListBranches(ctx context.Context, org, repo string) ([]domain.Branch, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Branch), args.Error(1)
}

func (m *mockFetcher) GetBranchLastCommitDate(ctx context.Context, org, repo, branch string) (time.Time, error) {
	args := m.Called(ctx, org, repo, branch)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockFetcher) ListOpenPullRequests(ctx context.Context, org, repo string) ([]domain.PullRequest, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PullRequest), args.Error(1)
}

func (m *mockFetcher) ListRepoTeams(ctx context.Context, org, repo string) ([]domain.Team, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Team), args.Error(1)
}

func (m *mockFetcher) ListDirectCollaborators(ctx context.Context, org, repo string) ([]domain.Collaborator, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Collaborator), args.Error(1)
}

func (m *mockFetcher) ListDependabotAlertsOpen(ctx context.Context, org, repo string) []domain.Alert {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Alert)
}

func (m *mockFetcher) CompareRefs(ctx context.Context, org, repo, base, head string) *domain.CompareResult {
	args := m.Called(ctx, org, repo, base, head)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.CompareResult)
}

func (m *mockFetcher) ListOrgMembers(ctx context.Context, org string) ([]domain.Member, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}

func (m *mockFetcher) GetActionsBilling(ctx context.Context, org string) *domain.ActionsBilling {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.ActionsBilling)
}

func (m *mockFetcher) GetPackagesBilling(ctx context.Context, org string) *domain.PackagesBilling {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.PackagesBilling)
}

func (m *mockFetcher) GetStorageBilling(ctx context.Context, org string) *domain.StorageBilling {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.StorageBilling)
}
