package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

func alertsOf(severities ...string) []domain.Alert {
	alerts := make([]domain.Alert, len(severities))
	for i, severity := range severities {
		alerts[i] = domain.Alert{Number: i + 1, Severity: severity}
	}
	return alerts
}

func TestBuildSecurity_SeveritySort(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, _, _ := newTestBuilder(t, fetcher)

	fetcher.On("ListOrgRepositories", mock.Anything, "acme").Return([]domain.RepositoryRecord{
		{Name: "low-crit"},
		{Name: "many-high"},
		{Name: "top-crit"},
	}, nil)
	// {critical:2, high:0} outranks {critical:1, high:5}; {critical:2,
	// high:1} outranks both.
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "low-crit").
		Return(alertsOf(domain.SeverityCritical, domain.SeverityCritical))
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "many-high").
		Return(alertsOf(domain.SeverityCritical,
			domain.SeverityHigh, domain.SeverityHigh, domain.SeverityHigh,
			domain.SeverityHigh, domain.SeverityHigh))
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "top-crit").
		Return(alertsOf(domain.SeverityCritical, domain.SeverityCritical, domain.SeverityHigh))

	report, err := builder.BuildSecurity(context.Background(), "acme", false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.ReposWithAlerts)
	assert.Equal(t, 11, report.TotalOpenAlerts)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, "top-crit", report.Rows[0].Repo)
	assert.Equal(t, "low-crit", report.Rows[1].Repo)
	assert.Equal(t, "many-high", report.Rows[2].Repo)
}

func TestBuildSecurity_ZeroAlertReposExcluded(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, _, _ := newTestBuilder(t, fetcher)

	fetcher.On("ListOrgRepositories", mock.Anything, "acme").Return([]domain.RepositoryRecord{
		{Name: "quiet"},
		{Name: "noisy"},
	}, nil)
	// A nil slice is what the gateway returns both for "no alerts" and
	// for an unavailable feed; either way the repo produces no row.
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "quiet").Return(nil)
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "noisy").
		Return(alertsOf(domain.SeverityMedium, domain.SeverityLow))

	report, err := builder.BuildSecurity(context.Background(), "acme", false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ReposWithAlerts)
	assert.Equal(t, 2, report.TotalOpenAlerts)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, domain.AlertSeverityRow{
		Repo: "noisy", Medium: 1, Low: 1, Total: 2,
	}, report.Rows[0])
}

func TestBuildSecurity_TruncationPreservesTotals(t *testing.T) {
	fetcher := new(mockFetcher)
	builder, _, cfg := newTestBuilder(t, fetcher)
	cfg.DisplayLimits.Security = 1

	fetcher.On("ListOrgRepositories", mock.Anything, "acme").Return([]domain.RepositoryRecord{
		{Name: "one"},
		{Name: "two"},
	}, nil)
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "one").
		Return(alertsOf(domain.SeverityCritical))
	fetcher.On("ListDependabotAlertsOpen", mock.Anything, "acme", "two").
		Return(alertsOf(domain.SeverityHigh, domain.SeverityHigh))

	report, err := builder.BuildSecurity(context.Background(), "acme", false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.ReposWithAlerts)
	assert.Equal(t, 3, report.TotalOpenAlerts)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "one", report.Rows[0].Repo)
}
