package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// BuildSecurity produces the open Dependabot alert report. Repositories
// where the alert feed is missing or unavailable simply count as zero; the
// gateway already collapses that distinction.
func (b *Builder) BuildSecurity(ctx context.Context, org string, skipCache bool) (*domain.SecurityReport, error) {
	return buildReport(ctx, b, org, domain.ReportSecurity, skipCache, func(ctx context.Context) (*domain.SecurityReport, error) {
		return b.buildSecurity(ctx, org)
	})
}

func (b *Builder) buildSecurity(ctx context.Context, org string) (*domain.SecurityReport, error) {
	repos, err := b.fetcher.ListOrgRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		rows []domain.AlertSeverityRow
	)
	b.forEachRepo(ctx, activeRepositories(repos), func(ctx context.Context, repo domain.RepositoryRecord) {
		alerts := b.fetcher.ListDependabotAlertsOpen(ctx, org, repo.Name)
		if len(alerts) == 0 {
			return
		}
		row := domain.AlertSeverityRow{Repo: repo.Name, Total: len(alerts)}
		for _, alert := range alerts {
			switch alert.Severity {
			case domain.SeverityCritical:
				row.Critical++
			case domain.SeverityHigh:
				row.High++
			case domain.SeverityMedium:
				row.Medium++
			case domain.SeverityLow:
				row.Low++
			}
		}
		mu.Lock()
		rows = append(rows, row)
		mu.Unlock()
	})

	// Severity-bucketed sort: descending count at each tier in order
	// before falling back to total count.
	sort.Slice(rows, func(i, j int) bool {
		a, c := rows[i], rows[j]
		if a.Critical != c.Critical {
			return a.Critical > c.Critical
		}
		if a.High != c.High {
			return a.High > c.High
		}
		if a.Medium != c.Medium {
			return a.Medium > c.Medium
		}
		if a.Low != c.Low {
			return a.Low > c.Low
		}
		if a.Total != c.Total {
			return a.Total > c.Total
		}
		return a.Repo < c.Repo
	})

	totalAlerts := 0
	for _, row := range rows {
		totalAlerts += row.Total
	}

	return &domain.SecurityReport{
		Org:             org,
		GeneratedAt:     b.now(),
		ReposWithAlerts: len(rows),
		TotalOpenAlerts: totalAlerts,
		Rows:            truncate(rows, b.cfg.DisplayLimits.Security),
	}, nil
}
