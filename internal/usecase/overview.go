package usecase

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// BuildOverview produces the home-tab summary: repository counts, language
// distribution, push recency statistics and the most recently pushed
// repositories. It needs no per-repository enrichment.
func (b *Builder) BuildOverview(ctx context.Context, org string, skipCache bool) (*domain.OverviewReport, error) {
	return buildReport(ctx, b, org, domain.ReportOverview, skipCache, func(ctx context.Context) (*domain.OverviewReport, error) {
		return b.buildOverview(ctx, org)
	})
}

func (b *Builder) buildOverview(ctx context.Context, org string) (*domain.OverviewReport, error) {
	repos, err := b.fetcher.ListOrgRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	report := &domain.OverviewReport{
		Org:         org,
		GeneratedAt: b.now(),
		TotalRepos:  len(repos),
	}

	languages := make(map[string]int)
	var pushAges []float64
	var recent []domain.RecentRepoRow
	for _, repo := range repos {
		if repo.Archived {
			report.ArchivedRepos++
		}
		if repo.Fork {
			report.ForkRepos++
		}
		if repo.Private {
			report.PrivateRepos++
		}
		if !repo.Active() {
			continue
		}
		report.ActiveRepos++
		if repo.Language != "" {
			languages[repo.Language]++
		}
		if !repo.PushedAt.IsZero() {
			pushAges = append(pushAges, float64(b.daysSince(repo.PushedAt)))
			recent = append(recent, domain.RecentRepoRow{Repo: repo.Name, PushedAt: repo.PushedAt})
		}
	}

	for language, count := range languages {
		report.Languages = append(report.Languages, domain.LanguageCount{Language: language, Count: count})
	}
	sort.Slice(report.Languages, func(i, j int) bool {
		if report.Languages[i].Count != report.Languages[j].Count {
			return report.Languages[i].Count > report.Languages[j].Count
		}
		return report.Languages[i].Language < report.Languages[j].Language
	})

	if len(pushAges) > 0 {
		// stats only errors on empty input, which is excluded above.
		report.MeanDaysSincePush, _ = stats.Mean(pushAges)
		report.MedianDaysSincePush, _ = stats.Median(pushAges)
	}

	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].PushedAt.Equal(recent[j].PushedAt) {
			return recent[i].PushedAt.After(recent[j].PushedAt)
		}
		return recent[i].Repo < recent[j].Repo
	})
	report.RecentTotal = len(recent)
	report.RecentlyPushed = truncate(recent, b.cfg.DisplayLimits.Overview)

	return report, nil
}
