package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// BuildCleanup produces the repository hygiene report: stale branches,
// inactive repositories, aging open pull requests and fork drift.
func (b *Builder) BuildCleanup(ctx context.Context, org string, skipCache bool) (*domain.CleanupReport, error) {
	return buildReport(ctx, b, org, domain.ReportCleanup, skipCache, func(ctx context.Context) (*domain.CleanupReport, error) {
		return b.buildCleanup(ctx, org)
	})
}

func (b *Builder) buildCleanup(ctx context.Context, org string) (*domain.CleanupReport, error) {
	repos, err := b.fetcher.ListOrgRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	now := b.now()
	staleCutoff := now.AddDate(0, 0, -b.cfg.Thresholds.StaleBranchDays)
	oldPRCutoff := now.AddDate(0, 0, -b.cfg.Thresholds.OldPRDays)
	inactiveCutoff := now.AddDate(0, -b.cfg.Thresholds.InactiveRepoMonths, 0)

	var (
		mu        sync.Mutex
		staleRows []domain.StaleBranchRow
		inactive  []domain.InactiveRepoRow
		oldPRs    []domain.OldPRRow
	)

	b.forEachRepo(ctx, activeRepositories(repos), func(ctx context.Context, repo domain.RepositoryRecord) {
		var branches []domain.Branch
		var prs []domain.PullRequest

		// Joined parallel enrichment; each sub-fetch degrades on its own.
		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			list, err := b.fetcher.ListBranches(egCtx, org, repo.Name)
			if err != nil {
				b.logger.Printf("Skipping branch analysis for %s: %v", repo.Name, err)
				return nil
			}
			branches = list
			return nil
		})
		eg.Go(func() error {
			list, err := b.fetcher.ListOpenPullRequests(egCtx, org, repo.Name)
			if err != nil {
				b.logger.Printf("Skipping PR analysis for %s: %v", repo.Name, err)
				return nil
			}
			prs = list
			return nil
		})
		_ = eg.Wait()

		staleRow := b.classifyBranches(ctx, org, repo, branches, staleCutoff)

		var oldPRRow *domain.OldPRRow
		lastPRUpdate := time.Time{}
		for _, pr := range prs {
			if pr.UpdatedAt.After(lastPRUpdate) {
				lastPRUpdate = pr.UpdatedAt
			}
			if pr.CreatedAt.Before(oldPRCutoff) {
				if oldPRRow == nil {
					oldPRRow = &domain.OldPRRow{Repo: repo.Name}
				}
				oldPRRow.Count++
				if age := b.daysSince(pr.CreatedAt); age > oldPRRow.OldestDays {
					oldPRRow.OldestDays = age
					oldPRRow.OldestTitle = pr.Title
				}
			}
		}

		var inactiveRow *domain.InactiveRepoRow
		lastActivity := repo.PushedAt
		if lastPRUpdate.After(lastActivity) {
			lastActivity = lastPRUpdate
		}
		if lastActivity.Before(inactiveCutoff) {
			inactiveRow = &domain.InactiveRepoRow{Repo: repo.Name, LastActivity: lastActivity}
		}

		mu.Lock()
		defer mu.Unlock()
		if staleRow != nil {
			staleRows = append(staleRows, *staleRow)
		}
		if oldPRRow != nil {
			oldPRs = append(oldPRs, *oldPRRow)
		}
		if inactiveRow != nil {
			inactive = append(inactive, *inactiveRow)
		}
	})

	drift, forkTotal := b.forkDrift(ctx, org, repos)

	// Warning markers are worse than detailed rows and sort first, by
	// branch count descending; detailed rows follow by stale count
	// descending. Name breaks ties for stable output.
	sort.Slice(staleRows, func(i, j int) bool {
		a, c := staleRows[i], staleRows[j]
		if a.TooManyBranches != c.TooManyBranches {
			return a.TooManyBranches
		}
		if a.TooManyBranches {
			if a.BranchCount != c.BranchCount {
				return a.BranchCount > c.BranchCount
			}
		} else if a.StaleCount != c.StaleCount {
			return a.StaleCount > c.StaleCount
		}
		return a.Repo < c.Repo
	})
	sort.Slice(oldPRs, func(i, j int) bool {
		if oldPRs[i].OldestDays != oldPRs[j].OldestDays {
			return oldPRs[i].OldestDays > oldPRs[j].OldestDays
		}
		return oldPRs[i].Repo < oldPRs[j].Repo
	})
	sort.Slice(inactive, func(i, j int) bool {
		if !inactive[i].LastActivity.Equal(inactive[j].LastActivity) {
			return inactive[i].LastActivity.Before(inactive[j].LastActivity)
		}
		return inactive[i].Repo < inactive[j].Repo
	})
	sort.Slice(drift, func(i, j int) bool {
		if drift[i].BehindBy != drift[j].BehindBy {
			return drift[i].BehindBy > drift[j].BehindBy
		}
		return drift[i].Repo < drift[j].Repo
	})

	limit := b.cfg.DisplayLimits.Cleanup
	return &domain.CleanupReport{
		Org:              org,
		GeneratedAt:      now,
		StaleBranchTotal: len(staleRows),
		StaleBranches:    truncate(staleRows, limit),
		InactiveTotal:    len(inactive),
		Inactive:         truncate(inactive, limit),
		OldPRTotal:       len(oldPRs),
		OldPRs:           truncate(oldPRs, limit),
		ForkTotal:        forkTotal,
		ForkDrift:        truncate(drift, limit),
	}, nil
}

// classifyBranches applies the branch-volume guard and the stale-branch
// cutoff. A repository over the warning threshold gets a single marker row
// and zero per-branch detail fetches; that bounds the fetch fan-out.
func (b *Builder) classifyBranches(ctx context.Context, org string, repo domain.RepositoryRecord, branches []domain.Branch, staleCutoff time.Time) *domain.StaleBranchRow {
	nonDefault := make([]domain.Branch, 0, len(branches))
	for _, branch := range branches {
		if branch.Name != repo.DefaultBranch {
			nonDefault = append(nonDefault, branch)
		}
	}
	if len(nonDefault) == 0 {
		return nil
	}

	if len(nonDefault) > b.cfg.Thresholds.BranchCountWarning {
		return &domain.StaleBranchRow{
			Repo:            repo.Name,
			TooManyBranches: true,
			BranchCount:     len(nonDefault),
		}
	}

	var (
		mu    sync.Mutex
		stale []domain.StaleBranch
	)
	eg, egCtx := errgroup.WithContext(ctx)
	for _, branch := range nonDefault {
		branch := branch
		eg.Go(func() error {
			last, err := b.fetcher.GetBranchLastCommitDate(egCtx, org, repo.Name, branch.Name)
			if err != nil {
				b.logger.Printf("Skipping branch %s in %s: %v", branch.Name, repo.Name, err)
				return nil
			}
			if last.Before(staleCutoff) {
				mu.Lock()
				stale = append(stale, domain.StaleBranch{Name: branch.Name, LastCommit: last})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if len(stale) == 0 {
		return nil
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].Name < stale[j].Name })
	return &domain.StaleBranchRow{
		Repo:        repo.Name,
		BranchCount: len(nonDefault),
		StaleCount:  len(stale),
		Branches:    stale,
	}
}

// forkDrift compares each of the organization's forks against its upstream
// default branch. Forks with no resolvable upstream or an unsupported
// comparison are counted but produce no row.
func (b *Builder) forkDrift(ctx context.Context, org string, repos []domain.RepositoryRecord) ([]domain.ForkDriftRow, int) {
	forks := make([]domain.RepositoryRecord, 0)
	for _, repo := range repos {
		if repo.Fork && !repo.Archived {
			forks = append(forks, repo)
		}
	}

	var (
		mu   sync.Mutex
		rows []domain.ForkDriftRow
	)
	b.forEachRepo(ctx, forks, func(ctx context.Context, repo domain.RepositoryRecord) {
		// Fork lineage requires a single-repository lookup; the org
		// listing omits parents.
		full, err := b.fetcher.GetRepository(ctx, org, repo.Name)
		if err != nil || full.ParentFullName == "" {
			b.logger.Printf("Skipping fork drift for %s: no upstream", repo.Name)
			return
		}
		parentOwner, parentRepo, ok := strings.Cut(full.ParentFullName, "/")
		if !ok {
			return
		}
		cmp := b.fetcher.CompareRefs(ctx, parentOwner, parentRepo, full.DefaultBranch, org+":"+full.DefaultBranch)
		if cmp == nil {
			return
		}
		mu.Lock()
		rows = append(rows, domain.ForkDriftRow{
			Repo:     repo.Name,
			Parent:   full.ParentFullName,
			AheadBy:  cmp.AheadBy,
			BehindBy: cmp.BehindBy,
		})
		mu.Unlock()
	})
	return rows, len(forks)
}
