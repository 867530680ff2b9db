package usecase

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// BuildRepoGovernance produces the per-repository governance report:
// unprotected default branches and repositories without a delegated admin.
//
// "No delegated admin" counts admin-permission teams and direct admin
// collaborators only. Organization owners are implicitly admin everywhere;
// the metric measures delegation, not access, so they are excluded.
func (b *Builder) BuildRepoGovernance(ctx context.Context, org string, skipCache bool) (*domain.RepoGovernanceReport, error) {
	return buildReport(ctx, b, org, domain.ReportGovernanceRepo, skipCache, func(ctx context.Context) (*domain.RepoGovernanceReport, error) {
		return b.buildRepoGovernance(ctx, org)
	})
}

func (b *Builder) buildRepoGovernance(ctx context.Context, org string) (*domain.RepoGovernanceReport, error) {
	repos, err := b.fetcher.ListOrgRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	var (
		mu          sync.Mutex
		unprotected []domain.UnprotectedBranchRow
		noAdmin     []domain.NoAdminRow
	)
	b.forEachRepo(ctx, activeRepositories(repos), func(ctx context.Context, repo domain.RepositoryRecord) {
		// Degraded-fetch defaults: a flaky protection lookup reads as
		// protected so it never produces a false finding; team and
		// collaborator failures read as empty and classify normally.
		protected := true
		var teams []domain.Team
		var collaborators []domain.Collaborator

		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			ok, err := b.fetcher.GetBranchProtection(egCtx, org, repo.Name, repo.DefaultBranch)
			if err != nil {
				b.logger.Printf("Protection check degraded for %s: %v", repo.Name, err)
				return nil
			}
			protected = ok
			return nil
		})
		eg.Go(func() error {
			list, err := b.fetcher.ListRepoTeams(egCtx, org, repo.Name)
			if err != nil {
				b.logger.Printf("Team listing degraded for %s: %v", repo.Name, err)
				return nil
			}
			teams = list
			return nil
		})
		eg.Go(func() error {
			list, err := b.fetcher.ListDirectCollaborators(egCtx, org, repo.Name)
			if err != nil {
				b.logger.Printf("Collaborator listing degraded for %s: %v", repo.Name, err)
				return nil
			}
			collaborators = list
			return nil
		})
		_ = eg.Wait()

		adminTeams := 0
		for _, team := range teams {
			if team.Permission == "admin" {
				adminTeams++
			}
		}
		adminCollaborators := 0
		for _, c := range collaborators {
			if c.Admin {
				adminCollaborators++
			}
		}

		mu.Lock()
		defer mu.Unlock()
		if !protected {
			unprotected = append(unprotected, domain.UnprotectedBranchRow{
				Repo:   repo.Name,
				Branch: repo.DefaultBranch,
			})
		}
		if adminTeams == 0 && adminCollaborators == 0 {
			noAdmin = append(noAdmin, domain.NoAdminRow{
				Repo:          repo.Name,
				Collaborators: len(collaborators),
			})
		}
	})

	sort.Slice(unprotected, func(i, j int) bool { return unprotected[i].Repo < unprotected[j].Repo })
	sort.Slice(noAdmin, func(i, j int) bool {
		if noAdmin[i].Collaborators != noAdmin[j].Collaborators {
			return noAdmin[i].Collaborators > noAdmin[j].Collaborators
		}
		return noAdmin[i].Repo < noAdmin[j].Repo
	})

	limit := b.cfg.DisplayLimits.GovernanceRepo
	return &domain.RepoGovernanceReport{
		Org:              org,
		GeneratedAt:      b.now(),
		UnprotectedTotal: len(unprotected),
		Unprotected:      truncate(unprotected, limit),
		NoAdminTotal:     len(noAdmin),
		NoAdmin:          truncate(noAdmin, limit),
	}, nil
}
