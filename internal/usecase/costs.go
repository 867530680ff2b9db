package usecase

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// BuildCosts produces the billing and storage footprint report. The three
// billing summaries are fetched jointly and each collapses to nil when its
// endpoint is unavailable on the organization's plan.
func (b *Builder) BuildCosts(ctx context.Context, org string, skipCache bool) (*domain.CostsReport, error) {
	return buildReport(ctx, b, org, domain.ReportCosts, skipCache, func(ctx context.Context) (*domain.CostsReport, error) {
		return b.buildCosts(ctx, org)
	})
}

func (b *Builder) buildCosts(ctx context.Context, org string) (*domain.CostsReport, error) {
	repos, err := b.fetcher.ListOrgRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	var (
		actions  *domain.ActionsBilling
		packages *domain.PackagesBilling
		storage  *domain.StorageBilling
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		actions = b.fetcher.GetActionsBilling(egCtx, org)
		return nil
	})
	eg.Go(func() error {
		packages = b.fetcher.GetPackagesBilling(egCtx, org)
		return nil
	})
	eg.Go(func() error {
		storage = b.fetcher.GetStorageBilling(egCtx, org)
		return nil
	})
	_ = eg.Wait()

	active := activeRepositories(repos)
	largest := make([]domain.RepoSizeRow, 0, len(active))
	for _, repo := range active {
		if repo.SizeKB > 0 {
			largest = append(largest, domain.RepoSizeRow{Repo: repo.Name, SizeKB: repo.SizeKB})
		}
	}
	sort.Slice(largest, func(i, j int) bool {
		if largest[i].SizeKB != largest[j].SizeKB {
			return largest[i].SizeKB > largest[j].SizeKB
		}
		return largest[i].Repo < largest[j].Repo
	})

	return &domain.CostsReport{
		Org:          org,
		GeneratedAt:  b.now(),
		Actions:      actions,
		Packages:     packages,
		Storage:      storage,
		LargestTotal: len(largest),
		Largest:      truncate(largest, b.cfg.DisplayLimits.Costs),
	}, nil
}
