package usecase

import (
	"context"
	"sort"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// BuildOrgGovernance produces the organization membership report. The
// member listing is this report's top-level collection, so its failure
// aborts the build.
func (b *Builder) BuildOrgGovernance(ctx context.Context, org string, skipCache bool) (*domain.OrgGovernanceReport, error) {
	return buildReport(ctx, b, org, domain.ReportGovernanceOrg, skipCache, func(ctx context.Context) (*domain.OrgGovernanceReport, error) {
		return b.buildOrgGovernance(ctx, org)
	})
}

func (b *Builder) buildOrgGovernance(ctx context.Context, org string) (*domain.OrgGovernanceReport, error) {
	members, err := b.fetcher.ListOrgMembers(ctx, org)
	if err != nil {
		return nil, err
	}

	var owners []string
	for _, member := range members {
		if member.Owner {
			owners = append(owners, member.Login)
		}
	}
	sort.Strings(owners)

	return &domain.OrgGovernanceReport{
		Org:         org,
		GeneratedAt: b.now(),
		MemberTotal: len(members),
		OwnerTotal:  len(owners),
		Owners:      truncate(owners, b.cfg.DisplayLimits.GovernanceOrg),
	}, nil
}
