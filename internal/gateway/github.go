// Package gateway provides a gateway to the GitHub API, abstracting away
// the underlying REST and GraphQL clients.
//
// Every operation follows one of two contracts: it either returns a fully
// paginated, flattened collection, or a best-effort single value with
// failure collapsed to a neutral default (nil, false or empty). The
// "404 means absent" versus "other error" distinction lives here, not in
// the report builders.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// pageSize is the fixed page size for all paginated collection fetches.
const pageSize = 100

// Fetcher defines the behavior of a gateway for fetching organization data
// from GitHub.
type Fetcher interface {
	// ListOrgRepositories pages through the organization's repositories.
	// This is the only operation whose failure aborts a report build.
	ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRecord, error)

	// GetRepository fetches a single repository, including fork lineage.
	GetRepository(ctx context.Context, org, repo string) (*domain.RepositoryRecord, error)

	// GetBranchProtection reports whether the branch has protection
	// configured. A 404 means "not protected" and is not an error.
	GetBranchProtection(ctx context.Context, org, repo, branch string) (bool, error)

	// ListBranches pages through the repository's branches.
	ListBranches(ctx context.Context, org, repo string) ([]domain.Branch, error)

	// GetBranchLastCommitDate returns the date of the latest commit on the
	// branch.
	GetBranchLastCommitDate(ctx context.Context, org, repo, branch string) (time.Time, error)

	// ListOpenPullRequests pages through the repository's open PRs.
	ListOpenPullRequests(ctx context.Context, org, repo string) ([]domain.PullRequest, error)

	// ListRepoTeams pages through the teams with access to the repository.
	ListRepoTeams(ctx context.Context, org, repo string) ([]domain.Team, error)

	// ListDirectCollaborators pages through the repository's direct
	// collaborators. Organization owners are not direct collaborators.
	ListDirectCollaborators(ctx context.Context, org, repo string) ([]domain.Collaborator, error)

	// ListDependabotAlertsOpen returns the repository's open Dependabot
	// alerts, or an empty slice on any failure: the endpoint 404s for
	// repositories without the feature enabled, and "no alerts" and
	// "feature unavailable" are not distinguished here.
	ListDependabotAlertsOpen(ctx context.Context, org, repo string) []domain.Alert

	// CompareRefs compares base...head in the given repository, returning
	// nil on any failure (cross-fork comparisons may be unsupported).
	CompareRefs(ctx context.Context, org, repo, base, head string) *domain.CompareResult

	// ListOrgMembers pages through the organization's members with their
	// roles.
	ListOrgMembers(ctx context.Context, org string) ([]domain.Member, error)

	// Billing getters return nil on any failure; billing endpoints are
	// unavailable on many plans.
	GetActionsBilling(ctx context.Context, org string) *domain.ActionsBilling
	GetPackagesBilling(ctx context.Context, org string) *domain.PackagesBilling
	GetStorageBilling(ctx context.Context, org string) *domain.StorageBilling
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// orgMembersQuery pages organization membership with roles in a single
// GraphQL query instead of joining two REST role filters.
type orgMembersQuery struct {
	Organization struct {
		MembersWithRole struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Edges []struct {
				Role string
				Node struct {
					Login string
				}
			}
		} `graphql:"membersWithRole(first: 100, after: $cursor)"`
	} `graphql:"organization(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of
// GitHubGateway authorized by the supplied token. The token is held only by
// the transport; it is never persisted.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRecord, error) {
	g.logger.Printf("Fetching repositories for org %s...", org)
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}
	var records []domain.RepositoryRecord
	for {
		repos, resp, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for org %s: %w", org, err)
		}
		for _, repo := range repos {
			records = append(records, mapRepository(repo))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of repositories...")
	}
	g.logger.Printf("Fetched %d repositories for org %s.", len(records), org)
	return records, nil
}

func (g *GitHubGateway) GetRepository(ctx context.Context, org, repo string) (*domain.RepositoryRecord, error) {
	r, _, err := g.restClient.Repositories.Get(ctx, org, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", org, repo, err)
	}
	record := mapRepository(r)
	return &record, nil
}

func (g *GitHubGateway) GetBranchProtection(ctx context.Context, org, repo, branch string) (bool, error) {
	_, resp, err := g.restClient.Repositories.GetBranchProtection(ctx, org, repo, branch)
	if err != nil {
		// Protection absence is a legitimate, expected outcome.
		if errors.Is(err, github.ErrBranchNotProtected) || isNotFound(resp, err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get branch protection for %s/%s@%s: %w", org, repo, branch, err)
	}
	return true, nil
}

func (g *GitHubGateway) ListBranches(ctx context.Context, org, repo string) ([]domain.Branch, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: pageSize}}
	var branches []domain.Branch
	for {
		page, resp, err := g.restClient.Repositories.ListBranches(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list branches for %s/%s: %w", org, repo, err)
		}
		for _, b := range page {
			branches = append(branches, domain.Branch{
				Name:      b.GetName(),
				Protected: b.GetProtected(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return branches, nil
}

func (g *GitHubGateway) GetBranchLastCommitDate(ctx context.Context, org, repo, branch string) (time.Time, error) {
	b, _, err := g.restClient.Repositories.GetBranch(ctx, org, repo, branch, 0)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get branch %s/%s@%s: %w", org, repo, branch, err)
	}
	date := b.GetCommit().GetCommit().GetCommitter().GetDate()
	return date.Time, nil
}

func (g *GitHubGateway) ListOpenPullRequests(ctx context.Context, org, repo string) ([]domain.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}
	var prs []domain.PullRequest
	for {
		page, resp, err := g.restClient.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list open PRs for %s/%s: %w", org, repo, err)
		}
		for _, pr := range page {
			prs = append(prs, domain.PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				Author:    pr.GetUser().GetLogin(),
				CreatedAt: pr.GetCreatedAt().Time,
				UpdatedAt: pr.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

func (g *GitHubGateway) ListRepoTeams(ctx context.Context, org, repo string) ([]domain.Team, error) {
	opts := &github.ListOptions{PerPage: pageSize}
	var teams []domain.Team
	for {
		page, resp, err := g.restClient.Repositories.ListTeams(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams for %s/%s: %w", org, repo, err)
		}
		for _, t := range page {
			teams = append(teams, domain.Team{
				Slug:       t.GetSlug(),
				Permission: t.GetPermission(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return teams, nil
}

func (g *GitHubGateway) ListDirectCollaborators(ctx context.Context, org, repo string) ([]domain.Collaborator, error) {
	opts := &github.ListCollaboratorsOptions{
		Affiliation: "direct",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}
	var collaborators []domain.Collaborator
	for {
		page, resp, err := g.restClient.Repositories.ListCollaborators(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list collaborators for %s/%s: %w", org, repo, err)
		}
		for _, u := range page {
			collaborators = append(collaborators, domain.Collaborator{
				Login: u.GetLogin(),
				Admin: u.GetPermissions()["admin"],
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return collaborators, nil
}

func (g *GitHubGateway) ListDependabotAlertsOpen(ctx context.Context, org, repo string) []domain.Alert {
	opts := &github.ListAlertsOptions{
		State:       github.String("open"),
		ListOptions: github.ListOptions{PerPage: pageSize},
	}
	var alerts []domain.Alert
	for {
		page, resp, err := g.restClient.Dependabot.ListRepoAlerts(ctx, org, repo, opts)
		if err != nil {
			// The endpoint 404s for repos without the feature enabled;
			// "no alerts" and "feature unavailable" read the same here.
			g.logger.Printf("No Dependabot alerts for %s/%s: %v", org, repo, err)
			return nil
		}
		for _, a := range page {
			alerts = append(alerts, mapAlert(a))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return alerts
}

func (g *GitHubGateway) CompareRefs(ctx context.Context, org, repo, base, head string) *domain.CompareResult {
	cmp, _, err := g.restClient.Repositories.CompareCommits(ctx, org, repo, base, head, &github.ListOptions{PerPage: 1})
	if err != nil {
		g.logger.Printf("Comparison %s...%s unavailable for %s/%s: %v", base, head, org, repo, err)
		return nil
	}
	return &domain.CompareResult{
		AheadBy:  cmp.GetAheadBy(),
		BehindBy: cmp.GetBehindBy(),
	}
}

func (g *GitHubGateway) ListOrgMembers(ctx context.Context, org string) ([]domain.Member, error) {
	g.logger.Printf("Fetching members for org %s...", org)
	variables := map[string]interface{}{
		"login":  githubv4.String(org),
		"cursor": (*githubv4.String)(nil),
	}
	var members []domain.Member
	for {
		var q orgMembersQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for org members: %w", err)
		}
		for _, edge := range q.Organization.MembersWithRole.Edges {
			members = append(members, domain.Member{
				Login: edge.Node.Login,
				Owner: edge.Role == "ADMIN",
			})
		}
		if !q.Organization.MembersWithRole.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Organization.MembersWithRole.PageInfo.EndCursor)
		g.logger.Println("  Fetching next page of members...")
	}
	g.logger.Printf("Fetched %d members for org %s.", len(members), org)
	return members, nil
}

func (g *GitHubGateway) GetActionsBilling(ctx context.Context, org string) *domain.ActionsBilling {
	billing, _, err := g.restClient.Billing.GetActionsBillingOrg(ctx, org)
	if err != nil {
		g.logger.Printf("Actions billing unavailable for org %s: %v", org, err)
		return nil
	}
	return &domain.ActionsBilling{
		TotalMinutesUsed: float64(billing.TotalMinutesUsed),
		PaidMinutesUsed:  float64(billing.TotalPaidMinutesUsed),
		IncludedMinutes:  float64(billing.IncludedMinutes),
	}
}

func (g *GitHubGateway) GetPackagesBilling(ctx context.Context, org string) *domain.PackagesBilling {
	billing, _, err := g.restClient.Billing.GetPackagesBillingOrg(ctx, org)
	if err != nil {
		g.logger.Printf("Packages billing unavailable for org %s: %v", org, err)
		return nil
	}
	return &domain.PackagesBilling{
		BandwidthUsedGB:     float64(billing.TotalGigabytesBandwidthUsed),
		PaidBandwidthGB:     float64(billing.TotalPaidGigabytesBandwidthUsed),
		IncludedBandwidthGB: float64(billing.IncludedGigabytesBandwidth),
	}
}

func (g *GitHubGateway) GetStorageBilling(ctx context.Context, org string) *domain.StorageBilling {
	billing, _, err := g.restClient.Billing.GetStorageBillingOrg(ctx, org)
	if err != nil {
		g.logger.Printf("Storage billing unavailable for org %s: %v", org, err)
		return nil
	}
	return &domain.StorageBilling{
		EstimatedStorageGB:     float64(billing.EstimatedStorageForMonth),
		EstimatedPaidStorageGB: float64(billing.EstimatedPaidStorageForMonth),
		DaysLeftInCycle:        billing.DaysLeftInBillingCycle,
	}
}

// isNotFound reports whether the call failed with HTTP 404.
func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

func mapRepository(repo *github.Repository) domain.RepositoryRecord {
	return domain.RepositoryRecord{
		Name:           repo.GetName(),
		FullName:       repo.GetFullName(),
		HTMLURL:        repo.GetHTMLURL(),
		DefaultBranch:  repo.GetDefaultBranch(),
		Language:       repo.GetLanguage(),
		Topics:         repo.Topics,
		Archived:       repo.GetArchived(),
		Fork:           repo.GetFork(),
		Private:        repo.GetPrivate(),
		PushedAt:       repo.GetPushedAt().Time,
		UpdatedAt:      repo.GetUpdatedAt().Time,
		OpenIssues:     repo.GetOpenIssuesCount(),
		SizeKB:         repo.GetSize(),
		ParentFullName: repo.GetParent().GetFullName(),
	}
}

func mapAlert(a *github.DependabotAlert) domain.Alert {
	alert := domain.Alert{Number: a.GetNumber()}
	if vuln := a.GetSecurityVulnerability(); vuln != nil {
		alert.Severity = vuln.GetSeverity()
		alert.Package = vuln.GetPackage().GetName()
	}
	if adv := a.GetSecurityAdvisory(); adv != nil {
		if alert.Severity == "" {
			alert.Severity = adv.GetSeverity()
		}
		alert.Summary = adv.GetSummary()
	}
	return alert
}
