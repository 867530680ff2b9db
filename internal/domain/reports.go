package domain

import "time"

// Report type identifiers. These double as the cache key suffix, so they
// must stay stable across releases.
const (
	ReportCleanup        = "cleanup"
	ReportSecurity       = "security"
	ReportGovernanceRepo = "governance-repo"
	ReportGovernanceOrg  = "governance-org"
	ReportCosts          = "costs"
	ReportOverview       = "overview"
)

// ReportTypes lists every known report type.
func ReportTypes() []string {
	return []string{
		ReportCleanup,
		ReportSecurity,
		ReportGovernanceRepo,
		ReportGovernanceOrg,
		ReportCosts,
		ReportOverview,
	}
}

// StaleBranch is a non-default branch whose last commit predates the
// staleness cutoff.
type StaleBranch struct {
	Name       string    `json:"name"`
	LastCommit time.Time `json:"last_commit"`
}

// StaleBranchRow is one repository in the stale-branch section. When the
// repository's non-default branch count exceeds the warning threshold the
// row is a marker (TooManyBranches) and carries no per-branch detail.
type StaleBranchRow struct {
	Repo            string        `json:"repo"`
	TooManyBranches bool          `json:"too_many_branches"`
	BranchCount     int           `json:"branch_count"`
	StaleCount      int           `json:"stale_count"`
	Branches        []StaleBranch `json:"branches,omitempty"`
}

// InactiveRepoRow is a repository with no push or PR activity past the
// inactivity cutoff.
type InactiveRepoRow struct {
	Repo         string    `json:"repo"`
	LastActivity time.Time `json:"last_activity"`
}

// OldPRRow is a repository with open pull requests older than the cutoff.
type OldPRRow struct {
	Repo        string `json:"repo"`
	Count       int    `json:"count"`
	OldestDays  int    `json:"oldest_days"`
	OldestTitle string `json:"oldest_title,omitempty"`
}

// ForkDriftRow describes how far a fork has drifted from its upstream.
type ForkDriftRow struct {
	Repo     string `json:"repo"`
	Parent   string `json:"parent"`
	AheadBy  int    `json:"ahead_by"`
	BehindBy int    `json:"behind_by"`
}

// CleanupReport aggregates repository hygiene findings.
type CleanupReport struct {
	Org         string    `json:"org"`
	GeneratedAt time.Time `json:"generated_at"`

	StaleBranchTotal int              `json:"stale_branch_total"`
	StaleBranches    []StaleBranchRow `json:"stale_branches"`

	InactiveTotal int               `json:"inactive_total"`
	Inactive      []InactiveRepoRow `json:"inactive"`

	OldPRTotal int        `json:"old_pr_total"`
	OldPRs     []OldPRRow `json:"old_prs"`

	ForkTotal int            `json:"fork_total"`
	ForkDrift []ForkDriftRow `json:"fork_drift"`
}

// AlertSeverityRow is a repository's open alert counts bucketed by severity.
type AlertSeverityRow struct {
	Repo     string `json:"repo"`
	Critical int    `json:"critical"`
	High     int    `json:"high"`
	Medium   int    `json:"medium"`
	Low      int    `json:"low"`
	Total    int    `json:"total"`
}

// SecurityReport aggregates open Dependabot alerts across the organization.
type SecurityReport struct {
	Org         string    `json:"org"`
	GeneratedAt time.Time `json:"generated_at"`

	ReposWithAlerts int                `json:"repos_with_alerts"`
	TotalOpenAlerts int                `json:"total_open_alerts"`
	Rows            []AlertSeverityRow `json:"rows"`
}

// UnprotectedBranchRow is a repository whose default branch carries no
// branch protection.
type UnprotectedBranchRow struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

// NoAdminRow is a repository with no delegated admin: zero admin-permission
// teams and zero direct collaborators with admin access. Organization owners
// are implicitly admin everywhere and are excluded from the count.
type NoAdminRow struct {
	Repo          string `json:"repo"`
	Collaborators int    `json:"collaborators"`
}

// RepoGovernanceReport aggregates per-repository governance findings.
type RepoGovernanceReport struct {
	Org         string    `json:"org"`
	GeneratedAt time.Time `json:"generated_at"`

	UnprotectedTotal int                    `json:"unprotected_total"`
	Unprotected      []UnprotectedBranchRow `json:"unprotected"`

	NoAdminTotal int          `json:"no_admin_total"`
	NoAdmin      []NoAdminRow `json:"no_admin"`
}

// OrgGovernanceReport summarizes organization membership.
type OrgGovernanceReport struct {
	Org         string    `json:"org"`
	GeneratedAt time.Time `json:"generated_at"`

	MemberTotal int      `json:"member_total"`
	OwnerTotal  int      `json:"owner_total"`
	Owners      []string `json:"owners"`
}

// RepoSizeRow is a repository and its reported size.
type RepoSizeRow struct {
	Repo   string `json:"repo"`
	SizeKB int    `json:"size_kb"`
}

// CostsReport combines org billing summaries with the largest repositories.
// Billing fields are nil when the corresponding endpoint is unavailable.
type CostsReport struct {
	Org         string    `json:"org"`
	GeneratedAt time.Time `json:"generated_at"`

	Actions  *ActionsBilling  `json:"actions,omitempty"`
	Packages *PackagesBilling `json:"packages,omitempty"`
	Storage  *StorageBilling  `json:"storage,omitempty"`

	LargestTotal int           `json:"largest_total"`
	Largest      []RepoSizeRow `json:"largest"`
}

// LanguageCount is one language and the number of repositories using it.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// RecentRepoRow is a recently pushed repository.
type RecentRepoRow struct {
	Repo     string    `json:"repo"`
	PushedAt time.Time `json:"pushed_at"`
}

// OverviewReport is the home-tab summary of the organization.
type OverviewReport struct {
	Org         string    `json:"org"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalRepos    int `json:"total_repos"`
	ActiveRepos   int `json:"active_repos"`
	ArchivedRepos int `json:"archived_repos"`
	ForkRepos     int `json:"fork_repos"`
	PrivateRepos  int `json:"private_repos"`

	Languages []LanguageCount `json:"languages"`

	MeanDaysSincePush   float64 `json:"mean_days_since_push"`
	MedianDaysSincePush float64 `json:"median_days_since_push"`

	RecentTotal    int             `json:"recent_total"`
	RecentlyPushed []RecentRepoRow `json:"recently_pushed"`
}
