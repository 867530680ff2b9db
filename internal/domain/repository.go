// Package domain contains the core data structures shared by the gateway
// and the report builders.
package domain

import "time"

// RepositoryRecord holds the repository metadata the builders work from.
// Records are sourced fresh from the gateway on every build and are never
// mutated in place; reports derive new structures from them.
type RepositoryRecord struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	HTMLURL       string    `json:"html_url"`
	DefaultBranch string    `json:"default_branch"`
	Language      string    `json:"language,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	Archived      bool      `json:"archived"`
	Fork          bool      `json:"fork"`
	Private       bool      `json:"private"`
	PushedAt      time.Time `json:"pushed_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	OpenIssues    int       `json:"open_issues"`
	SizeKB        int       `json:"size_kb"`
	// ParentFullName is only populated by single-repository lookups;
	// the org listing endpoint does not include fork lineage.
	ParentFullName string `json:"parent_full_name,omitempty"`
}

// Active reports whether the repository belongs to the default iteration
// scope: archived repositories are intentionally dormant, and forks are
// analysed separately.
func (r RepositoryRecord) Active() bool {
	return !r.Archived && !r.Fork
}

// Branch is a repository branch as returned by the branch listing endpoint.
type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
}

// PullRequest holds the subset of pull request fields the builders classify on.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Alert severities as reported by the Dependabot alerts endpoint.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Alert is an open Dependabot alert on a repository.
type Alert struct {
	Number   int    `json:"number"`
	Severity string `json:"severity"`
	Package  string `json:"package,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// Team is a team with access to a repository, with its permission level
// ("admin", "push", "pull", ...).
type Team struct {
	Slug       string `json:"slug"`
	Permission string `json:"permission"`
}

// Collaborator is a user with direct (non-team, non-owner) access to a
// repository.
type Collaborator struct {
	Login string `json:"login"`
	Admin bool   `json:"admin"`
}

// CompareResult is the outcome of comparing two refs.
type CompareResult struct {
	AheadBy  int `json:"ahead_by"`
	BehindBy int `json:"behind_by"`
}

// Member is an organization member with their org-level role.
type Member struct {
	Login string `json:"login"`
	Owner bool   `json:"owner"`
}

// ActionsBilling summarizes GitHub Actions usage for the billing cycle.
type ActionsBilling struct {
	TotalMinutesUsed float64 `json:"total_minutes_used"`
	PaidMinutesUsed  float64 `json:"paid_minutes_used"`
	IncludedMinutes  float64 `json:"included_minutes"`
}

// PackagesBilling summarizes GitHub Packages bandwidth usage.
type PackagesBilling struct {
	BandwidthUsedGB     float64 `json:"bandwidth_used_gb"`
	PaidBandwidthGB     float64 `json:"paid_bandwidth_gb"`
	IncludedBandwidthGB float64 `json:"included_bandwidth_gb"`
}

// StorageBilling summarizes shared storage usage.
type StorageBilling struct {
	EstimatedStorageGB     float64 `json:"estimated_storage_gb"`
	EstimatedPaidStorageGB float64 `json:"estimated_paid_storage_gb"`
	DaysLeftInCycle        int     `json:"days_left_in_cycle"`
}
