package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

// renderReport prints the table view of any report type.
func renderReport(w io.Writer, result any) {
	switch r := result.(type) {
	case *domain.CleanupReport:
		renderCleanup(w, r)
	case *domain.SecurityReport:
		renderSecurity(w, r)
	case *domain.RepoGovernanceReport:
		renderRepoGovernance(w, r)
	case *domain.OrgGovernanceReport:
		renderOrgGovernance(w, r)
	case *domain.CostsReport:
		renderCosts(w, r)
	case *domain.OverviewReport:
		renderOverview(w, r)
	}
}

func newTable(w io.Writer, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	return tw
}

func renderCleanup(w io.Writer, r *domain.CleanupReport) {
	tw := newTable(w, fmt.Sprintf("Stale branches (%d repos)", r.StaleBranchTotal))
	tw.AppendHeader(table.Row{"Repo", "Branches", "Stale", "Note"})
	for _, row := range r.StaleBranches {
		note := ""
		if row.TooManyBranches {
			note = "too many branches to analyze"
		}
		tw.AppendRow(table.Row{row.Repo, row.BranchCount, row.StaleCount, note})
	}
	tw.Render()

	tw = newTable(w, fmt.Sprintf("Inactive repositories (%d)", r.InactiveTotal))
	tw.AppendHeader(table.Row{"Repo", "Last activity"})
	for _, row := range r.Inactive {
		tw.AppendRow(table.Row{row.Repo, row.LastActivity.Format(time.DateOnly)})
	}
	tw.Render()

	tw = newTable(w, fmt.Sprintf("Old open pull requests (%d repos)", r.OldPRTotal))
	tw.AppendHeader(table.Row{"Repo", "Open", "Oldest (days)", "Title"})
	for _, row := range r.OldPRs {
		tw.AppendRow(table.Row{row.Repo, row.Count, row.OldestDays, row.OldestTitle})
	}
	tw.Render()

	tw = newTable(w, fmt.Sprintf("Fork drift (%d forks)", r.ForkTotal))
	tw.AppendHeader(table.Row{"Fork", "Upstream", "Ahead", "Behind"})
	for _, row := range r.ForkDrift {
		tw.AppendRow(table.Row{row.Repo, row.Parent, row.AheadBy, row.BehindBy})
	}
	tw.Render()
}

func renderSecurity(w io.Writer, r *domain.SecurityReport) {
	title := fmt.Sprintf("Open Dependabot alerts (%d repos, %d alerts)", r.ReposWithAlerts, r.TotalOpenAlerts)
	tw := newTable(w, title)
	tw.AppendHeader(table.Row{"Repo", "Critical", "High", "Medium", "Low", "Total"})
	for _, row := range r.Rows {
		tw.AppendRow(table.Row{row.Repo, row.Critical, row.High, row.Medium, row.Low, row.Total})
	}
	tw.Render()
}

func renderRepoGovernance(w io.Writer, r *domain.RepoGovernanceReport) {
	tw := newTable(w, fmt.Sprintf("Unprotected default branches (%d)", r.UnprotectedTotal))
	tw.AppendHeader(table.Row{"Repo", "Branch"})
	for _, row := range r.Unprotected {
		tw.AppendRow(table.Row{row.Repo, row.Branch})
	}
	tw.Render()

	tw = newTable(w, fmt.Sprintf("No delegated admin (%d)", r.NoAdminTotal))
	tw.AppendHeader(table.Row{"Repo", "Direct collaborators"})
	for _, row := range r.NoAdmin {
		tw.AppendRow(table.Row{row.Repo, row.Collaborators})
	}
	tw.Render()
}

func renderOrgGovernance(w io.Writer, r *domain.OrgGovernanceReport) {
	tw := newTable(w, fmt.Sprintf("Membership (%d members, %d owners)", r.MemberTotal, r.OwnerTotal))
	tw.AppendHeader(table.Row{"Owner"})
	for _, owner := range r.Owners {
		tw.AppendRow(table.Row{owner})
	}
	tw.Render()
}

func renderCosts(w io.Writer, r *domain.CostsReport) {
	tw := newTable(w, "Billing")
	tw.AppendHeader(table.Row{"Resource", "Used", "Paid", "Included"})
	if r.Actions != nil {
		tw.AppendRow(table.Row{"Actions minutes", r.Actions.TotalMinutesUsed, r.Actions.PaidMinutesUsed, r.Actions.IncludedMinutes})
	}
	if r.Packages != nil {
		tw.AppendRow(table.Row{"Packages bandwidth (GB)", r.Packages.BandwidthUsedGB, r.Packages.PaidBandwidthGB, r.Packages.IncludedBandwidthGB})
	}
	if r.Storage != nil {
		tw.AppendRow(table.Row{"Storage (GB)", r.Storage.EstimatedStorageGB, r.Storage.EstimatedPaidStorageGB, ""})
	}
	tw.Render()

	tw = newTable(w, fmt.Sprintf("Largest repositories (%d)", r.LargestTotal))
	tw.AppendHeader(table.Row{"Repo", "Size (KB)"})
	for _, row := range r.Largest {
		tw.AppendRow(table.Row{row.Repo, row.SizeKB})
	}
	tw.Render()
}

func renderOverview(w io.Writer, r *domain.OverviewReport) {
	tw := newTable(w, "Organization overview")
	tw.AppendRow(table.Row{"Total repositories", r.TotalRepos})
	tw.AppendRow(table.Row{"Active", r.ActiveRepos})
	tw.AppendRow(table.Row{"Archived", r.ArchivedRepos})
	tw.AppendRow(table.Row{"Forks", r.ForkRepos})
	tw.AppendRow(table.Row{"Private", r.PrivateRepos})
	tw.AppendRow(table.Row{"Mean days since push", fmt.Sprintf("%.1f", r.MeanDaysSincePush)})
	tw.AppendRow(table.Row{"Median days since push", fmt.Sprintf("%.1f", r.MedianDaysSincePush)})
	tw.Render()

	tw = newTable(w, "Languages")
	tw.AppendHeader(table.Row{"Language", "Repos"})
	for _, row := range r.Languages {
		tw.AppendRow(table.Row{row.Language, row.Count})
	}
	tw.Render()

	tw = newTable(w, "Recently pushed")
	tw.AppendHeader(table.Row{"Repo", "Pushed"})
	for _, row := range r.RecentlyPushed {
		tw.AppendRow(table.Row{row.Repo, row.PushedAt.Format(time.DateOnly)})
	}
	tw.Render()
}
