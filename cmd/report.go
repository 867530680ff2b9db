// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lima-zulu/github-org-analyser/internal/cache"
	"github.com/lima-zulu/github-org-analyser/internal/config"
	"github.com/lima-zulu/github-org-analyser/internal/domain"
	"github.com/lima-zulu/github-org-analyser/internal/gateway"
	"github.com/lima-zulu/github-org-analyser/internal/usecase"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Builds an organization report and prints it",
	Long: `Builds one of the organization reports (cleanup, security, governance-repo,
governance-org, costs, overview) and prints it as a table or JSON. A live
cached result is returned without contacting GitHub; use --refresh to
bypass the cache read (the rebuilt result is still cached).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		org, _ := cmd.Flags().GetString("org")
		reportType, _ := cmd.Flags().GetString("report")
		refresh, _ := cmd.Flags().GetBool("refresh")
		output, _ := cmd.Flags().GetString("output")
		configPath, _ := cmd.Flags().GetString("config")
		cachePath, _ := cmd.InheritedFlags().GetString("cache-path")

		if !validReportType(reportType) {
			return fmt.Errorf("unknown report type %q (valid: %s)", reportType, strings.Join(domain.ReportTypes(), ", "))
		}

		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			return fmt.Errorf("GITHUB_TOKEN environment variable is not set")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		reportCache, err := openCache(cachePath, logger)
		if err != nil {
			return err
		}
		defer func() { _ = reportCache.Close() }()

		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		builder := usecase.NewBuilder(githubGateway, reportCache, cfg, logger)

		result, err := buildOne(ctx, builder, org, reportType, refresh)
		if err != nil {
			return fmt.Errorf("failed to build %s report: %w", reportType, err)
		}

		if output == "json" {
			jsonData, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report to JSON: %w", err)
			}
			fmt.Println(string(jsonData))
			return nil
		}
		renderReport(os.Stdout, result)
		return nil
	},
}

// buildOne dispatches to the builder for the requested report type.
func buildOne(ctx context.Context, builder *usecase.Builder, org, reportType string, refresh bool) (any, error) {
	switch reportType {
	case domain.ReportCleanup:
		return builder.BuildCleanup(ctx, org, refresh)
	case domain.ReportSecurity:
		return builder.BuildSecurity(ctx, org, refresh)
	case domain.ReportGovernanceRepo:
		return builder.BuildRepoGovernance(ctx, org, refresh)
	case domain.ReportGovernanceOrg:
		return builder.BuildOrgGovernance(ctx, org, refresh)
	case domain.ReportCosts:
		return builder.BuildCosts(ctx, org, refresh)
	case domain.ReportOverview:
		return builder.BuildOverview(ctx, org, refresh)
	default:
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}
}

func validReportType(reportType string) bool {
	for _, known := range domain.ReportTypes() {
		if reportType == known {
			return true
		}
	}
	return false
}

// openCache ensures the cache directory exists before opening the database.
func openCache(path string, logger *log.Logger) (*cache.ReportCache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return cache.Open(path, logger)
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	reportCmd.Flags().StringP("report", "r", domain.ReportOverview, "Report type: "+strings.Join(domain.ReportTypes(), ", "))
	reportCmd.Flags().Bool("refresh", false, "Bypass the cache read and rebuild the report")
	reportCmd.Flags().String("output", "table", "Output format: table or json")
	reportCmd.Flags().String("config", "", "Path to a YAML config file with threshold overrides")
	_ = reportCmd.MarkFlagRequired("org")
}
