// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-org-analyser",
	Short: "A CLI tool to analyse a GitHub organization's repositories.",
	Long: `github-org-analyser builds tabular reports about a GitHub organization:
repository hygiene (stale branches, inactive repos, old PRs, fork drift),
open security alerts, branch protection and admin delegation, membership,
billing, and an overall summary. Results are cached locally with a TTL so
re-opening a report makes no network calls until the cache expires.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// defaultCachePath places the cache database under the user cache dir,
// falling back to the working directory when that is unavailable.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "orgalyser-cache.db"
	}
	return filepath.Join(dir, "github-org-analyser", "cache.db")
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("cache-path", defaultCachePath(), "Path to the local report cache database")
}
