package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lima-zulu/github-org-analyser/internal/cache"
)

// cacheCmd manages the local report cache. These subcommands only touch
// the cache database; they never contact GitHub.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local report cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache entry counts and age range",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cacheFromFlags(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		st, err := c.Status()
		if err != nil {
			return err
		}
		fmt.Printf("Entries: %d (%d expired)\n", st.Entries, st.Expired)
		if st.Entries > 0 {
			fmt.Printf("Oldest:  %s\n", st.Oldest.Format(time.RFC3339))
			fmt.Printf("Newest:  %s\n", st.Newest.Format(time.RFC3339))
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached report for an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		org, _ := cmd.Flags().GetString("org")
		c, err := cacheFromFlags(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		n, err := c.InvalidateAll(org)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries for org %s.\n", n, org)
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete every expired cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cacheFromFlags(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		n, err := c.SweepExpired()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired entries.\n", n)
		return nil
	},
}

func cacheFromFlags(cmd *cobra.Command) (*cache.ReportCache, error) {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	cachePath, _ := cmd.InheritedFlags().GetString("cache-path")
	return openCache(cachePath, logger)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheClearCmd.Flags().StringP("org", "o", "", "Organization whose entries to delete (required)")
	_ = cacheClearCmd.MarkFlagRequired("org")
}
