package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/github"
	"github.com/huangsam/sizeup/internal/outwriter"
	"github.com/huangsam/sizeup/schema"
	"github.com/spf13/cobra"
)

// prCmd groups pull request commands.
var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Ingest and inspect pull requests",
	Long: `Fetch pull requests from GitHub into the store and inspect stored records.

Subcommands:
  ingest - Fetch pull requests and store their review metrics
  show   - Print the stored review metrics of one pull request`,
}

// prIngestCmd fetches and stores pull requests.
var prIngestCmd = &cobra.Command{
	Use:   "ingest <repository> <number>... | <pull-request-url>...",
	Short: "Fetch pull requests from GitHub and store their review metrics",
	Long: `Fetch pull requests through the GitHub GraphQL API, derive their review metrics
and upsert them into the store. Re-ingesting a pull request replaces its record.

A token is read from --token-path, then SIZEUP_TOKEN, GITHUB_TOKEN or GH_TOKEN,
then prompted for when stdin is a terminal.

Examples:
  # Ingest two pull requests
  sizeup pr ingest lerebear/sizeup 12 13

  # Ingest by URL
  sizeup pr ingest https://github.com/lerebear/sizeup/pull/12`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		refs, err := schema.ParsePullRequestRefs(args)
		if err != nil {
			contract.LogFatal("Invalid pull request arguments", err)
		}

		ctx, cancel := withTimeout(rootCtx)
		defer cancel()
		if err := ingestPullRequests(ctx, refs); err != nil {
			contract.LogFatal("Failed to ingest pull requests", err)
		}
	},
}

// prShowCmd prints one stored pull request.
var prShowCmd = &cobra.Command{
	Use:     "show <repository> <number>",
	Short:   "Print the stored review metrics of one pull request",
	Args:    cobra.ExactArgs(2),
	PreRunE: repoStoreSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		number, err := strconv.Atoi(args[1])
		if err != nil || number <= 0 {
			contract.LogFatal("Invalid pull request number", fmt.Errorf("%q is not a positive integer", args[1]))
		}

		ctx, cancel := withTimeout(rootCtx)
		defer cancel()
		record, err := store.GetPullRequest(ctx, cfg.Repository, number)
		if err != nil {
			contract.LogFatal("Failed to load pull request", err)
		}
		if err := outwriter.PrintPullRequest(os.Stdout, record); err != nil {
			contract.LogFatal("Failed to print pull request", err)
		}
	},
}

// newSource builds the GitHub client from the token sources and configured host.
func newSource() (contract.PullRequestSource, error) {
	token, err := contract.LoadToken(cfg.TokenPath, contract.TerminalTokenPrompter())
	if err != nil {
		return nil, err
	}
	return github.NewClient(github.Options{Host: cfg.GitHubHost, Token: token})
}

// ingestPullRequests fetches refs with bounded concurrency and prints one line per result.
func ingestPullRequests(ctx context.Context, refs []schema.PullRequestRef) error {
	source, err := newSource()
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := core.IngestPullRequests(ctx, source, store, refs, cfg.Concurrency)
	outwriter.PrintIngestResults(os.Stdout, results, time.Since(start))
	if err != nil {
		return err
	}
	return core.FailedIngestions(results)
}
