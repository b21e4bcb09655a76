package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Dharakkkk/GithubAssistant/internal/aggregator"
	"github.com/Dharakkkk/GithubAssistant/internal/collector"
	"github.com/Dharakkkk/GithubAssistant/internal/config"
	"github.com/Dharakkkk/GithubAssistant/internal/domain"
	"github.com/Dharakkkk/GithubAssistant/internal/logging"
	"github.com/Dharakkkk/GithubAssistant/pkg/client"
)

var (
	outputJSON bool
	remote     bool
)

var rootCmd = &cobra.Command{
	Use:   "github-assistant",
	Short: "GitHub repository and branch lister",
	Long: `A CLI tool that lists the non-fork repositories of a GitHub user
together with every branch and its latest commit hash.`,
	SilenceUsage: true,
}

var reposCmd = &cobra.Command{
	Use:   "repos [username]",
	Short: "List repositories and branches of a user",
	Long: `Fetch the non-fork repositories of a user and their branches.

By default the GitHub API is queried directly. With --remote the request
goes through a running API server at API_ENDPOINT.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepos,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	reposCmd.Flags().BoolVar(&remote, "remote", false, "query a running API server instead of GitHub")

	rootCmd.AddCommand(reposCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRepos(cmd *cobra.Command, args []string) error {
	username, err := domain.ValidateUsername(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var details []domain.RepoDetails
	if remote {
		details, err = client.NewClient(cfg.APIEndpoint).ListRepositories(ctx, username)
	} else {
		var agg aggregator.Aggregator
		agg, err = newAggregator(cfg)
		if err != nil {
			return err
		}
		details, err = agg.ListRepositoryDetails(ctx, username)
	}
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), details)
	}
	writeTable(cmd.OutOrStdout(), username, details)
	return nil
}

func newAggregator(cfg *config.Config) (aggregator.Aggregator, error) {
	coll, err := collector.NewGitHubCollector(collector.Options{
		BaseURL: cfg.GitHubBaseURL,
		Token:   cfg.GitHubToken,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GitHub collector: %w", err)
	}
	return aggregator.NewAggregator(coll, aggregator.Options{
		Concurrency: cfg.BranchConcurrency,
		Retry: &aggregator.RetryPolicy{
			MaxRetries: cfg.RetryMaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   cfg.RetryMaxDelay,
		},
	}), nil
}

func writeJSON(w io.Writer, details []domain.RepoDetails) error {
	if details == nil {
		details = []domain.RepoDetails{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(details)
}

func writeTable(w io.Writer, username string, details []domain.RepoDetails) {
	fmt.Fprintf(w, "\nRepositories of %s: %d\n\n", username, len(details))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Branch", "Last Commit"})
	table.SetAutoMergeCellsByColumnIndex([]int{0})
	for _, repo := range details {
		if len(repo.Branches) == 0 {
			table.Append([]string{repo.Name, "-", "-"})
			continue
		}
		for _, branch := range repo.Branches {
			table.Append([]string{repo.Name, branch.Name, branch.LastCommitSHA})
		}
	}
	table.Render()
}
