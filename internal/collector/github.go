package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Dharakkkk/GithubAssistant/internal/domain"
)

// DefaultBaseURL is the public GitHub REST endpoint
const DefaultBaseURL = "https://api.github.com"

// Options configures the GitHub collector
type Options struct {
	BaseURL string
	// Token is optional; when set it is sent as a bearer token
	Token   string
	Timeout time.Duration
}

// githubCollector implements Collector using the GitHub REST API
type githubCollector struct {
	client *github.Client
}

// NewGitHubCollector creates a new GitHub collector. The returned value is
// safe for concurrent use and is meant to be built once per process.
func NewGitHubCollector(opts Options) (Collector, error) {
	httpClient := &http.Client{}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = opts.Timeout

	client := github.NewClient(httpClient)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	client.BaseURL = u

	return &githubCollector{client: client}, nil
}

// ListRepositories retrieves the repositories owned by a user (first page only)
func (c *githubCollector) ListRepositories(ctx context.Context, username string) (Result[[]*domain.Repository], error) {
	repos, resp, err := c.client.Repositories.List(ctx, username, nil)
	outcome, status, err := classify(ctx, resp, err)
	if err != nil {
		return Result[[]*domain.Repository]{StatusCode: status}, err
	}

	logger.WithFields(logger.Fields{
		"username": username,
		"status":   status,
		"outcome":  outcome.String(),
	}).Debug("Listed repositories")

	result := Result[[]*domain.Repository]{Outcome: outcome, StatusCode: status}
	if outcome != OutcomeSuccess {
		return result, nil
	}

	result.Payload = make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		// null entries are kept as empty records so they fail validation downstream
		if repo == nil {
			result.Payload = append(result.Payload, &domain.Repository{})
			continue
		}
		result.Payload = append(result.Payload, &domain.Repository{
			Name:       repo.GetName(),
			OwnerLogin: repo.GetOwner().GetLogin(),
			Fork:       repo.GetFork(),
		})
	}
	return result, nil
}

// ListBranches retrieves the branches of a repository (first page only)
func (c *githubCollector) ListBranches(ctx context.Context, owner, repo string) (Result[[]*domain.Branch], error) {
	branches, resp, err := c.client.Repositories.ListBranches(ctx, owner, repo, nil)
	outcome, status, err := classify(ctx, resp, err)
	if err != nil {
		return Result[[]*domain.Branch]{StatusCode: status}, err
	}

	logger.WithFields(logger.Fields{
		"repo":    owner + "/" + repo,
		"status":  status,
		"outcome": outcome.String(),
	}).Debug("Listed branches")

	result := Result[[]*domain.Branch]{Outcome: outcome, StatusCode: status}
	if outcome != OutcomeSuccess {
		return result, nil
	}

	result.Payload = make([]*domain.Branch, 0, len(branches))
	for _, branch := range branches {
		if branch == nil || branch.Commit == nil || branch.GetCommit().SHA == nil {
			return Result[[]*domain.Branch]{StatusCode: status},
				fmt.Errorf("%w: branch without commit reference in %s/%s", ErrMalformedPayload, owner, repo)
		}
		result.Payload = append(result.Payload, &domain.Branch{
			Name:      branch.GetName(),
			CommitSHA: branch.GetCommit().GetSHA(),
		})
	}
	return result, nil
}

// classify turns a go-github response into an outcome. Status errors become
// outcomes; transport, cancellation and decode failures are returned as errors.
func classify(ctx context.Context, resp *github.Response, err error) (Outcome, int, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return OutcomeOther, 0, ctxErr
	}
	if resp == nil || resp.Response == nil {
		if err == nil {
			return OutcomeOther, 0, fmt.Errorf("empty response from upstream")
		}
		return OutcomeOther, 0, err
	}

	status := resp.StatusCode
	switch {
	case status == http.StatusNotFound:
		return OutcomeNotFound, status, nil
	case status >= 500:
		return OutcomeServerError, status, nil
	case status >= 200 && status < 300:
		if err != nil {
			return OutcomeOther, status, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return OutcomeSuccess, status, nil
	default:
		return OutcomeOther, status, nil
	}
}
