package aggregator

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Dharakkkk/GithubAssistant/internal/collector"
	"github.com/Dharakkkk/GithubAssistant/internal/domain"
	apperrors "github.com/Dharakkkk/GithubAssistant/internal/errors"
)

// DefaultConcurrency is the number of branch fetches allowed in flight per aggregation
const DefaultConcurrency = 10

// Aggregator defines the interface for aggregating repository details
type Aggregator interface {
	// ListRepositoryDetails returns the non-fork repositories of a user with their branches
	ListRepositoryDetails(ctx context.Context, username string) ([]domain.RepoDetails, error)
}

// Options configures an aggregator. Zero values fall back to defaults.
type Options struct {
	Concurrency int
	Retry       *RetryPolicy
	// Sleep replaces the backoff wait, mainly for tests
	Sleep SleepFunc
}

// aggregator implements the Aggregator interface
type aggregator struct {
	collector   collector.Collector
	branches    *BranchFetcher
	concurrency int
	retry       RetryPolicy
	sleep       SleepFunc
}

// NewAggregator creates a new aggregator
func NewAggregator(coll collector.Collector, opts Options) Aggregator {
	a := &aggregator{
		collector:   coll,
		branches:    NewBranchFetcher(coll),
		concurrency: opts.Concurrency,
		retry:       DefaultRetryPolicy(),
		sleep:       opts.Sleep,
	}
	if a.concurrency <= 0 {
		a.concurrency = DefaultConcurrency
	}
	if opts.Retry != nil {
		a.retry = *opts.Retry
	}
	if a.sleep == nil {
		a.sleep = sleepContext
	}
	return a
}

// ListRepositoryDetails lists the repositories of username, drops forks and
// fetches branches concurrently. The whole pipeline is retried on upstream
// failures; the result keeps the upstream repository order.
func (a *aggregator) ListRepositoryDetails(ctx context.Context, username string) ([]domain.RepoDetails, error) {
	log := logger.WithField("username", username)

	if _, err := domain.ValidateUsername(username); err != nil {
		log.Warnf("Invalid username: %v", err)
		return nil, err
	}

	log.Debug("Fetching repositories")
	details, err := withRetry(ctx, a.retry, a.sleep, log, func(ctx context.Context) ([]domain.RepoDetails, error) {
		return a.aggregate(ctx, username)
	})
	if err != nil {
		log.Errorf("Error fetching repositories: %v", err)
		return nil, err
	}

	log.WithField("repositories", len(details)).Info("Finished fetching repositories")
	return details, nil
}

// aggregate runs one attempt of the pipeline
func (a *aggregator) aggregate(ctx context.Context, username string) ([]domain.RepoDetails, error) {
	repos, err := a.listRepositories(ctx, username)
	if err != nil {
		return nil, err
	}

	repos = domain.FilterForks(repos)
	for _, repo := range repos {
		if repo.Name == "" || repo.OwnerLogin == "" {
			logger.WithFields(logger.Fields{
				"username": username,
				"repo":     repo.FullName(),
			}).Error("Invalid repository data")
			return nil, apperrors.NewInvalidRepositoryDataError(repo.FullName())
		}
	}

	// each task owns its slot, so no locking is needed
	results := make([]domain.RepoDetails, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			branches, err := a.branches.FetchBranches(gctx, repo.OwnerLogin, repo.Name)
			if err != nil {
				return err
			}
			results[i] = domain.NewRepoDetails(repo, branches)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// listRepositories maps the listing outcome onto the error taxonomy
func (a *aggregator) listRepositories(ctx context.Context, username string) ([]*domain.Repository, error) {
	log := logger.WithField("username", username)

	result, err := a.collector.ListRepositories(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, collector.ErrMalformedPayload):
			log.Errorf("Malformed repository listing: %v", err)
			return nil, apperrors.NewMalformedUpstreamError(username, err)
		default:
			log.Errorf("Repository listing failed: %v", err)
			return nil, apperrors.NewUpstreamServerError(username, err)
		}
	}

	switch result.Outcome {
	case collector.OutcomeSuccess:
		return result.Payload, nil
	case collector.OutcomeNotFound:
		log.Warn("User not found")
		return nil, apperrors.NewUserNotFoundError(username)
	case collector.OutcomeServerError:
		log.WithField("status", result.StatusCode).Error("Server error occurred")
		return nil, apperrors.NewUpstreamServerError(username,
			fmt.Errorf("upstream returned status %d", result.StatusCode))
	default:
		log.WithField("status", result.StatusCode).Error("Unexpected upstream status")
		return nil, apperrors.NewUpstreamServerError(username,
			fmt.Errorf("unexpected upstream status %d", result.StatusCode))
	}
}
