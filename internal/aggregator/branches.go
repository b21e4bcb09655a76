package aggregator

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/Dharakkkk/GithubAssistant/internal/collector"
	"github.com/Dharakkkk/GithubAssistant/internal/domain"
	apperrors "github.com/Dharakkkk/GithubAssistant/internal/errors"
)

// BranchFetcher reduces the branches of one repository to name and latest commit hash
type BranchFetcher struct {
	collector collector.Collector
}

// NewBranchFetcher creates a new branch fetcher
func NewBranchFetcher(coll collector.Collector) *BranchFetcher {
	return &BranchFetcher{collector: coll}
}

// FetchBranches returns the branches of owner/repo in upstream order.
// It does not retry; every failure other than cancellation is reported
// as a BranchFetchFailed error carrying owner/repo.
func (f *BranchFetcher) FetchBranches(ctx context.Context, owner, repo string) ([]domain.BranchDetails, error) {
	fullName := owner + "/" + repo
	if owner == "" || repo == "" {
		return nil, apperrors.NewInvalidRepositoryDataError(fullName)
	}

	result, err := f.collector.ListBranches(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.WithField("repo", fullName).Errorf("Error fetching branches: %v", err)
		return nil, apperrors.NewBranchFetchFailedError(fullName, err)
	}

	if result.Outcome != collector.OutcomeSuccess {
		logger.WithFields(logger.Fields{
			"repo":   fullName,
			"status": result.StatusCode,
		}).Error("Unexpected status fetching branches")
		return nil, apperrors.NewBranchFetchFailedError(fullName,
			fmt.Errorf("upstream returned status %d", result.StatusCode))
	}

	details := make([]domain.BranchDetails, 0, len(result.Payload))
	for _, branch := range result.Payload {
		details = append(details, domain.NewBranchDetails(branch))
	}
	return details, nil
}
