package aggregator_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dharakkkk/GithubAssistant/internal/aggregator"
	"github.com/Dharakkkk/GithubAssistant/internal/collector"
	"github.com/Dharakkkk/GithubAssistant/internal/domain"
	apperrors "github.com/Dharakkkk/GithubAssistant/internal/errors"
)

// stubCollector serves canned listings and tracks how it was called
type stubCollector struct {
	listRepos func(attempt int) (collector.Result[[]*domain.Repository], error)
	branches  func(ctx context.Context, attempt int, owner, repo string) (collector.Result[[]*domain.Branch], error)

	listCalls   atomic.Int32
	branchCalls atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *stubCollector) ListRepositories(_ context.Context, _ string) (collector.Result[[]*domain.Repository], error) {
	attempt := int(s.listCalls.Add(1)) - 1
	return s.listRepos(attempt)
}

func (s *stubCollector) ListBranches(ctx context.Context, owner, repo string) (collector.Result[[]*domain.Branch], error) {
	s.branchCalls.Add(1)
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.maxInFlight.Load()
		if current <= peak || s.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	return s.branches(ctx, int(s.listCalls.Load())-1, owner, repo)
}

func reposResult(repos ...*domain.Repository) func(int) (collector.Result[[]*domain.Repository], error) {
	return func(int) (collector.Result[[]*domain.Repository], error) {
		return collector.Result[[]*domain.Repository]{
			Outcome:    collector.OutcomeSuccess,
			StatusCode: http.StatusOK,
			Payload:    repos,
		}, nil
	}
}

func statusResult(outcome collector.Outcome, status int) func(int) (collector.Result[[]*domain.Repository], error) {
	return func(int) (collector.Result[[]*domain.Repository], error) {
		return collector.Result[[]*domain.Repository]{Outcome: outcome, StatusCode: status}, nil
	}
}

func oneBranch(sha string) (collector.Result[[]*domain.Branch], error) {
	return collector.Result[[]*domain.Branch]{
		Outcome:    collector.OutcomeSuccess,
		StatusCode: http.StatusOK,
		Payload:    []*domain.Branch{{Name: "main", CommitSHA: sha}},
	}, nil
}

// sleepRecorder replaces the backoff wait and keeps the requested delays
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestAggregator(coll collector.Collector, sleep *sleepRecorder) aggregator.Aggregator {
	return aggregator.NewAggregator(coll, aggregator.Options{Sleep: sleep.Sleep})
}

func TestListRepositoryDetails(t *testing.T) {
	t.Parallel()

	t.Run("should return only non-fork repositories with their branches", func(t *testing.T) {
		// given
		stub := &stubCollector{
			listRepos: reposResult(
				&domain.Repository{Name: "a", OwnerLogin: "octocat"},
				&domain.Repository{Name: "fork-1", OwnerLogin: "octocat", Fork: true},
				&domain.Repository{Name: "b", OwnerLogin: "octocat"},
				&domain.Repository{Name: "fork-2", OwnerLogin: "octocat", Fork: true},
				&domain.Repository{Name: "c", OwnerLogin: "octocat"},
			),
			branches: func(_ context.Context, _ int, _, repo string) (collector.Result[[]*domain.Branch], error) {
				return oneBranch("sha-" + repo)
			},
		}
		sleep := &sleepRecorder{}

		// when
		details, err := newTestAggregator(stub, sleep).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.NoError(t, err)
		require.Len(t, details, 3)
		for i, name := range []string{"a", "b", "c"} {
			assert.Equal(t, name, details[i].Name)
			assert.Equal(t, "octocat", details[i].Owner)
			require.Len(t, details[i].Branches, 1)
			assert.Equal(t, "sha-"+name, details[i].Branches[0].LastCommitSHA)
		}
		assert.Equal(t, int32(3), stub.branchCalls.Load())
		assert.Empty(t, sleep.delays)
	})

	t.Run("should keep repository order when branch fetches finish out of order", func(t *testing.T) {
		// given
		var repos []*domain.Repository
		latency := map[string]time.Duration{}
		for i := 0; i < 8; i++ {
			name := fmt.Sprintf("repo-%d", i)
			repos = append(repos, &domain.Repository{Name: name, OwnerLogin: "octocat"})
			latency[name] = time.Duration(8-i) * 15 * time.Millisecond
		}
		var completed []string
		var mu sync.Mutex
		stub := &stubCollector{
			listRepos: reposResult(repos...),
			branches: func(_ context.Context, _ int, _, repo string) (collector.Result[[]*domain.Branch], error) {
				time.Sleep(latency[repo])
				mu.Lock()
				completed = append(completed, repo)
				mu.Unlock()
				return oneBranch(repo)
			},
		}

		// when
		details, err := newTestAggregator(stub, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.NoError(t, err)
		require.Len(t, details, len(repos))
		for i, repo := range repos {
			assert.Equal(t, repo.Name, details[i].Name)
		}
		require.Len(t, completed, len(repos))
		assert.NotEqual(t, "repo-0", completed[0], "fetches should have completed out of order")
	})

	t.Run("should never run more than ten branch fetches at once", func(t *testing.T) {
		// given
		var repos []*domain.Repository
		for i := 0; i < 35; i++ {
			repos = append(repos, &domain.Repository{Name: fmt.Sprintf("repo-%d", i), OwnerLogin: "octocat"})
		}
		stub := &stubCollector{
			listRepos: reposResult(repos...),
			branches: func(_ context.Context, _ int, _, repo string) (collector.Result[[]*domain.Branch], error) {
				time.Sleep(10 * time.Millisecond)
				return oneBranch(repo)
			},
		}

		// when
		details, err := newTestAggregator(stub, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.NoError(t, err)
		assert.Len(t, details, 35)
		assert.LessOrEqual(t, stub.maxInFlight.Load(), int32(aggregator.DefaultConcurrency))
		assert.Greater(t, stub.maxInFlight.Load(), int32(1))
	})

	t.Run("should fail with user not found without retrying on 404", func(t *testing.T) {
		// given
		stub := &stubCollector{listRepos: statusResult(collector.OutcomeNotFound, http.StatusNotFound)}
		sleep := &sleepRecorder{}

		// when
		_, err := newTestAggregator(stub, sleep).ListRepositoryDetails(context.Background(), "ghost-user-404")

		// then
		require.Error(t, err)
		assert.True(t, apperrors.IsUserNotFound(err))
		assert.Equal(t, int32(1), stub.listCalls.Load())
		assert.Empty(t, sleep.delays)
	})

	t.Run("should retry a 500 three times with growing delays", func(t *testing.T) {
		// given
		stub := &stubCollector{listRepos: statusResult(collector.OutcomeServerError, http.StatusInternalServerError)}
		sleep := &sleepRecorder{}

		// when
		_, err := newTestAggregator(stub, sleep).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.Error(t, err)
		assert.True(t, apperrors.IsUpstreamServerError(err))
		assert.Equal(t, int32(4), stub.listCalls.Load())
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleep.delays)
	})

	t.Run("should succeed when the upstream recovers during retries", func(t *testing.T) {
		// given
		stub := &stubCollector{
			listRepos: func(attempt int) (collector.Result[[]*domain.Repository], error) {
				if attempt < 2 {
					return collector.Result[[]*domain.Repository]{Outcome: collector.OutcomeServerError, StatusCode: 503}, nil
				}
				return reposResult(&domain.Repository{Name: "a", OwnerLogin: "octocat"})(attempt)
			},
			branches: func(_ context.Context, _ int, _, _ string) (collector.Result[[]*domain.Branch], error) {
				return oneBranch("abc")
			},
		}
		sleep := &sleepRecorder{}

		// when
		details, err := newTestAggregator(stub, sleep).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.NoError(t, err)
		assert.Len(t, details, 1)
		assert.Equal(t, int32(3), stub.listCalls.Load())
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleep.delays)
	})

	t.Run("should re-run the whole pipeline when a branch fetch fails", func(t *testing.T) {
		// given
		stub := &stubCollector{
			listRepos: reposResult(
				&domain.Repository{Name: "a", OwnerLogin: "octocat"},
				&domain.Repository{Name: "b", OwnerLogin: "octocat"},
			),
			branches: func(_ context.Context, attempt int, _, repo string) (collector.Result[[]*domain.Branch], error) {
				if attempt == 0 && repo == "b" {
					return collector.Result[[]*domain.Branch]{}, errors.New("connection reset")
				}
				return oneBranch(repo)
			},
		}
		sleep := &sleepRecorder{}

		// when
		details, err := newTestAggregator(stub, sleep).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.NoError(t, err)
		assert.Len(t, details, 2)
		assert.Equal(t, int32(2), stub.listCalls.Load())
		assert.Equal(t, []time.Duration{2 * time.Second}, sleep.delays)
	})

	t.Run("should fail the aggregation when a branch fetch keeps failing", func(t *testing.T) {
		// given
		stub := &stubCollector{
			listRepos: reposResult(&domain.Repository{Name: "a", OwnerLogin: "octocat"}),
			branches: func(_ context.Context, _ int, _, _ string) (collector.Result[[]*domain.Branch], error) {
				return collector.Result[[]*domain.Branch]{Outcome: collector.OutcomeServerError, StatusCode: 500}, nil
			},
		}

		// when
		_, err := newTestAggregator(stub, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeBranchFetchFailed, apperrors.CodeOf(err))
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "octocat/a", appErr.Subject)
		assert.Equal(t, int32(4), stub.listCalls.Load())
	})

	t.Run("should reject repositories without name or owner", func(t *testing.T) {
		// given
		stub := &stubCollector{
			listRepos: reposResult(
				&domain.Repository{Name: "a", OwnerLogin: "octocat"},
				&domain.Repository{Name: "", OwnerLogin: "octocat"},
			),
			branches: func(_ context.Context, _ int, _, repo string) (collector.Result[[]*domain.Branch], error) {
				return oneBranch(repo)
			},
		}
		sleep := &sleepRecorder{}

		// when
		_, err := newTestAggregator(stub, sleep).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidRepositoryData, apperrors.CodeOf(err))
		assert.Equal(t, int32(1), stub.listCalls.Load())
		assert.Empty(t, sleep.delays)
	})

	t.Run("should not retry a malformed listing", func(t *testing.T) {
		// given
		stub := &stubCollector{
			listRepos: func(int) (collector.Result[[]*domain.Repository], error) {
				return collector.Result[[]*domain.Repository]{StatusCode: 200},
					fmt.Errorf("%w: unexpected object", collector.ErrMalformedPayload)
			},
		}

		// when
		_, err := newTestAggregator(stub, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "octocat")

		// then
		assert.Equal(t, apperrors.ErrCodeMalformedUpstream, apperrors.CodeOf(err))
		assert.Equal(t, int32(1), stub.listCalls.Load())
	})

	t.Run("should reject an invalid username before any network call", func(t *testing.T) {
		stub := &stubCollector{}

		_, err := newTestAggregator(stub, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "bad/name")

		assert.True(t, apperrors.IsInvalidInput(err))
		assert.Equal(t, int32(0), stub.listCalls.Load())
	})

	t.Run("should cancel outstanding branch fetches when the caller gives up", func(t *testing.T) {
		// given
		var repos []*domain.Repository
		for i := 0; i < 5; i++ {
			repos = append(repos, &domain.Repository{Name: fmt.Sprintf("repo-%d", i), OwnerLogin: "octocat"})
		}
		started := make(chan struct{}, len(repos))
		stub := &stubCollector{
			listRepos: reposResult(repos...),
			branches: func(ctx context.Context, _ int, _, _ string) (collector.Result[[]*domain.Branch], error) {
				started <- struct{}{}
				<-ctx.Done()
				return collector.Result[[]*domain.Branch]{}, ctx.Err()
			},
		}
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		// when
		_, err := newTestAggregator(stub, &sleepRecorder{}).ListRepositoryDetails(ctx, "octocat")

		// then
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), stub.listCalls.Load())
		assert.Equal(t, int32(0), stub.inFlight.Load())
	})
}

func TestListRepositoryDetailsAgainstGitHubAPI(t *testing.T) {
	t.Parallel()

	t.Run("should aggregate the octocat example end to end", func(t *testing.T) {
		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"name":"Hello-World","owner":{"login":"octocat"},"fork":false}]`))
		})
		mux.HandleFunc("/repos/octocat/Hello-World/branches", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"name":"master","commit":{"sha":"abc123"}}]`))
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		coll, err := collector.NewGitHubCollector(collector.Options{BaseURL: server.URL, Timeout: 5 * time.Second})
		require.NoError(t, err)

		// when
		details, err := newTestAggregator(coll, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "octocat")

		// then
		require.NoError(t, err)
		assert.Equal(t, []domain.RepoDetails{{
			Name:     "Hello-World",
			Owner:    "octocat",
			Branches: []domain.BranchDetails{{Name: "master", LastCommitSHA: "abc123"}},
		}}, details)
	})

	t.Run("should count a single listing call for an unknown user", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(server.Close)

		coll, err := collector.NewGitHubCollector(collector.Options{BaseURL: server.URL, Timeout: 5 * time.Second})
		require.NoError(t, err)

		// when
		_, err = newTestAggregator(coll, &sleepRecorder{}).ListRepositoryDetails(context.Background(), "ghost-user-404")

		// then
		assert.True(t, apperrors.IsUserNotFound(err))
		assert.Equal(t, int32(1), hits.Load())
	})
}
