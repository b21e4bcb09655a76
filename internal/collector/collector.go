package collector

import (
	"context"
	"errors"

	"github.com/Dharakkkk/GithubAssistant/internal/domain"
)

// ErrMalformedPayload is wrapped by errors returned when a successful
// response body cannot be decoded
var ErrMalformedPayload = errors.New("malformed payload")

// Outcome classifies an upstream response by status family
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeServerError
	OutcomeOther
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeServerError:
		return "server_error"
	default:
		return "other"
	}
}

// Result is the tagged result of one outbound call. Payload is only set
// when Outcome is OutcomeSuccess; StatusCode is always the upstream status.
type Result[T any] struct {
	Outcome    Outcome
	StatusCode int
	Payload    T
}

// Collector defines the interface for reading from the repository source.
// A non-nil error means no usable response was obtained: the call failed
// in transport, was cancelled, or returned a body that wraps ErrMalformedPayload.
type Collector interface {
	// ListRepositories retrieves the repositories owned by a user
	ListRepositories(ctx context.Context, username string) (Result[[]*domain.Repository], error)

	// ListBranches retrieves the branches of a repository
	ListBranches(ctx context.Context, owner, repo string) (Result[[]*domain.Branch], error)
}
