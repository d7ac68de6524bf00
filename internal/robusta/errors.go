package robusta

import (
	"errors"
	"fmt"
)

// FailureKind classifies a per-cluster fetch failure so the menu can
// render cluster-specific error text instead of a generic failure.
type FailureKind int

const (
	// FailureNetwork covers transport errors (timeout, DNS, connection
	// refused) and unexpected HTTP statuses outside the other classes.
	FailureNetwork FailureKind = iota
	// FailureAuth covers HTTP 401/403: bad or expired api_key.
	FailureAuth
	// FailureRateLimited covers HTTP 429.
	FailureRateLimited
	// FailureMalformed covers responses that are not the expected JSON
	// schema.
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth"
	case FailureRateLimited:
		return "rate-limited"
	case FailureMalformed:
		return "malformed"
	default:
		return "network"
	}
}

// FetchError is a classified per-cluster fetch failure. It is a value
// collected into the aggregation error map, never a cycle abort.
type FetchError struct {
	Kind     FailureKind
	Cluster  string
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cluster %s: %s failure (HTTP %d): %v", e.Cluster, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("cluster %s: %s failure: %v", e.Cluster, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserMessage returns the short human-readable rendering for the menu.
func (e *FetchError) UserMessage() string {
	switch e.Kind {
	case FailureAuth:
		return "authentication failed (check api_key)"
	case FailureRateLimited:
		return "rate limited by backend"
	case FailureMalformed:
		return "unexpected response from backend"
	default:
		return "network error reaching backend"
	}
}

// KindOf extracts the failure class from an error chain, defaulting to
// network for unclassified errors.
func KindOf(err error) FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailureNetwork
}
