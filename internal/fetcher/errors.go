package fetcher

import "fmt"

// FetchErrorKind classifies a fetch failure for callers that need to
// distinguish transient upstream trouble from a query the upstream
// simply rejected.
type FetchErrorKind string

const (
	FetchErrorTransient    FetchErrorKind = "transient"
	FetchErrorInvalidQuery FetchErrorKind = "invalid_query"
	FetchErrorNotFound     FetchErrorKind = "not_found"
)

// FetchError wraps a fetch failure with its upstream and kind. An empty
// result set after exhausting fallbacks is not represented by this type
// — it is a successful, empty Fetch.
type FetchError struct {
	Kind     FetchErrorKind
	Upstream string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetcher: %s (%s): %v", e.Upstream, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetcher: %s (%s)", e.Upstream, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
