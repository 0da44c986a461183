package content

import "errors"

// Sentinel kinds for content errors.
var (
	// ErrUpstream means the request failed or returned a non-2xx status.
	ErrUpstream = errors.New("content service unavailable")
	// ErrGraphQL means the service answered with GraphQL errors.
	ErrGraphQL = errors.New("graphql query failed")
	// ErrDecode means the response body could not be decoded.
	ErrDecode = errors.New("content decode failed")
)
