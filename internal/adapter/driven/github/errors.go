package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// classifyRESTError translates a go-github error into the domain taxonomy.
// notFound is the sentinel a 404 maps to, chosen by the caller from what was
// being looked up. Anything unrecognized, network failures included, counts as
// transient.
func classifyRESTError(err error, notFound error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: rate limited until %s", driven.ErrTransient, rateErr.Rate.Reset.Time)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: secondary rate limit", driven.ErrTransient)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", driven.ErrCredentialInvalid, respErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", notFound, respErr.Message)
		}
	}

	return fmt.Errorf("%w: %v", driven.ErrTransient, err)
}

// classifyGraphQLError translates a githubv4 query error into the domain
// taxonomy. The GraphQL client folds everything into opaque error strings, so
// this goes by the stable phrases GitHub uses: auth failures carry "401" or
// "Bad credentials", missing objects "Could not resolve to", and rate
// exhaustion "rate limit".
func classifyGraphQLError(err error, notFound error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "rate limit"):
		return fmt.Errorf("%w: %s", driven.ErrTransient, msg)
	case strings.Contains(msg, "401"), strings.Contains(lower, "bad credentials"), strings.Contains(lower, "unauthorized"):
		return fmt.Errorf("%w: %s", driven.ErrCredentialInvalid, msg)
	case strings.Contains(msg, "Could not resolve to"):
		return fmt.Errorf("%w: %s", notFound, msg)
	default:
		return fmt.Errorf("%w: %v", driven.ErrTransient, err)
	}
}
