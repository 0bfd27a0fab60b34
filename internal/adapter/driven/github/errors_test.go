package github

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gh "github.com/google/go-github/v82/github"
	"github.com/stretchr/testify/assert"

	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

func restError(status int) error {
	return &gh.ErrorResponse{
		Response: &http.Response{StatusCode: status},
		Message:  "upstream says no",
	}
}

func TestClassifyRESTError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", restError(http.StatusUnauthorized), driven.ErrCredentialInvalid},
		{"forbidden", restError(http.StatusForbidden), driven.ErrCredentialInvalid},
		{"not found", restError(http.StatusNotFound), driven.ErrUserNotFound},
		{"server error", restError(http.StatusInternalServerError), driven.ErrTransient},
		{"primary rate limit", &gh.RateLimitError{}, driven.ErrTransient},
		{"secondary rate limit", &gh.AbuseRateLimitError{}, driven.ErrTransient},
		{"network failure", errors.New("dial tcp: connection refused"), driven.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRESTError(tt.err, driven.ErrUserNotFound)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyRESTError_ContextCancellation(t *testing.T) {
	got := classifyRESTError(context.Canceled, driven.ErrUserNotFound)
	assert.ErrorIs(t, got, context.Canceled)
	assert.NotErrorIs(t, got, driven.ErrTransient)
}

func TestClassifyGraphQLError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad credentials", errors.New("non-200 OK status code: 401 Unauthorized body: \"Bad credentials\""), driven.ErrCredentialInvalid},
		{"missing user", errors.New("Could not resolve to a User with the login of 'ghost'."), driven.ErrUserNotFound},
		{"rate limited", errors.New("API rate limit exceeded"), driven.ErrTransient},
		{"malformed response", errors.New("unexpected end of JSON input"), driven.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGraphQLError(tt.err, driven.ErrUserNotFound)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyGraphQLError_NotFoundSentinelIsContextual(t *testing.T) {
	err := errors.New("Could not resolve to a Repository with the name 'acme/gone'.")
	got := classifyGraphQLError(err, driven.ErrRepositoryNotFound)
	assert.ErrorIs(t, got, driven.ErrRepositoryNotFound)
}
