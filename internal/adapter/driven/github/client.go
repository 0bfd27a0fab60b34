// Package github implements the remote GitHub port over the REST and GraphQL
// APIs.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// requestTimeout bounds a single API call. The refresh loop must never wedge
// on a stuck connection.
const requestTimeout = 30 * time.Second

// Client talks to GitHub. Identity and user lookups go over REST, bulk
// involvement search and the pull request deep view go over GraphQL.
type Client struct {
	rest *gh.Client
	gql  *githubv4.Client
}

// NewClient creates a client bound to token with the following REST transport
// stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// GraphQL requests carry the same token via oauth2.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = requestTimeout
	rest := gh.NewClient(rateLimitClient).WithAuthToken(token)

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gqlHTTP := oauth2.NewClient(context.Background(), src)
	gqlHTTP.Timeout = requestTimeout

	return &Client{
		rest: rest,
		gql:  githubv4.NewClient(gqlHTTP),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server; both REST and GraphQL requests are routed to baseURL.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	rest := gh.NewClient(httpClient)
	rest.BaseURL = u

	return &Client{
		rest: rest,
		gql:  githubv4.NewEnterpriseClient(baseURL+"graphql", httpClient),
	}, nil
}

// Whoami resolves the identity owning the client's credential.
func (c *Client) Whoami(ctx context.Context) (*model.User, error) {
	user, _, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("get authenticated user: %w", classifyRESTError(err, driven.ErrUserNotFound))
	}

	return mapUser(user), nil
}

// GetUser looks up a GitHub user by login.
func (c *Client) GetUser(ctx context.Context, login string) (*model.User, error) {
	user, _, err := c.rest.Users.Get(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", login, classifyRESTError(err, driven.ErrUserNotFound))
	}

	return mapUser(user), nil
}

func mapUser(u *gh.User) *model.User {
	return &model.User{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
	}
}
