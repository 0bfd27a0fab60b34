package model

import "time"

// PullRequestDetail is the on-demand deep view of a single pull request,
// fetched live from GitHub rather than served from the cache.
type PullRequestDetail struct {
	Number int
	Title  string

	// Body is the raw markdown from the API; BodyHTML is its rendered,
	// sanitized form, filled in by the application layer.
	Body     string
	BodyHTML string


	Author        User
	RepoOwner     string
	RepoName      string
	URL           string
	State         string
	IsDraft       bool
	Milestone     *Milestone
	Labels        []Label
	TotalComments int
	Participants  []User
	Reviews       []Review
}

// Milestone is a pull request's milestone, if any.
type Milestone struct {
	Title string
	State string
	DueOn *time.Time
}

// Label is a repository label attached to a pull request.
type Label struct {
	Name  string
	Color string
}

// Review is a single review verdict on a pull request.
type Review struct {
	Author User
	State  string
}
