package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// searchPageSize is the number of search nodes fetched per GraphQL page.
const searchPageSize = 50

// actorFields resolves a GitHub actor. Only User actors carry a database ID;
// bots and mannequins map to ID zero.
type actorFields struct {
	Login githubv4.String
	User  struct {
		DatabaseID githubv4.Int
	} `graphql:"... on User"`
}

// issueFields is the search projection shared by issues and pull requests.
type issueFields struct {
	DatabaseID githubv4.Int
	Number     githubv4.Int
	Title      githubv4.String
	Author     actorFields
	URL        githubv4.String
	Repository struct {
		Name  githubv4.String
		Owner struct {
			Login githubv4.String
		}
	}
	State     githubv4.String
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	ClosedAt  *githubv4.DateTime
}

type pullRequestFields struct {
	issueFields
	IsDraft        githubv4.Boolean
	ReviewDecision *githubv4.String
	MergedAt       *githubv4.DateTime
}

// SearchUserIssues fetches every issue and pull request involving login. With
// since nil it asks for the full set of open involvement; with since set it
// asks only for items updated at or after since, closed ones included, so that
// state transitions reach the cache. The result's When is the fetch completion
// time.
func (c *Client) SearchUserIssues(ctx context.Context, login string, since *time.Time) (*model.UserUpdate, error) {
	term := fmt.Sprintf("involves:%s is:open", login)
	if since != nil {
		term = fmt.Sprintf("involves:%s updated:>=%s", login, since.UTC().Format(time.RFC3339))
	}

	var q struct {
		Search struct {
			PageInfo struct {
				EndCursor   githubv4.String
				HasNextPage githubv4.Boolean
			}
			Nodes []struct {
				TypeName    githubv4.String   `graphql:"__typename"`
				Issue       issueFields       `graphql:"... on Issue"`
				PullRequest pullRequestFields `graphql:"... on PullRequest"`
			}
		} `graphql:"search(query: $query, type: ISSUE, first: $pageSize, after: $cursor)"`
	}

	vars := map[string]any{
		"query":    githubv4.String(term),
		"pageSize": githubv4.Int(searchPageSize),
		"cursor":   (*githubv4.String)(nil),
	}

	var issues []model.Issue
	for {
		if err := c.gql.Query(ctx, &q, vars); err != nil {
			return nil, fmt.Errorf("search issues for %q: %w", login, classifyGraphQLError(err, driven.ErrUserNotFound))
		}

		for _, node := range q.Search.Nodes {
			switch node.TypeName {
			case "Issue":
				issues = append(issues, mapIssue(node.Issue))
			case "PullRequest":
				issues = append(issues, mapPullRequest(node.PullRequest))
			}
		}

		if !bool(q.Search.PageInfo.HasNextPage) {
			break
		}
		vars["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
	}

	return &model.UserUpdate{
		When:   time.Now().UTC(),
		Issues: issues,
	}, nil
}

// PullRequestDetail fetches the deep view of one pull request: raw body,
// milestone, labels, comment count, participants, and the latest review per
// reviewer.
func (c *Client) PullRequestDetail(ctx context.Context, owner, repo string, number int) (*model.PullRequestDetail, error) {
	var q struct {
		Repository struct {
			PullRequest struct {
				Number    githubv4.Int
				Title     githubv4.String
				Body      githubv4.String
				Author    actorFields
				URL       githubv4.String
				State     githubv4.String
				IsDraft   githubv4.Boolean
				Milestone *struct {
					Title githubv4.String
					State githubv4.String
					DueOn *githubv4.DateTime
				}
				Labels struct {
					Nodes []struct {
						Name  githubv4.String
						Color githubv4.String
					}
				} `graphql:"labels(first: 50)"`
				TotalCommentsCount githubv4.Int
				Participants       struct {
					Nodes []struct {
						DatabaseID githubv4.Int
						Login      githubv4.String
						Name       githubv4.String
						AvatarURL  githubv4.String
					}
				} `graphql:"participants(first: 50)"`
				LatestReviews struct {
					Nodes []struct {
						Author actorFields
						State  githubv4.String
					}
				} `graphql:"latestReviews(first: 50)"`
			} `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	vars := map[string]any{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"number": githubv4.Int(number),
	}

	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return nil, fmt.Errorf("get pull request %s/%s#%d: %w",
			owner, repo, number, classifyGraphQLError(err, driven.ErrPullRequestNotFound))
	}

	pr := q.Repository.PullRequest
	detail := &model.PullRequestDetail{
		Number:        int(pr.Number),
		Title:         string(pr.Title),
		Body:          string(pr.Body),
		Author:        mapActor(pr.Author),
		RepoOwner:     owner,
		RepoName:      repo,
		URL:           string(pr.URL),
		State:         strings.ToLower(string(pr.State)),
		IsDraft:       bool(pr.IsDraft),
		TotalComments: int(pr.TotalCommentsCount),
	}

	if m := pr.Milestone; m != nil {
		detail.Milestone = &model.Milestone{
			Title: string(m.Title),
			State: strings.ToLower(string(m.State)),
			DueOn: nullableTime(m.DueOn),
		}
	}

	for _, l := range pr.Labels.Nodes {
		detail.Labels = append(detail.Labels, model.Label{
			Name:  string(l.Name),
			Color: string(l.Color),
		})
	}

	for _, p := range pr.Participants.Nodes {
		detail.Participants = append(detail.Participants, model.User{
			ID:        int64(p.DatabaseID),
			Login:     string(p.Login),
			Name:      string(p.Name),
			AvatarURL: string(p.AvatarURL),
		})
	}

	for _, r := range pr.LatestReviews.Nodes {
		detail.Reviews = append(detail.Reviews, model.Review{
			Author: mapActor(r.Author),
			State:  strings.ToLower(string(r.State)),
		})
	}

	return detail, nil
}

func mapIssue(f issueFields) model.Issue {
	return model.Issue{
		ID:        int64(f.DatabaseID),
		Number:    int(f.Number),
		Title:     string(f.Title),
		Author:    string(f.Author.Login),
		AuthorID:  int64(f.Author.User.DatabaseID),
		URL:       string(f.URL),
		RepoOwner: string(f.Repository.Owner.Login),
		RepoName:  string(f.Repository.Name),
		State:     strings.ToLower(string(f.State)),
		CreatedAt: f.CreatedAt.Time.UTC(),
		UpdatedAt: f.UpdatedAt.Time.UTC(),
		ClosedAt:  nullableTime(f.ClosedAt),
	}
}

func mapPullRequest(f pullRequestFields) model.Issue {
	issue := mapIssue(f.issueFields)
	issue.PullRequest = &model.PullRequestFields{
		IsDraft:  bool(f.IsDraft),
		MergedAt: nullableTime(f.MergedAt),
	}
	if f.ReviewDecision != nil {
		issue.PullRequest.ReviewDecision = strings.ToLower(string(*f.ReviewDecision))
	}
	return issue
}

func mapActor(a actorFields) model.User {
	return model.User{
		ID:    int64(a.User.DatabaseID),
		Login: string(a.Login),
	}
}

func nullableTime(dt *githubv4.DateTime) *time.Time {
	if dt == nil {
		return nil
	}
	t := dt.Time.UTC()
	return &t
}
