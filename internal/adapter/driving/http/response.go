package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/feldrim/ghdesk/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SetTokenRequest is the JSON body for the set token endpoint.
type SetTokenRequest struct {
	Token string `json:"token"`
}

// TrackUserRequest is the JSON body for the track user endpoint.
type TrackUserRequest struct {
	Login string `json:"login"`
}

// IssueIDsRequest is the JSON body for the batch viewed/archive endpoints.
type IssueIDsRequest struct {
	IDs []int64 `json:"ids"`
}

// SettingRequest is the JSON body for the put setting endpoint.
type SettingRequest struct {
	Value string `json:"value"`
}

// UserResponse is the JSON representation of a tracked user.
type UserResponse struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// ExistsResponse is the JSON representation of a live login check.
type ExistsResponse struct {
	Login  string `json:"login"`
	Exists bool   `json:"exists"`
}

// SettingResponse is the JSON representation of one stored setting.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// IssueResponse is the JSON representation of a cached issue or pull request.
type IssueResponse struct {
	ID        int64  `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	URL       string `json:"url"`
	RepoOwner string `json:"repo_owner"`
	RepoName  string `json:"repo_name"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	ClosedAt  string `json:"closed_at,omitempty"`

	LastViewed string `json:"last_viewed,omitempty"`
	ArchivedAt string `json:"archived_at,omitempty"`

	// Unseen reports whether the issue changed upstream since it was last
	// viewed locally.
	Unseen bool `json:"unseen"`

	PullRequest *PullRequestResponse `json:"pull_request,omitempty"`
}

// PullRequestResponse is the pull request extension of an IssueResponse.
type PullRequestResponse struct {
	IsDraft        bool   `json:"is_draft"`
	ReviewDecision string `json:"review_decision,omitempty"`
	MergedAt       string `json:"merged_at,omitempty"`
}

// DetailResponse is the JSON representation of a pull request deep view.
type DetailResponse struct {
	Number        int                `json:"number"`
	Title         string             `json:"title"`
	BodyHTML      string             `json:"body_html"`
	Author        UserResponse       `json:"author"`
	RepoOwner     string             `json:"repo_owner"`
	RepoName      string             `json:"repo_name"`
	URL           string             `json:"url"`
	State         string             `json:"state"`
	IsDraft       bool               `json:"is_draft"`
	Milestone     *MilestoneResponse `json:"milestone,omitempty"`
	Labels        []LabelResponse    `json:"labels"`
	TotalComments int                `json:"total_comments"`
	Participants  []UserResponse     `json:"participants"`
	Reviews       []ReviewResponse   `json:"reviews"`
}

// MilestoneResponse is a pull request's milestone.
type MilestoneResponse struct {
	Title string `json:"title"`
	State string `json:"state"`
	DueOn string `json:"due_on,omitempty"`
}

// LabelResponse is a repository label.
type LabelResponse struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ReviewResponse is a single review verdict.
type ReviewResponse struct {
	Author UserResponse `json:"author"`
	State  string       `json:"state"`
}

// toUserResponse converts a domain User to its JSON representation.
func toUserResponse(user model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Login:     user.Login,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
}

// toIssueResponse converts a domain Issue to its JSON representation.
func toIssueResponse(issue model.Issue) IssueResponse {
	resp := IssueResponse{
		ID:         issue.ID,
		Number:     issue.Number,
		Title:      issue.Title,
		Author:     issue.Author,
		URL:        issue.URL,
		RepoOwner:  issue.RepoOwner,
		RepoName:   issue.RepoName,
		State:      issue.State,
		CreatedAt:  issue.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  issue.UpdatedAt.UTC().Format(time.RFC3339),
		ClosedAt:   formatOptional(issue.ClosedAt),
		LastViewed: formatOptional(issue.LastViewed),
		ArchivedAt: formatOptional(issue.ArchivedAt),
		Unseen:     issue.LastViewed == nil || issue.UpdatedAt.After(*issue.LastViewed),
	}

	if pr := issue.PullRequest; pr != nil {
		resp.PullRequest = &PullRequestResponse{
			IsDraft:        pr.IsDraft,
			ReviewDecision: pr.ReviewDecision,
			MergedAt:       formatOptional(pr.MergedAt),
		}
	}

	return resp
}

func toIssueResponses(issues []model.Issue) []IssueResponse {
	resp := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		resp = append(resp, toIssueResponse(issue))
	}
	return resp
}

// toDetailResponse converts a domain PullRequestDetail to its JSON representation.
func toDetailResponse(detail model.PullRequestDetail) DetailResponse {
	resp := DetailResponse{
		Number:        detail.Number,
		Title:         detail.Title,
		BodyHTML:      detail.BodyHTML,
		Author:        toUserResponse(detail.Author),
		RepoOwner:     detail.RepoOwner,
		RepoName:      detail.RepoName,
		URL:           detail.URL,
		State:         detail.State,
		IsDraft:       detail.IsDraft,
		TotalComments: detail.TotalComments,
		Labels:        []LabelResponse{},
		Participants:  []UserResponse{},
		Reviews:       []ReviewResponse{},
	}

	if m := detail.Milestone; m != nil {
		resp.Milestone = &MilestoneResponse{
			Title: m.Title,
			State: m.State,
			DueOn: formatOptional(m.DueOn),
		}
	}

	for _, l := range detail.Labels {
		resp.Labels = append(resp.Labels, LabelResponse{Name: l.Name, Color: l.Color})
	}

	for _, p := range detail.Participants {
		resp.Participants = append(resp.Participants, toUserResponse(p))
	}

	for _, r := range detail.Reviews {
		resp.Reviews = append(resp.Reviews, ReviewResponse{
			Author: toUserResponse(r.Author),
			State:  r.State,
		})
	}

	return resp
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
