// Package httphandler is the HTTP driving adapter that serves the local REST
// API consumed by the GUI.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/feldrim/ghdesk/internal/adapter/driven/bus"
	"github.com/feldrim/ghdesk/internal/application"
	"github.com/feldrim/ghdesk/internal/domain/model"
	"github.com/feldrim/ghdesk/internal/domain/port/driven"
)

// initialRefreshTimeout bounds the background populate that follows token-set
// and track. It is detached from the request context on purpose: the GUI gets
// its response immediately and learns about the data via events.
const initialRefreshTimeout = 2 * time.Minute

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	credSvc  *application.CredentialService
	userSvc  *application.UserService
	issueSvc *application.IssueService
	pollSvc  *application.PollService
	settings driven.SettingsStore
	broker   *bus.Broker
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	credSvc *application.CredentialService,
	userSvc *application.UserService,
	issueSvc *application.IssueService,
	pollSvc *application.PollService,
	settings driven.SettingsStore,
	broker *bus.Broker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		credSvc:  credSvc,
		userSvc:  userSvc,
		issueSvc: issueSvc,
		pollSvc:  pollSvc,
		settings: settings,
		broker:   broker,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/token", h.SetToken)
	mux.HandleFunc("GET /api/v1/token", h.TokenStatus)
	mux.HandleFunc("GET /api/v1/user", h.MainUser)
	mux.HandleFunc("GET /api/v1/users", h.ListUsers)
	mux.HandleFunc("POST /api/v1/users", h.TrackUser)
	mux.HandleFunc("GET /api/v1/users/{login}/exists", h.UserExists)
	mux.HandleFunc("GET /api/v1/users/{login}/authored", h.AuthoredFeed)
	mux.HandleFunc("GET /api/v1/users/{login}/involved", h.InvolvedFeed)
	mux.HandleFunc("POST /api/v1/users/{login}/refresh", h.RefreshUser)
	mux.HandleFunc("GET /api/v1/pulls/{id}", h.PullRequestDetail)
	mux.HandleFunc("POST /api/v1/issues/viewed", h.MarkViewed)
	mux.HandleFunc("POST /api/v1/issues/archive", h.ArchiveIssues)
	mux.HandleFunc("GET /api/v1/settings/{key}", h.GetSetting)
	mux.HandleFunc("PUT /api/v1/settings/{key}", h.PutSetting)
	mux.HandleFunc("GET /api/v1/events", h.Events)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// SetToken verifies and stores a new API token, then kicks off an initial
// refresh for its owner in the background.
func (h *Handler) SetToken(w http.ResponseWriter, r *http.Request) {
	var req SetTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner, err := h.credSvc.SetToken(r.Context(), req.Token)
	if err != nil {
		h.writeDomainError(w, "set token", err)
		return
	}

	h.refreshAsync(*owner)

	writeJSON(w, http.StatusOK, toUserResponse(*owner))
}

// TokenStatus reports whether a usable token is stored.
func (h *Handler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.credSvc.Status(r.Context())
	if err != nil {
		h.writeDomainError(w, "token status", err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// MainUser returns the user owning the active token.
func (h *Handler) MainUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.MainUser(r.Context())
	if err != nil {
		h.writeDomainError(w, "get main user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// ListUsers returns all tracked users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.ListTracked(r.Context())
	if err != nil {
		h.writeDomainError(w, "list users", err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}

	writeJSON(w, http.StatusOK, resp)
}

// TrackUser adds a GitHub user to the tracked set and kicks off their initial
// refresh in the background.
func (h *Handler) TrackUser(w http.ResponseWriter, r *http.Request) {
	var req TrackUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userSvc.Track(r.Context(), req.Login)
	if err != nil {
		h.writeDomainError(w, "track user", err)
		return
	}

	h.refreshAsync(*user)

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

// UserExists checks a login against the live API.
func (h *Handler) UserExists(w http.ResponseWriter, r *http.Request) {
	login := r.PathValue("login")

	exists, err := h.userSvc.Exists(r.Context(), login)
	if err != nil {
		h.writeDomainError(w, "check user", err)
		return
	}

	writeJSON(w, http.StatusOK, ExistsResponse{Login: login, Exists: exists})
}

// AuthoredFeed returns the cached authored feed for a login.
func (h *Handler) AuthoredFeed(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueSvc.Authored(r.Context(), r.PathValue("login"))
	if err != nil {
		h.writeDomainError(w, "authored feed", err)
		return
	}

	writeJSON(w, http.StatusOK, toIssueResponses(issues))
}

// InvolvedFeed returns the cached involvement feed for a login.
func (h *Handler) InvolvedFeed(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueSvc.Involved(r.Context(), r.PathValue("login"))
	if err != nil {
		h.writeDomainError(w, "involved feed", err)
		return
	}

	writeJSON(w, http.StatusOK, toIssueResponses(issues))
}

// RefreshUser triggers an immediate foreground refresh for a tracked user and
// waits for it to finish.
func (h *Handler) RefreshUser(w http.ResponseWriter, r *http.Request) {
	login := r.PathValue("login")

	user, err := h.userSvc.Get(r.Context(), login)
	if err != nil {
		h.writeDomainError(w, "refresh user", err)
		return
	}

	if err := h.pollSvc.RefreshNow(r.Context(), *user); err != nil {
		h.writeDomainError(w, "refresh user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PullRequestDetail returns the live deep view of a cached pull request.
func (h *Handler) PullRequestDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pull request id")
		return
	}

	detail, err := h.issueSvc.PullRequestDetail(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "pull request detail", err)
		return
	}

	writeJSON(w, http.StatusOK, toDetailResponse(*detail))
}

// MarkViewed stamps a batch of issues as viewed.
func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	var req IssueIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.issueSvc.MarkViewed(r.Context(), req.IDs); err != nil {
		h.writeDomainError(w, "mark viewed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ArchiveIssues hides a batch of issues from the feeds.
func (h *Handler) ArchiveIssues(w http.ResponseWriter, r *http.Request) {
	var req IssueIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.issueSvc.Archive(r.Context(), req.IDs); err != nil {
		h.writeDomainError(w, "archive issues", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSetting returns a stored GUI setting, empty string when unset.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, err := h.settings.Get(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, "get setting", err)
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

// PutSetting stores a GUI setting.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req SettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settings.Set(r.Context(), r.PathValue("key"), req.Value); err != nil {
		h.writeDomainError(w, "put setting", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// refreshAsync populates a user's feed in the background so the request that
// added them returns immediately.
func (h *Handler) refreshAsync(user model.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), initialRefreshTimeout)
		defer cancel()

		if err := h.pollSvc.RefreshNow(ctx, user); err != nil {
			h.logger.Error("background refresh failed", "login", user.Login, "error", err)
		}
	}()
}

// writeDomainError maps domain sentinel errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, driven.ErrUserNotFound),
		errors.Is(err, driven.ErrPullRequestNotFound),
		errors.Is(err, driven.ErrRepositoryNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, driven.ErrCredentialMissing):
		writeError(w, http.StatusUnauthorized, "no token configured")
	case errors.Is(err, driven.ErrCredentialInvalid):
		writeError(w, http.StatusUnauthorized, "token rejected")
	case errors.Is(err, driven.ErrTransient):
		writeError(w, http.StatusBadGateway, "upstream unavailable")
	default:
		h.logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
