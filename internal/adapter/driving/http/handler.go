package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"

	"github.com/ksuzuki/salesync/internal/application"
	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	jobs        driven.JobStore
	connections driven.ConnectionStore
	auth        driven.AuthClient
	syncSvc     *application.SyncService
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. auth may be nil
// when OAuth credentials are not configured; the OAuth endpoints then return
// 503.
func NewHandler(
	jobs driven.JobStore,
	connections driven.ConnectionStore,
	auth driven.AuthClient,
	syncSvc *application.SyncService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		jobs:        jobs,
		connections: connections,
		auth:        auth,
		syncSvc:     syncSvc,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/oauth/url", h.OAuthURL)
	mux.HandleFunc("POST /api/v1/oauth/callback", h.OAuthCallback)
	mux.HandleFunc("GET /api/v1/jobs", h.ListJobs)
	mux.HandleFunc("POST /api/v1/jobs", h.CreateJob)
	mux.HandleFunc("POST /api/v1/jobs/{user}/{object}/pause", h.PauseJob)
	mux.HandleFunc("POST /api/v1/jobs/{user}/{object}/resume", h.ResumeJob)
	mux.HandleFunc("POST /api/v1/jobs/{user}/{object}/run", h.RunJob)
	mux.HandleFunc("POST /api/v1/sweep", h.Sweep)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// OAuthURL returns the authorization URL the account owner must visit to
// grant access.
func (h *Handler) OAuthURL(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "oauth credentials not configured")
		return
	}

	var req OAuthURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RedirectURI == "" {
		writeError(w, http.StatusBadRequest, "redirect_uri is required")
		return
	}

	writeJSON(w, http.StatusOK, OAuthURLResponse{URL: h.auth.AuthorizeURL(req.RedirectURI)})
}

// OAuthCallback exchanges an authorization code for tokens and stores the
// resulting connection under the identity the token response reports.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "oauth credentials not configured")
		return
	}

	var req OAuthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.RedirectURI == "" {
		writeError(w, http.StatusBadRequest, "code and redirect_uri are required")
		return
	}

	conn, err := h.auth.ExchangeCode(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		h.logger.Error("oauth code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "authorization code exchange failed")
		return
	}

	if err := h.connections.Put(r.Context(), conn.Identity, conn); err != nil {
		h.logger.Error("failed to store connection", "user", conn.Identity, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, ConnectResponse{UserID: conn.Identity})
}

// ListJobs returns every registered importing job.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, toJobResponse(job))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateJob registers (or re-registers) an importing job for an account and
// object. The watermark starts at the requested start date.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.ObjectName == "" {
		writeError(w, http.StatusBadRequest, "user_id and object_name are required")
		return
	}

	startDate, err := civil.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date: expected YYYY-MM-DD")
		return
	}

	job := model.SyncJob{
		UserID:     req.UserID,
		ObjectName: req.ObjectName,
		StartDate:  startDate,
		LastDate:   startDate,
		Active:     true,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := h.jobs.Upsert(r.Context(), job); err != nil {
		h.logger.Error("failed to upsert job", "user", req.UserID, "object", req.ObjectName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toJobResponse(job))
}

// PauseJob deactivates a job so sweeps skip it.
func (h *Handler) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.setJobActive(w, r, false)
}

// ResumeJob reactivates a paused job.
func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.setJobActive(w, r, true)
}

func (h *Handler) setJobActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID := r.PathValue("user")
	objectName := r.PathValue("object")

	if err := h.jobs.SetActive(r.Context(), userID, objectName, active); err != nil {
		if isNotFoundErr(err) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("failed to update job", "user", userID, "object", objectName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	job, err := h.jobs.Find(r.Context(), userID, objectName)
	if err != nil || job == nil {
		h.logger.Error("failed to reload job", "user", userID, "object", objectName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(*job))
}

// RunJob triggers an on-demand sync for a single job, paused or not, and
// returns its outcome.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	objectName := r.PathValue("object")

	outcome := h.syncSvc.RunOnce(r.Context(), userID, objectName)

	writeJSON(w, statusForOutcome(outcome), toOutcomeResponse(outcome))
}

// Sweep triggers an immediate sweep of all due jobs and returns their
// outcomes.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.syncSvc.TriggerSweep(r.Context())
	if err != nil {
		h.logger.Error("sweep trigger failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]OutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		resp = append(resp, toOutcomeResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
