package httphandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ksuzuki/salesync/internal/domain/model"
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

// OAuthURLRequest is the JSON body for the authorization URL endpoint.
type OAuthURLRequest struct {
	RedirectURI string `json:"redirect_uri"`
}

// OAuthURLResponse carries the authorization URL the account owner must visit.
type OAuthURLResponse struct {
	URL string `json:"url"`
}

// OAuthCallbackRequest is the JSON body for the OAuth callback endpoint.
type OAuthCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// ConnectResponse reports the identity a freshly stored connection belongs to.
type ConnectResponse struct {
	UserID string `json:"user_id"`
}

// CreateJobRequest is the JSON body for the create job endpoint.
type CreateJobRequest struct {
	UserID     string `json:"user_id"`
	ObjectName string `json:"object_name"`
	StartDate  string `json:"start_date"`
}

// JobResponse is the JSON representation of an importing job.
type JobResponse struct {
	UserID     string `json:"user_id"`
	ObjectName string `json:"object_name"`
	StartDate  string `json:"start_date"`
	LastDate   string `json:"last_date"`
	Active     bool   `json:"active"`
	UpdatedAt  string `json:"updated_at"`
}

// OutcomeResponse is the JSON representation of a single sync run's result.
type OutcomeResponse struct {
	UserID      string `json:"user_id"`
	ObjectName  string `json:"object_name"`
	Status      string `json:"status"`
	Kind        string `json:"kind,omitempty"`
	Detail      string `json:"detail,omitempty"`
	WindowFrom  string `json:"window_from,omitempty"`
	WindowTo    string `json:"window_to,omitempty"`
	RecordCount int    `json:"record_count"`
	LoadID      string `json:"load_id,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toJobResponse converts a domain SyncJob to its JSON response representation.
func toJobResponse(job model.SyncJob) JobResponse {
	return JobResponse{
		UserID:     job.UserID,
		ObjectName: job.ObjectName,
		StartDate:  job.StartDate.String(),
		LastDate:   job.LastDate.String(),
		Active:     job.Active,
		UpdatedAt:  job.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toOutcomeResponse converts a domain RunOutcome to its JSON representation.
func toOutcomeResponse(o model.RunOutcome) OutcomeResponse {
	resp := OutcomeResponse{
		UserID:      o.UserID,
		ObjectName:  o.ObjectName,
		Status:      o.Status,
		Kind:        string(o.Kind),
		Detail:      o.Detail,
		RecordCount: o.RecordCount,
		LoadID:      o.LoadID,
	}
	if !o.Window.IsEmpty() {
		resp.WindowFrom = o.Window.From.String()
		resp.WindowTo = o.Window.To.String()
	}
	return resp
}

// statusForOutcome maps a run outcome to an HTTP status code. Successful runs
// are 200; failures map by error kind.
func statusForOutcome(o model.RunOutcome) int {
	if o.Status == model.RunStatusOK {
		return http.StatusOK
	}

	switch o.Kind {
	case model.ErrKindNoUserConnection, model.ErrKindNoImportingJob, model.ErrKindObjectNotFound:
		return http.StatusNotFound
	case model.ErrKindJobPaused:
		return http.StatusConflict
	case model.ErrKindSourceUnavailable, model.ErrKindLoadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// isNotFoundErr reports whether a store error indicates a missing row.
func isNotFoundErr(err error) bool {
	return strings.Contains(err.Error(), "not found")
}
