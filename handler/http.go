package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"leadgen-agent/internal/usecase"
)

// identityHeader carries the authenticated user id in the standalone serving
// mode. A fronting auth proxy is expected to set it; the application itself
// performs no authentication.
const identityHeader = "X-User-Id"

// Router returns a chi router serving the same routes and payloads as the
// Lambda handler over plain HTTP, for local and self-hosted runs.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/usage", h.httpQuota)
	r.Post("/leads", h.httpSubmit)
	r.Get("/leads/{leadId}", h.httpGetLead)
	r.Post("/generate", h.httpGenerate)
	r.Post("/admin/users", h.httpListUsers)
	return r
}

func (h *Handler) httpGetLead(w http.ResponseWriter, r *http.Request) {
	corrID := httpCorrelationID(r)
	lead, err := h.leads.Get(r.Context(), chi.URLParam(r, "leadId"))
	if err != nil {
		writeError(w, err, corrID)
		return
	}
	writeJSON(w, http.StatusOK, leadView(lead), corrID)
}

func (h *Handler) httpQuota(w http.ResponseWriter, r *http.Request) {
	corrID := httpCorrelationID(r)
	report, err := h.quota.Check(r.Context(), usecase.QuotaInput{
		FormID: r.URL.Query().Get("formId"),
		Email:  r.URL.Query().Get("email"),
	})
	if err != nil {
		writeError(w, err, corrID)
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		UsageCount:      report.UsageCount,
		RemainingCount:  report.RemainingCount,
		MaxCount:        report.MaxCount,
		HasReachedLimit: report.HasReachedLimit,
	}, corrID)
}

func (h *Handler) httpSubmit(w http.ResponseWriter, r *http.Request) {
	corrID := httpCorrelationID(r)
	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, corrID)
		return
	}
	out, err := h.submitter.Submit(r.Context(), usecase.SubmitInput{
		FormID:        body.FormID,
		Email:         body.Email,
		URL:           body.URL,
		ApartmentSize: body.ApartmentSize,
	})
	if err != nil {
		writeError(w, err, corrID)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, LeadID: out.LeadID}, corrID)
}

func (h *Handler) httpGenerate(w http.ResponseWriter, r *http.Request) {
	corrID := httpCorrelationID(r)
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, corrID)
		return
	}
	result, err := h.generator.Generate(r.Context(), usecase.GenerateInput{
		URL:           body.URL,
		LeadID:        body.LeadID,
		ApartmentSize: body.ApartmentSize,
	})
	if err != nil {
		writeError(w, err, corrID)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Success: true,
		Result:  resultPayload{Type: result.Type, Text: result.Text},
	}, corrID)
}

func (h *Handler) httpListUsers(w http.ResponseWriter, r *http.Request) {
	corrID := httpCorrelationID(r)
	out, err := h.admin.ListUsers(r.Context(), r.Header.Get(identityHeader))
	if err != nil {
		writeError(w, err, corrID)
		return
	}
	users := make([]userStatsPayload, 0, len(out.Users))
	for _, u := range out.Users {
		users = append(users, userStatsPayload{
			ID:        u.ID,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			FormCount: u.FormCount,
			LeadCount: u.LeadCount,
		})
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users}, corrID)
}

func httpCorrelationID(r *http.Request) string {
	if v := r.Header.Get(correlationHeader); v != "" {
		return v
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, payload any, corrID string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(correlationHeader, corrID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "err", err, "correlation_id", corrID)
	}
}

func writeError(w http.ResponseWriter, err error, corrID string) {
	resp := errorRespond(err, corrID)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(correlationHeader, corrID)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}
