// Package handler translates API Gateway proxy events into usecase calls
// and maps usecase errors onto HTTP statuses. Upstream error detail is
// logged here and never included in a response body.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"leadgen-agent/internal/domain"
	"leadgen-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type QuotaChecker interface {
	Check(ctx context.Context, in usecase.QuotaInput) (usecase.QuotaReport, error)
}

type Submitter interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

type Generator interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (usecase.GenerateResult, error)
}

type UserLister interface {
	ListUsers(ctx context.Context, callerID string) (usecase.ListUsersOutput, error)
}

type LeadFetcher interface {
	Get(ctx context.Context, leadID string) (domain.Lead, error)
}

// Handler routes API Gateway events to the quota, submission, generation and
// admin services.
type Handler struct {
	quota     QuotaChecker
	submitter Submitter
	generator Generator
	admin     UserLister
	leads     LeadFetcher
}

func NewHandler(quota QuotaChecker, submitter Submitter, generator Generator, admin UserLister, leads LeadFetcher) (*Handler, error) {
	if quota == nil {
		return nil, errors.New("handler: quota checker must not be nil")
	}
	if submitter == nil {
		return nil, errors.New("handler: submitter must not be nil")
	}
	if generator == nil {
		return nil, errors.New("handler: generator must not be nil")
	}
	if admin == nil {
		return nil, errors.New("handler: user lister must not be nil")
	}
	if leads == nil {
		return nil, errors.New("handler: lead fetcher must not be nil")
	}
	return &Handler{quota: quota, submitter: submitter, generator: generator, admin: admin, leads: leads}, nil
}

type quotaResponse struct {
	UsageCount      int  `json:"usageCount"`
	RemainingCount  int  `json:"remainingCount"`
	MaxCount        int  `json:"maxCount"`
	HasReachedLimit bool `json:"hasReachedLimit"`
}

type submitRequest struct {
	FormID        string `json:"formId"`
	Email         string `json:"email"`
	URL           string `json:"url"`
	ApartmentSize int    `json:"apartmentSize"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
}

type generateRequest struct {
	URL           string `json:"url"`
	LeadID        string `json:"leadId"`
	ApartmentSize int    `json:"apartmentSize"`
}

type generateResponse struct {
	Success bool          `json:"success"`
	Result  resultPayload `json:"result"`
}

type resultPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type leadResponse struct {
	ID            string        `json:"id"`
	FormID        string        `json:"formId"`
	Email         string        `json:"email"`
	URL           string        `json:"url"`
	ApartmentSize int           `json:"apartmentSize"`
	Status        string        `json:"status"`
	CreatedAt     string        `json:"createdAt"`
	Result        resultPayload `json:"result"`
}

type usersResponse struct {
	Users []userStatsPayload `json:"users"`
}

type userStatsPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	FormCount int    `json:"formCount"`
	LeadCount int    `json:"leadCount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handle routes a single API Gateway proxy event. It never returns a non-nil
// error; failures become JSON error responses.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)

	switch {
	case req.HTTPMethod == http.MethodGet && req.Path == "/usage":
		return h.handleQuota(ctx, req, corrID), nil
	case req.HTTPMethod == http.MethodPost && req.Path == "/leads":
		return h.handleSubmit(ctx, req, corrID), nil
	case req.HTTPMethod == http.MethodGet && strings.HasPrefix(req.Path, "/leads/"):
		return h.handleGetLead(ctx, strings.TrimPrefix(req.Path, "/leads/"), corrID), nil
	case req.HTTPMethod == http.MethodPost && req.Path == "/generate":
		return h.handleGenerate(ctx, req, corrID), nil
	case req.HTTPMethod == http.MethodPost && req.Path == "/admin/users":
		return h.handleListUsers(ctx, req, corrID), nil
	default:
		return respond(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"}, corrID), nil
	}
}

func (h *Handler) handleQuota(ctx context.Context, req events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	report, err := h.quota.Check(ctx, usecase.QuotaInput{
		FormID: req.QueryStringParameters["formId"],
		Email:  req.QueryStringParameters["email"],
	})
	if err != nil {
		return errorRespond(err, corrID)
	}
	return respond(http.StatusOK, quotaResponse{
		UsageCount:      report.UsageCount,
		RemainingCount:  report.RemainingCount,
		MaxCount:        report.MaxCount,
		HasReachedLimit: report.HasReachedLimit,
	}, corrID)
}

func (h *Handler) handleSubmit(ctx context.Context, req events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var body submitRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, corrID)
	}
	out, err := h.submitter.Submit(ctx, usecase.SubmitInput{
		FormID:        body.FormID,
		Email:         body.Email,
		URL:           body.URL,
		ApartmentSize: body.ApartmentSize,
	})
	if err != nil {
		return errorRespond(err, corrID)
	}
	return respond(http.StatusOK, submitResponse{Success: true, LeadID: out.LeadID}, corrID)
}

func (h *Handler) handleGetLead(ctx context.Context, leadID, corrID string) events.APIGatewayProxyResponse {
	lead, err := h.leads.Get(ctx, leadID)
	if err != nil {
		return errorRespond(err, corrID)
	}
	return respond(http.StatusOK, leadView(lead), corrID)
}

func leadView(lead domain.Lead) leadResponse {
	return leadResponse{
		ID:            lead.ID,
		FormID:        lead.FormID,
		Email:         lead.Email,
		URL:           lead.URL,
		ApartmentSize: lead.ApartmentSize,
		Status:        lead.Status,
		CreatedAt:     lead.CreatedAt,
		Result:        resultPayload{Type: lead.ResultType, Text: lead.ResultText},
	}
}

func (h *Handler) handleGenerate(ctx context.Context, req events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var body generateRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, corrID)
	}
	result, err := h.generator.Generate(ctx, usecase.GenerateInput{
		URL:           body.URL,
		LeadID:        body.LeadID,
		ApartmentSize: body.ApartmentSize,
	})
	if err != nil {
		return errorRespond(err, corrID)
	}
	return respond(http.StatusOK, generateResponse{
		Success: true,
		Result:  resultPayload{Type: result.Type, Text: result.Text},
	}, corrID)
}

func (h *Handler) handleListUsers(ctx context.Context, req events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	out, err := h.admin.ListUsers(ctx, callerIdentity(req))
	if err != nil {
		return errorRespond(err, corrID)
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
	return respond(http.StatusOK, usersResponse{Users: users}, corrID)
}

// callerIdentity extracts the authenticated subject set by the API Gateway
// authorizer. Authentication itself is delegated to the hosted auth layer.
func callerIdentity(req events.APIGatewayProxyRequest) string {
	auth := req.RequestContext.Authorizer
	if auth == nil {
		return ""
	}
	if claims, ok := auth["claims"].(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok {
			return sub
		}
	}
	if sub, ok := auth["principalId"].(string); ok {
		return sub
	}
	return ""
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func respond(status int, payload any, corrID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal response", "err", err, "correlation_id", corrID)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(body),
	}
}

// errorRespond maps a usecase error to a status and a generic error body.
// The wrapped detail is logged and stays server-side.
func errorRespond(err error, corrID string) events.APIGatewayProxyResponse {
	code := usecase.ErrorInternal
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		code = ucErr.Code
	}
	status := statusForCode(code)
	if status >= 500 {
		slog.Error("request failed", "code", code, "err", err, "correlation_id", corrID)
	} else {
		slog.Warn("request rejected", "code", code, "err", err, "correlation_id", corrID)
	}
	return respond(status, errorResponse{Error: string(code)}, corrID)
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorNotAuthenticated:
		return http.StatusUnauthorized
	case usecase.ErrorAccessDenied:
		return http.StatusForbidden
	case usecase.ErrorQuotaExceeded, usecase.ErrorFormLimit:
		return http.StatusConflict
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
