package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadgen-agent/internal/domain"
)

// FormGetter loads a form and increments its cached lead counter.
type FormGetter interface {
	GetForm(ctx context.Context, formID string) (domain.Form, bool, error)
	IncrementLeadCount(ctx context.Context, formID string) error
}

// LeadCreator persists a new pending lead.
type LeadCreator interface {
	CreateLead(ctx context.Context, lead domain.Lead) error
}

// QuotaChecker is satisfied by *QuotaService.
type QuotaChecker interface {
	Check(ctx context.Context, in QuotaInput) (QuotaReport, error)
}

// SubmitService creates pending leads for active forms, enforcing the
// per-email quota and the form's lead limit. The checks and the insert are
// not transactional; the ceilings are advisory under concurrent submissions.
type SubmitService struct {
	forms FormGetter
	leads LeadCreator
	quota QuotaChecker
}

type SubmitInput struct {
	FormID        string
	Email         string
	URL           string
	ApartmentSize int
}

type SubmitOutput struct {
	LeadID string
}

func NewSubmitService(forms FormGetter, leads LeadCreator, quota QuotaChecker) (*SubmitService, error) {
	if forms == nil {
		return nil, errors.New("usecase: form store must not be nil")
	}
	if leads == nil {
		return nil, errors.New("usecase: lead store must not be nil")
	}
	if quota == nil {
		return nil, errors.New("usecase: quota checker must not be nil")
	}
	return &SubmitService{forms: forms, leads: leads, quota: quota}, nil
}

func (s *SubmitService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	formID := strings.TrimSpace(in.FormID)
	email := strings.TrimSpace(in.Email)
	url := strings.TrimSpace(in.URL)
	if formID == "" {
		return SubmitOutput{}, newError(ErrorInvalidInput, "missing_form_id", nil)
	}
	if email == "" {
		return SubmitOutput{}, newError(ErrorInvalidInput, "missing_email", nil)
	}
	if url == "" {
		return SubmitOutput{}, newError(ErrorInvalidInput, "missing_url", nil)
	}

	form, ok, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		return SubmitOutput{}, newError(ErrorInternal, "form_read_error", err)
	}
	if !ok {
		return SubmitOutput{}, newError(ErrorInvalidInput, "unknown_form", nil)
	}
	if !form.Active {
		return SubmitOutput{}, newError(ErrorInvalidInput, "form_inactive", nil)
	}
	if form.LeadLimit > 0 && form.LeadCount >= form.LeadLimit {
		return SubmitOutput{}, newError(ErrorFormLimit, "lead_limit_reached", nil)
	}

	report, err := s.quota.Check(ctx, QuotaInput{FormID: formID, Email: email})
	if err != nil {
		return SubmitOutput{}, err
	}
	if report.HasReachedLimit {
		return SubmitOutput{}, newError(ErrorQuotaExceeded, "submission_quota_reached", nil)
	}

	lead := domain.Lead{
		ID:            newUUID(),
		FormID:        formID,
		Email:         email,
		URL:           url,
		ApartmentSize: in.ApartmentSize,
		Status:        domain.LeadStatusPending,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.leads.CreateLead(ctx, lead); err != nil {
		return SubmitOutput{}, newError(ErrorInternal, "lead_create_error", err)
	}
	if err := s.forms.IncrementLeadCount(ctx, formID); err != nil {
		return SubmitOutput{}, newError(ErrorInternal, "form_count_error", err)
	}

	return SubmitOutput{LeadID: lead.ID}, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
