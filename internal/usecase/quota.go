package usecase

import (
	"context"
	"errors"
	"strings"
)

const (
	// MaxSubmissionsPerEmail is the fixed submission ceiling for a
	// (form, email) pair. Part of the public contract.
	MaxSubmissionsPerEmail = 5

	// DefaultExemptEmail is the designated unmetered test address. It always
	// reports zero usage; an escape hatch for demo/QA traffic, not a
	// security boundary.
	DefaultExemptEmail = "test@example.com"
)

// LeadCounter counts existing leads for an exact (form, email) pair.
type LeadCounter interface {
	CountLeads(ctx context.Context, formID, email string) (int, error)
}

// QuotaService answers how many submissions a (form, email) pair has left.
type QuotaService struct {
	leads  LeadCounter
	exempt map[string]struct{}
}

type QuotaInput struct {
	FormID string
	Email  string
}

type QuotaReport struct {
	UsageCount      int
	RemainingCount  int
	MaxCount        int
	HasReachedLimit bool
}

// NewQuotaService creates a QuotaService. A nil exemptEmails slice selects
// the default exempt list; an empty non-nil slice disables the bypass.
func NewQuotaService(leads LeadCounter, exemptEmails []string) (*QuotaService, error) {
	if leads == nil {
		return nil, errors.New("usecase: lead counter must not be nil")
	}
	if exemptEmails == nil {
		exemptEmails = []string{DefaultExemptEmail}
	}
	exempt := make(map[string]struct{}, len(exemptEmails))
	for _, e := range exemptEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			exempt[e] = struct{}{}
		}
	}
	return &QuotaService{leads: leads, exempt: exempt}, nil
}

// Check reports usage for the given (form, email) pair against the fixed
// ceiling. The count and any later lead insertion are not transactional;
// concurrent submissions can both pass the check.
func (s *QuotaService) Check(ctx context.Context, in QuotaInput) (QuotaReport, error) {
	formID := strings.TrimSpace(in.FormID)
	email := strings.TrimSpace(in.Email)
	if formID == "" {
		return QuotaReport{}, newError(ErrorInvalidInput, "missing_form_id", nil)
	}
	if email == "" {
		return QuotaReport{}, newError(ErrorInvalidInput, "missing_email", nil)
	}

	if _, ok := s.exempt[strings.ToLower(email)]; ok {
		return QuotaReport{
			UsageCount:      0,
			RemainingCount:  MaxSubmissionsPerEmail,
			MaxCount:        MaxSubmissionsPerEmail,
			HasReachedLimit: false,
		}, nil
	}

	usage, err := s.leads.CountLeads(ctx, formID, email)
	if err != nil {
		return QuotaReport{}, newError(ErrorInternal, "lead_count_error", err)
	}

	remaining := MaxSubmissionsPerEmail - usage
	if remaining < 0 {
		remaining = 0
	}
	return QuotaReport{
		UsageCount:      usage,
		RemainingCount:  remaining,
		MaxCount:        MaxSubmissionsPerEmail,
		HasReachedLimit: usage >= MaxSubmissionsPerEmail,
	}, nil
}
