package usecase

import (
	"context"
	"errors"
	"strings"

	"leadgen-agent/internal/domain"
	"leadgen-agent/internal/markdown"
)

// LeadGetter fetches a lead by id.
type LeadGetter interface {
	GetLead(ctx context.Context, leadID string) (domain.Lead, bool, error)
}

// LeadQueryService serves the lead flow's result view. Stored result text is
// markdown-stripped for display; the stored row keeps the raw model output.
type LeadQueryService struct {
	leads LeadGetter
}

func NewLeadQueryService(leads LeadGetter) (*LeadQueryService, error) {
	if leads == nil {
		return nil, errors.New("usecase: lead getter must not be nil")
	}
	return &LeadQueryService{leads: leads}, nil
}

func (s *LeadQueryService) Get(ctx context.Context, leadID string) (domain.Lead, error) {
	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return domain.Lead{}, newError(ErrorInvalidInput, "missing_lead_id", nil)
	}
	lead, ok, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, newError(ErrorInternal, "lead_read_error", err)
	}
	if !ok {
		return domain.Lead{}, newError(ErrorNotFound, "unknown_lead", nil)
	}
	lead.ResultText = markdown.Strip(lead.ResultText)
	return lead, nil
}
