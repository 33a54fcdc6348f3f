package usecase

import (
	"context"
	"errors"
	"strings"

	"leadgen-agent/internal/domain"
)

// ContentGetter reads a configuration value from the content store. The
// second return reports whether the key exists; absence is not an error.
type ContentGetter interface {
	GetContent(ctx context.Context, key string) (string, bool, error)
}

// LLMClient invokes the external text-generation model.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// LeadResultWriter attaches a generated result to a lead and flips its
// status to processed. Single update-by-id, no concurrency check.
type LeadResultWriter interface {
	UpdateLeadResult(ctx context.Context, leadID, resultText, resultType string, apartmentSize int) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// GenerateService turns a submitted URL into a stored, formatted result.
type GenerateService struct {
	content ContentGetter
	llm     LLMClient
	leads   LeadResultWriter
	model   string
}

type GenerateInput struct {
	URL           string
	LeadID        string
	ApartmentSize int
}

type GenerateResult struct {
	Type string
	Text string
}

func NewGenerateService(content ContentGetter, llm LLMClient, leads LeadResultWriter, model string) (*GenerateService, error) {
	if content == nil {
		return nil, errors.New("usecase: content getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if leads == nil {
		return nil, errors.New("usecase: lead writer must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	return &GenerateService{content: content, llm: llm, leads: leads, model: model}, nil
}

// Generate reads generation config, invokes the model, and persists the
// result onto the lead. The update is last, so an earlier failure leaves the
// lead unchanged; there is no retry and no rollback of successful sub-steps.
func (s *GenerateService) Generate(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	url := strings.TrimSpace(in.URL)
	leadID := strings.TrimSpace(in.LeadID)
	if url == "" {
		return GenerateResult{}, newError(ErrorInvalidInput, "missing_url", nil)
	}
	if leadID == "" {
		return GenerateResult{}, newError(ErrorInvalidInput, "missing_lead_id", nil)
	}

	systemPrompt, err := s.contentValue(ctx, contentKeySystemPrompt, defaultSystemPrompt)
	if err != nil {
		return GenerateResult{}, newError(ErrorInternal, "content_read_error", err)
	}
	resultFormat, err := s.contentValue(ctx, contentKeyResultFormat, defaultResultFormat)
	if err != nil {
		return GenerateResult{}, newError(ErrorInternal, "content_read_error", err)
	}

	raw, err := s.llm.Chat(ctx, s.model, buildGenerationMessages(systemPrompt, url, in.ApartmentSize))
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return GenerateResult{}, newError(ErrorRateLimited, "model_rate_limited", err)
		}
		return GenerateResult{}, newError(ErrorUpstream, "model_error", err)
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return GenerateResult{}, newError(ErrorUpstream, "model_empty_response", nil)
	}

	if err := s.leads.UpdateLeadResult(ctx, leadID, text, resultFormat, in.ApartmentSize); err != nil {
		return GenerateResult{}, newError(ErrorInternal, "lead_update_error", err)
	}

	return GenerateResult{Type: resultFormat, Text: text}, nil
}

func (s *GenerateService) contentValue(ctx context.Context, key, fallback string) (string, error) {
	v, ok, err := s.content.GetContent(ctx, key)
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return fallback, nil
	}
	return v, nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
