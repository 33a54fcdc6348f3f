package usecase

import (
	"fmt"
	"strings"

	"leadgen-agent/internal/domain"
)

// Content-store keys read by the generation pipeline, with their documented
// fallbacks when the key is absent.
const (
	contentKeySystemPrompt = "system_prompt"
	contentKeyResultFormat = "result_format"

	defaultSystemPrompt = "Analyze this URL and describe a personalized offer for the visitor."
	defaultResultFormat = "text"
)

func buildGenerationMessages(systemPrompt, url string, apartmentSize int) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: normalizePromptInput(systemPrompt)},
		{Role: "user", Content: buildLeadContext(url, apartmentSize)},
	}
}

func buildLeadContext(url string, apartmentSize int) string {
	lines := []string{
		"Website URL: " + strings.TrimSpace(url),
	}
	if apartmentSize > 0 {
		lines = append(lines, fmt.Sprintf("Apartment size: %d m2", apartmentSize))
	}
	lines = append(lines, "", "Write the personalized result for this visitor now.")
	return strings.Join(lines, "\n")
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
