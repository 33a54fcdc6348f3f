package domain

// ChatMessage is the provider-agnostic chat message shape passed to LLM
// integrations by the generation pipeline.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
