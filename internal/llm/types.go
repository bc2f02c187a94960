package llm

import "context"

// SystemPersona is the system message sent with every summarization request
const SystemPersona = "You are a helpful meeting assistant."

// Completer generates text for a single user prompt
type Completer interface {
	// Complete sends prompt to model and returns the generated text
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request payload for the chat completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse is the subset of the chat completions response that is read.
// Content is a pointer so a missing or null field can be told apart from "".
type ChatResponse struct {
	Choices []struct {
		Message *struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// content returns the first choice's text, or false when it is absent
func (r *ChatResponse) content() (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	msg := r.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", false
	}
	return *msg.Content, true
}
