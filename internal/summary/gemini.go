// Package summary generates short study-session summaries with Gemini.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxFileChars caps how much of an attached file rides in the prompt.
const maxFileChars = 5000

const fallbackSummary = "Summary unavailable right now. Your study session was still logged."

type Service struct {
	client *genai.Client
	model  string
}

func NewService(ctx context.Context, apiKey, model string) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %v", err)
	}

	return &Service{client: client, model: model}, nil
}

// Summarize produces a short digest of a study session. Generation
// failures fall back to a canned line, a missing summary never blocks
// the log itself.
func (s *Service) Summarize(ctx context.Context, topic string, hours float64, fileText string) string {
	model := s.client.GenerativeModel(s.model)
	temp := float32(0.4)
	model.Temperature = &temp
	maxTokens := int32(250)
	model.MaxOutputTokens = &maxTokens

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(topic, hours, fileText)))
	if err != nil {
		log.Printf("Gemini: generation failed for topic %q: %v", topic, err)
		return fallbackSummary
	}

	text := extractText(resp)
	if text == "" {
		log.Printf("Gemini: empty response for topic %q", topic)
		return fallbackSummary
	}
	return text
}

func (s *Service) Close() error {
	return s.client.Close()
}

func buildPrompt(topic string, hours float64, fileText string) string {
	var b strings.Builder
	b.WriteString("Summarize this study session in 2-3 sentences for a study group feed.\n")
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Hours studied: %.1f\n", hours)
	if fileText != "" {
		b.WriteString("Notes from the attached file:\n")
		b.WriteString(TruncateFileText(fileText))
		b.WriteString("\n")
	}
	b.WriteString("Keep it encouraging and concrete about what was covered.")
	return b.String()
}

// TruncateFileText trims extracted file text to the prompt budget.
func TruncateFileText(text string) string {
	if len(text) <= maxFileChars {
		return text
	}
	return text[:maxFileChars] + "\n[truncated]"
}

// IsTextExtractable reports whether a file's content can be inlined
// into the prompt. Only plain-text formats qualify, binary formats are
// logged without a content digest.
func IsTextExtractable(mimeType, filename string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	for _, ext := range []string{".txt", ".md", ".csv", ".json", ".xml", ".yaml", ".yml", ".log"} {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return true
		}
	}
	return false
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
