package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiSuggester implements ReplySuggester using Google's Gemini models.
type GeminiSuggester struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiSuggester initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiSuggester(ctx context.Context, apiKey string) (*GeminiSuggester, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps suggestion latency low; suggestions are decorative.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.6)

	return &GeminiSuggester{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (s *GeminiSuggester) Close() {
	s.client.Close()
}

const suggestPrompt = `Role: You suggest quick replies inside a ride-share trip chat between a driver and a passenger.
Rules:
- Propose at most 3 replies for the NEXT message, each under 12 words.
- Stay practical: pickup points, timing, luggage, seat details. No small talk padding.
- Reply strictly as JSON: {"suggestions": ["...", "..."]}

Conversation so far:
%s`

func (s *GeminiSuggester) SuggestReplies(ctx context.Context, history []string) ([]string, error) {
	if len(history) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(suggestPrompt, strings.Join(history, "\n"))
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	clean := cleanJSONString(responseText.String())
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, clean)
	}
	if len(parsed.Suggestions) > 3 {
		parsed.Suggestions = parsed.Suggestions[:3]
	}
	return parsed.Suggestions, nil
}

// cleanJSONString strips markdown code fences the model occasionally adds
// despite JSON response mode.
func cleanJSONString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
