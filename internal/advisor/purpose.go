package advisor

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DetectPurpose applies keyword heuristics before spending a completion call
// on purpose classification. Returns "" when the message is ambiguous.
func DetectPurpose(message string) Purpose {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return ""
	}
	if containsAny(m, []string{
		"first home", "first house", "first property", "first-time buyer",
		"first time buyer", "never owned", "our first place", "my first place",
	}) {
		return PurposeFirstHome
	}
	if containsAny(m, []string{
		"investment property", "investment loan", "rental property",
		"rent it out", "buy to let", "investor",
	}) {
		return PurposeInvestment
	}
	if containsAny(m, []string{
		"refinance", "refinancing", "switch my loan", "switch lenders",
		"better rate on my current", "remortgage",
	}) {
		return PurposeRefinance
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

const purposePrompt = `Analyze this message and determine if it indicates:
1. First home purchase
2. Investment property
3. Refinancing
4. Unknown/Other

Return only one of these exact terms: first_home, investment, refinance, unknown.
Message: %s`

// ClassifyPurpose asks the completion service for a single-shot purpose
// classification. The caller invokes this only while the purpose is unset.
func (e *Extractor) ClassifyPurpose(ctx context.Context, message string) (Purpose, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		MaxTokens:   10,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(purposePrompt, message)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("purpose classification failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("purpose classification returned no choices")
	}
	return parsePurpose(resp.Choices[0].Message.Content), nil
}

func parsePurpose(raw string) Purpose {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "first_home"), strings.Contains(s, "first home"):
		return PurposeFirstHome
	case strings.Contains(s, "invest"):
		return PurposeInvestment
	case strings.Contains(s, "refinanc"):
		return PurposeRefinance
	default:
		return PurposeUnknown
	}
}
