package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"
)

// ChatCompleter is the completion-service boundary; *openai.Client
// satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ExtractSpec is the yaml-loaded prompt spec for fact extraction.
type ExtractSpec struct {
	System string `yaml:"system"`
	Schema string `yaml:"schema"`
	Style  struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// Extractor turns free-text customer messages into structured fact updates
// via a single constrained completion call per turn.
type Extractor struct {
	spec    ExtractSpec
	client  ChatCompleter
	model   string
	timeout time.Duration
}

func NewExtractor(spec ExtractSpec, client ChatCompleter, model string) *Extractor {
	return &Extractor{spec: spec, client: client, model: model, timeout: 10 * time.Second}
}

func LoadExtractor(path string, client ChatCompleter, model string) (*Extractor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec ExtractSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, err
	}
	return NewExtractor(spec, client, model), nil
}

// factEnvelope mirrors the fixed nullable JSON schema the model is asked to
// return. Numeric fields decode as numbers only; a non-numeric value fails
// the whole envelope and counts as an extraction failure.
type factEnvelope struct {
	Financial struct {
		Income        *float64 `json:"income"`
		Expenses      *float64 `json:"expenses"`
		LoanAmount    *float64 `json:"loan_amount"`
		PropertyValue *float64 `json:"property_value"`
		Deposit       *float64 `json:"deposit"`
		OtherDebts    *float64 `json:"other_debts"`
	} `json:"financial"`
	LifeEvents struct {
		UpcomingChanges     []string `json:"upcoming_changes"`
		Timeline            *string  `json:"timeline"`
		PropertyPreferences *string  `json:"property_preferences"`
	} `json:"life_events"`
	Preferences struct {
		RateType          *string `json:"rate_type"`
		RiskTolerance     *string `json:"risk_tolerance"`
		FlexibilityNeeded *string `json:"flexibility_needed"`
	} `json:"preferences"`
}

// ExtractFacts analyzes one user message and returns a partial fact update.
// On any failure (call error, malformed or non-conforming JSON) it returns an
// empty update together with the error; callers log it and carry on with the
// facts already known.
func (e *Extractor) ExtractFacts(ctx context.Context, message string) (FactUpdate, error) {
	var b strings.Builder
	b.WriteString(e.spec.System)
	b.WriteString("\n\nReturn exact JSON structure:\n")
	b.WriteString(e.spec.Schema)
	b.WriteString("\n\nMessage: ")
	b.WriteString(strings.TrimSpace(message))
	b.WriteString("\n\nOutput ONLY the JSON object.")

	temperature := e.spec.Style.Temperature
	if temperature <= 0 {
		temperature = 0.1
	}
	maxTokens := e.spec.Style.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 400
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.String()},
		},
	})
	if err != nil {
		return FactUpdate{}, fmt.Errorf("extraction call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return FactUpdate{}, fmt.Errorf("extraction returned no choices")
	}

	var env factEnvelope
	if err := decodeJSONObject(resp.Choices[0].Message.Content, &env); err != nil {
		return FactUpdate{}, fmt.Errorf("extraction returned malformed JSON: %w", err)
	}

	var u FactUpdate
	u.Financial.Income = env.Financial.Income
	u.Financial.Expenses = env.Financial.Expenses
	u.Financial.LoanAmount = env.Financial.LoanAmount
	u.Financial.PropertyValue = env.Financial.PropertyValue
	u.Financial.Deposit = env.Financial.Deposit
	u.Financial.OtherDebts = env.Financial.OtherDebts
	u.LifeEvents.UpcomingChanges = env.LifeEvents.UpcomingChanges
	u.LifeEvents.Timeline = env.LifeEvents.Timeline
	u.LifeEvents.PropertyPreferences = env.LifeEvents.PropertyPreferences
	u.Preferences.RateType = env.Preferences.RateType
	u.Preferences.RiskTolerance = env.Preferences.RiskTolerance
	u.Preferences.FlexibilityNeeded = env.Preferences.FlexibilityNeeded
	return u, nil
}

// decodeJSONObject unmarshals raw into v, falling back to the outermost
// brace pair when the model wraps the object in prose or code fences.
func decodeJSONObject(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first < 0 || last <= first {
		return fmt.Errorf("no JSON object found in response")
	}
	return json.Unmarshal([]byte(raw[first:last+1]), v)
}
