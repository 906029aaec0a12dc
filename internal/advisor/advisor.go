// Package advisor implements the conversation engine behind the mortgage
// intake agent: fact extraction, stage tracking, serviceability metrics and
// scenario generation, sequenced per turn by the Advisor.
package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"mortgage-advisor-backend/internal/catalog"
)

const chatTemperature = 0.7

type Advisor struct {
	sessions    *SessionStore
	extractor   *Extractor
	generator   *Generator
	catalog     catalog.Store
	client      ChatCompleter
	model       string
	chatTimeout time.Duration
}

func New(sessions *SessionStore, extractor *Extractor, store catalog.Store, client ChatCompleter, model string, chatTimeout time.Duration) *Advisor {
	if chatTimeout <= 0 {
		chatTimeout = 30 * time.Second
	}
	return &Advisor{
		sessions:    sessions,
		extractor:   extractor,
		generator:   NewGenerator(store),
		catalog:     store,
		client:      client,
		model:       model,
		chatTimeout: chatTimeout,
	}
}

// Stage reports the current conversation stage for a session.
func (a *Advisor) Stage(sessionID string) Stage {
	sess := a.sessions.Get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state.Stage == "" {
		return StageInitialEngagement
	}
	return sess.state.Stage
}

// Respond processes one user turn and returns the reply text. Turns for the
// same session are strictly sequential: the session lock is held from the
// first state read until the history append commits.
func (a *Advisor) Respond(ctx context.Context, sessionID, userText string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", fmt.Errorf("message is required")
	}

	sess := a.sessions.Get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	state := &sess.state

	// Purpose is classified once; on failure it stays unset and is retried
	// next turn.
	if state.Purpose == "" {
		purpose := DetectPurpose(userText)
		if purpose == "" {
			var err error
			purpose, err = a.extractor.ClassifyPurpose(ctx, userText)
			if err != nil {
				log.Printf("[purpose] classification failed for session %s: %v", sessionID, err)
				purpose = ""
			}
		}
		if purpose != "" {
			state.Purpose = purpose
			state.FirstTimeBuyer = purpose == PurposeFirstHome
		}
	}

	// Best-effort extraction: a failure leaves the state untouched.
	update, err := a.extractor.ExtractFacts(ctx, userText)
	if err != nil {
		log.Printf("[extract] no facts extracted for session %s: %v", sessionID, err)
	} else {
		state.Merge(update)
	}

	a.refreshMetrics(state)
	state.Stage = ClassifyStage(state)

	reply, err := a.complete(ctx, state, userText)
	if err != nil {
		// Surfaced to the user, not retried; the conversation can continue
		// on the next turn.
		log.Printf("[chat] completion failed for session %s: %v", sessionID, err)
		return fmt.Sprintf("I apologize, but I encountered an error: %v", err), nil
	}

	if state.Financial.Income != nil && state.Financial.PropertyValue != nil {
		scenarios, err := a.generator.Generate(ctx, state)
		if err != nil {
			log.Printf("[scenario] generation failed for session %s: %v", sessionID, err)
		} else if len(scenarios) > 0 {
			reply += "\n\n" + FormatScenarios(scenarios)
		}
	}

	a.sessions.appendHistory(state,
		Message{Role: openai.ChatMessageRoleUser, Content: userText},
		Message{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
	return reply, nil
}

// refreshMetrics recomputes the serviceability snapshot when all four
// required facts are present. Partial data never produces a partial metric.
func (a *Advisor) refreshMetrics(s *State) {
	f := s.Financial
	if f.Income == nil || f.Expenses == nil || f.LoanAmount == nil || f.PropertyValue == nil {
		return
	}
	otherDebts := 0.0
	if f.OtherDebts != nil {
		otherDebts = *f.OtherDebts
	}
	if m, ok := ComputeMetrics(*f.Income, *f.Expenses, *f.LoanAmount, *f.PropertyValue, otherDebts); ok {
		s.Metrics = &m
	}
}

func (a *Advisor) complete(ctx context.Context, s *State, userText string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.buildSystemPrompt(ctx, s)},
	}
	for _, m := range s.History {
		role := m.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userText})

	ctx, cancel := context.WithTimeout(ctx, a.chatTimeout)
	defer cancel()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: chatTemperature,
		Messages:    messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *Advisor) buildSystemPrompt(ctx context.Context, s *State) string {
	var b strings.Builder
	b.WriteString(`You are a highly experienced and seasoned mortgage loan officer in Australia. Follow this conversation approach:

[INTERNAL GUIDELINES - DO NOT SHOW IN RESPONSE]
Formatting:
- Use bold (**) for numbers, rates, amounts
- Use markdown tables for comparisons
- Use bullet points for lists
- Never show section headers like 'Basic Data Collection' or 'Initial Engagement'
[END INTERNAL GUIDELINES]

Conversation Approach:
1. Initial Engagement
- Warmly greet the customer
- Ask about mortgage goals (first home, investment, refinancing)
- Be conversational and supportive

2. Basic Data Collection
- Gather financial information progressively, one topic at a time
- Start with property value and deposit
- Then income and expenses
- Finally, discuss life events and future plans
- Mention relevant government incentives for first-time buyers as a separate call out

3. Advanced Understanding
- Understand complex financial situations
- Capture loan preferences (fixed/variable, tenure) in two bullet points for easy readability
- Then discuss long-term goals and life events
- Explore property preferences and locations

4. Recommendations
- Present options in clear tables
- Explain why each option suits their situation; avoid long paragraphs
- Compare features and benefits
- Consider future flexibility needs
`)

	b.WriteString("\nCurrent State:\n")
	b.WriteString("Previously collected information: ")
	b.WriteString(formatFacts(s))
	b.WriteString("\n")

	if products, err := a.catalog.AllProducts(ctx); err != nil {
		log.Printf("[prompt] failed to load products: %v", err)
	} else {
		b.WriteString("Available products:\n")
		for _, p := range products {
			fmt.Fprintf(&b, "- %s (%s): rate %.2f%%, comparison %.2f%%, max LVR %.0f%%, min income $%.0f\n",
				p.Name, p.Type, p.BaseRate, p.ComparisonRate, p.MaxLVR, p.MinIncome)
		}
	}

	if s.Purpose != "" {
		fmt.Fprintf(&b, "\nCustomer Purpose: %s\n", s.Purpose)
	}
	if s.Metrics != nil {
		fmt.Fprintf(&b, `
| Metric | Value |
|--------|-------|
| DSR | **%.2f%%** |
| LVR | **%.2f%%** |
| NSR | **%.2f** |
| Monthly Payment | **$%.2f** |
`, s.Metrics.DSR*100, s.Metrics.LVR*100, s.Metrics.NSR, s.Metrics.MonthlyPayment)
	}
	if s.Financial.LoanAmount != nil {
		if sweep := RateSensitivity(*s.Financial.LoanAmount, assessmentRate*100, assessmentTermYears); sweep != nil {
			b.WriteString("\n")
			b.WriteString(FormatRateSensitivity(sweep))
		}
	}
	return b.String()
}

func formatFacts(s *State) string {
	parts := make([]string, 0, 12)
	addFloat := func(name string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=$%.0f", name, *v))
		}
	}
	addFloat("income", s.Financial.Income)
	addFloat("expenses", s.Financial.Expenses)
	addFloat("loan_amount", s.Financial.LoanAmount)
	addFloat("property_value", s.Financial.PropertyValue)
	addFloat("deposit", s.Financial.Deposit)
	addFloat("other_debts", s.Financial.OtherDebts)
	if len(s.LifeEvents.UpcomingChanges) > 0 {
		parts = append(parts, "upcoming_changes="+strings.Join(s.LifeEvents.UpcomingChanges, "/"))
	}
	addString := func(name string, v *string) {
		if v != nil && *v != "" {
			parts = append(parts, name+"="+*v)
		}
	}
	addString("timeline", s.LifeEvents.Timeline)
	addString("property_preferences", s.LifeEvents.PropertyPreferences)
	addString("rate_type", s.Preferences.RateType)
	addString("risk_tolerance", s.Preferences.RiskTolerance)
	addString("flexibility_needed", s.Preferences.FlexibilityNeeded)
	if len(parts) == 0 {
		return "none yet"
	}
	return strings.Join(parts, ", ")
}
