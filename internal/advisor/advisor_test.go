package advisor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"mortgage-advisor-backend/internal/catalog"
)

// scriptedCompleter routes fake completions by inspecting the system prompt:
// purpose classification, fact extraction and the conversational reply each
// use a distinct prompt shape.
func scriptedCompleter(extractJSON string, chatReply string, chatErr error) *fakeCompleter {
	return &fakeCompleter{fn: func(req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		sys := req.Messages[0].Content
		switch {
		case strings.Contains(sys, "determine if it indicates"):
			return replyWith("first_home"), nil
		case strings.Contains(sys, "Return exact JSON structure"):
			return replyWith(extractJSON), nil
		default:
			if chatErr != nil {
				return openai.ChatCompletionResponse{}, chatErr
			}
			return replyWith(chatReply), nil
		}
	}}
}

func newTestAdvisor(t *testing.T, client ChatCompleter) (*Advisor, *SessionStore) {
	t.Helper()
	sessions := NewSessionStore(40)
	extractor := NewExtractor(testSpec(), client, "gpt-4o-mini")
	store := catalog.NewMemoryStore(catalog.DefaultProducts())
	return New(sessions, extractor, store, client, "gpt-4o-mini", 0), sessions
}

const fullExtraction = `{
	"financial": {"income": 90000, "expenses": 2500, "loan_amount": 400000, "property_value": 500000, "deposit": null, "other_debts": null},
	"life_events": {"upcoming_changes": [], "timeline": null, "property_preferences": null},
	"preferences": {"rate_type": null, "risk_tolerance": null, "flexibility_needed": null}
}`

func TestRespondFullTurn(t *testing.T) {
	client := scriptedCompleter(fullExtraction, "Great, let me walk you through your options.", nil)
	adv, sessions := newTestAdvisor(t, client)

	reply, err := adv.Respond(context.Background(), "s1",
		"Hi! We're buying our first home. I earn 90000, spend 2500 a month, and want to borrow 400000 for a 500000 place.")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "walk you through your options") {
		t.Fatalf("reply missing completion text: %q", reply)
	}
	if !strings.Contains(reply, "recommended loan options") {
		t.Fatalf("reply missing scenario block: %q", reply)
	}

	state := &sessions.Get("s1").state
	if state.Purpose != PurposeFirstHome || !state.FirstTimeBuyer {
		t.Fatalf("purpose not set: %+v", state.Purpose)
	}
	if state.Stage != StageFinancialAnalysis {
		t.Fatalf("expected financial_analysis, got %s", state.Stage)
	}
	if state.Metrics == nil {
		t.Fatal("metrics snapshot missing")
	}
	if got := state.Metrics.LVR; got != 0.8 {
		t.Fatalf("unexpected LVR: %v", got)
	}
	if len(state.History) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(state.History))
	}
	if state.History[0].Role != openai.ChatMessageRoleUser ||
		state.History[1].Role != openai.ChatMessageRoleAssistant {
		t.Fatalf("unexpected history roles: %+v", state.History)
	}
}

func TestRespondExtractionFailureIsNonFatal(t *testing.T) {
	client := scriptedCompleter("not json at all", "Tell me a bit about your situation.", nil)
	adv, sessions := newTestAdvisor(t, client)

	reply, err := adv.Respond(context.Background(), "s1", "we're after our first home")
	if err != nil {
		t.Fatalf("Respond must not propagate extraction failures: %v", err)
	}
	if !strings.Contains(reply, "Tell me a bit") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	state := &sessions.Get("s1").state
	if state.Financial.Any() {
		t.Fatal("state must be unchanged after failed extraction")
	}
	// Purpose came from the keyword heuristic, so the stage still advances.
	if state.Stage != StageDataCollection {
		t.Fatalf("expected data_collection, got %s", state.Stage)
	}
}

func TestRespondCompletionFailureBecomesApology(t *testing.T) {
	client := scriptedCompleter(fullExtraction, "", fmt.Errorf("rate limited"))
	adv, sessions := newTestAdvisor(t, client)

	reply, err := adv.Respond(context.Background(), "s1", "I earn 90000 and want to borrow 400000")
	if err != nil {
		t.Fatalf("completion failures must surface as a reply, got error: %v", err)
	}
	if !strings.Contains(reply, "I apologize") || !strings.Contains(reply, "rate limited") {
		t.Fatalf("apology must embed the error text: %q", reply)
	}

	// The failed turn is not recorded; the next turn starts clean.
	if got := len(sessions.Get("s1").state.History); got != 0 {
		t.Fatalf("failed turn must not append history, got %d messages", got)
	}
}

func TestRespondEmptyMessage(t *testing.T) {
	client := scriptedCompleter(fullExtraction, "hello", nil)
	adv, _ := newTestAdvisor(t, client)
	if _, err := adv.Respond(context.Background(), "s1", "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestRespondScenariosNeedIncomeAndPropertyValue(t *testing.T) {
	partial := `{
		"financial": {"income": 90000, "expenses": null, "loan_amount": null, "property_value": null, "deposit": null, "other_debts": null},
		"life_events": {"upcoming_changes": [], "timeline": null, "property_preferences": null},
		"preferences": {"rate_type": null, "risk_tolerance": null, "flexibility_needed": null}
	}`
	client := scriptedCompleter(partial, "Noted, thanks!", nil)
	adv, _ := newTestAdvisor(t, client)

	reply, err := adv.Respond(context.Background(), "s1", "first home, I earn 90000")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if strings.Contains(reply, "recommended loan options") {
		t.Fatal("scenarios must not run without a property value")
	}
}

func TestRespondPurposeClassifiedOnce(t *testing.T) {
	purposeCalls := 0
	client := &fakeCompleter{fn: func(req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		sys := req.Messages[0].Content
		switch {
		case strings.Contains(sys, "determine if it indicates"):
			purposeCalls++
			return replyWith("investment"), nil
		case strings.Contains(sys, "Return exact JSON structure"):
			return replyWith(`{"financial": {}, "life_events": {}, "preferences": {}}`), nil
		default:
			return replyWith("ok"), nil
		}
	}}
	adv, sessions := newTestAdvisor(t, client)

	// "buying a place to rent out" dodges the keyword heuristics on purpose.
	if _, err := adv.Respond(context.Background(), "s1", "thinking about buying a place to lease"); err != nil {
		t.Fatalf("turn 1 failed: %v", err)
	}
	if _, err := adv.Respond(context.Background(), "s1", "what rates do you have"); err != nil {
		t.Fatalf("turn 2 failed: %v", err)
	}

	if purposeCalls != 1 {
		t.Fatalf("purpose must be classified exactly once, got %d calls", purposeCalls)
	}
	if sessions.Get("s1").state.Purpose != PurposeInvestment {
		t.Fatalf("unexpected purpose: %s", sessions.Get("s1").state.Purpose)
	}
}

func TestStageForFreshSession(t *testing.T) {
	client := scriptedCompleter(fullExtraction, "hi", nil)
	adv, _ := newTestAdvisor(t, client)
	if got := adv.Stage("never-seen"); got != StageInitialEngagement {
		t.Fatalf("expected initial_engagement for fresh session, got %s", got)
	}
}
