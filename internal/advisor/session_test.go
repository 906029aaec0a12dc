package advisor

import "testing"

func sptr(v string) *string { return &v }

func TestMergeOnlyOverwritesPresentFields(t *testing.T) {
	s := &State{}
	s.Financial.Income = fptr(80000)
	s.Preferences.RateType = sptr("fixed")

	var u FactUpdate
	u.Financial.Expenses = fptr(2500)
	s.Merge(u)

	if s.Financial.Income == nil || *s.Financial.Income != 80000 {
		t.Fatalf("income should be untouched, got %v", s.Financial.Income)
	}
	if s.Financial.Expenses == nil || *s.Financial.Expenses != 2500 {
		t.Fatalf("expenses should be set, got %v", s.Financial.Expenses)
	}
	if s.Preferences.RateType == nil || *s.Preferences.RateType != "fixed" {
		t.Fatal("rate type should be untouched")
	}
}

func TestMergeReplacesContradictedValue(t *testing.T) {
	s := &State{}
	s.Financial.Income = fptr(80000)

	var u FactUpdate
	u.Financial.Income = fptr(95000)
	s.Merge(u)

	if *s.Financial.Income != 95000 {
		t.Fatalf("income should be replaced, got %v", *s.Financial.Income)
	}
}

func TestMergeLifeEventsAndPreferences(t *testing.T) {
	s := &State{}
	var u FactUpdate
	u.LifeEvents.UpcomingChanges = []string{"marriage"}
	u.LifeEvents.Timeline = sptr("next year")
	u.Preferences.RiskTolerance = sptr("low")
	s.Merge(u)

	if len(s.LifeEvents.UpcomingChanges) != 1 || s.LifeEvents.UpcomingChanges[0] != "marriage" {
		t.Fatalf("unexpected upcoming changes: %v", s.LifeEvents.UpcomingChanges)
	}
	if s.LifeEvents.Timeline == nil || *s.LifeEvents.Timeline != "next year" {
		t.Fatal("timeline not merged")
	}
	if s.Preferences.RiskTolerance == nil || *s.Preferences.RiskTolerance != "low" {
		t.Fatal("risk tolerance not merged")
	}

	// An empty followup update leaves everything in place.
	s.Merge(FactUpdate{})
	if len(s.LifeEvents.UpcomingChanges) != 1 || s.LifeEvents.Timeline == nil {
		t.Fatal("empty update must not clear facts")
	}
}

func TestFinancialFactsAny(t *testing.T) {
	var f FinancialFacts
	if f.Any() {
		t.Fatal("empty facts should report none known")
	}
	f.Deposit = fptr(50000)
	if !f.Any() {
		t.Fatal("deposit alone should count as a known fact")
	}
}

func TestSessionStoreGetCreates(t *testing.T) {
	store := NewSessionStore(10)
	a := store.Get("s1")
	b := store.Get("s1")
	if a != b {
		t.Fatal("expected the same session for the same ID")
	}
	if store.Get("s2") == a {
		t.Fatal("expected distinct sessions for distinct IDs")
	}
}

func TestSessionStoreHistoryTrim(t *testing.T) {
	store := NewSessionStore(4)
	sess := store.Get("s1")
	for i := 0; i < 6; i++ {
		store.appendHistory(&sess.state, Message{Role: "user", Content: "m"})
	}
	if len(sess.state.History) != 4 {
		t.Fatalf("expected history trimmed to 4, got %d", len(sess.state.History))
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(10)
	sess := store.Get("s1")
	sess.state.Purpose = PurposeFirstHome
	store.Delete("s1")
	if store.Get("s1").state.Purpose != "" {
		t.Fatal("deleted session state should not survive")
	}
}
