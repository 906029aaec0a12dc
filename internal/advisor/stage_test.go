package advisor

import "testing"

func fptr(v float64) *float64 { return &v }

func TestClassifyStagePurposeUnset(t *testing.T) {
	// Purpose unset wins regardless of any other facts.
	s := &State{}
	s.Financial.Income = fptr(90000)
	s.Financial.Expenses = fptr(2500)
	s.Financial.LoanAmount = fptr(400000)
	if got := ClassifyStage(s); got != StageInitialEngagement {
		t.Fatalf("expected initial_engagement, got %s", got)
	}
}

func TestClassifyStageNoFacts(t *testing.T) {
	s := &State{Purpose: PurposeFirstHome}
	if got := ClassifyStage(s); got != StageDataCollection {
		t.Fatalf("expected data_collection, got %s", got)
	}
}

func TestClassifyStagePartialFacts(t *testing.T) {
	s := &State{Purpose: PurposeRefinance}
	s.Financial.Income = fptr(90000)
	if got := ClassifyStage(s); got != StageDataCollection {
		t.Fatalf("expected data_collection with partial facts, got %s", got)
	}
	s.Financial.Expenses = fptr(2500)
	if got := ClassifyStage(s); got != StageDataCollection {
		t.Fatalf("expected data_collection without loan amount, got %s", got)
	}
}

func TestClassifyStageFinancialAnalysis(t *testing.T) {
	s := &State{Purpose: PurposeInvestment}
	s.Financial.Income = fptr(90000)
	s.Financial.Expenses = fptr(2500)
	s.Financial.LoanAmount = fptr(400000)
	if got := ClassifyStage(s); got != StageFinancialAnalysis {
		t.Fatalf("expected financial_analysis, got %s", got)
	}
}

func TestClassifyStageUnknownPurposeStillCounts(t *testing.T) {
	// "unknown" is a classified purpose, not an unset one.
	s := &State{Purpose: PurposeUnknown}
	if got := ClassifyStage(s); got != StageDataCollection {
		t.Fatalf("expected data_collection, got %s", got)
	}
}
