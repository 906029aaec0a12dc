package advisor

// ClassifyStage derives the conversation stage from accumulated facts. The
// stage is recomputed from scratch every turn; nothing is ever marked
// "completed", so a sparse state can legitimately map back to an earlier
// stage. That quirk is intentional and callers must not make the stage
// monotonic.
func ClassifyStage(s *State) Stage {
	if s.Purpose == "" {
		return StageInitialEngagement
	}
	if !s.Financial.Any() {
		return StageDataCollection
	}
	if s.Financial.Income != nil && s.Financial.Expenses != nil && s.Financial.LoanAmount != nil {
		return StageFinancialAnalysis
	}
	return StageDataCollection
}
