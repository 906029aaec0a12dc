package advisor

import "sync"

type Message struct {
	Role    string
	Content string
}

// Purpose is the customer's mortgage goal, classified once per session.
type Purpose string

const (
	PurposeFirstHome  Purpose = "first_home"
	PurposeInvestment Purpose = "investment"
	PurposeRefinance  Purpose = "refinance"
	PurposeUnknown    Purpose = "unknown"
)

type Stage string

const (
	StageInitialEngagement Stage = "initial_engagement"
	StageDataCollection    Stage = "data_collection"
	StageFinancialAnalysis Stage = "financial_analysis"
)

// FinancialFacts are the numeric facts collected over the conversation.
// Nil means "not yet known". A set fact is only ever replaced by a later
// extraction that supplies a new value, never cleared.
type FinancialFacts struct {
	Income        *float64
	Expenses      *float64
	LoanAmount    *float64
	PropertyValue *float64
	Deposit       *float64
	OtherDebts    *float64
}

func (f FinancialFacts) Any() bool {
	return f.Income != nil || f.Expenses != nil || f.LoanAmount != nil ||
		f.PropertyValue != nil || f.Deposit != nil || f.OtherDebts != nil
}

type LifeFacts struct {
	UpcomingChanges     []string
	Timeline            *string
	PropertyPreferences *string
}

type PreferenceFacts struct {
	RateType          *string
	RiskTolerance     *string
	FlexibilityNeeded *string
}

// FactUpdate is the partial result of one extraction pass. Nil fields leave
// the corresponding state untouched.
type FactUpdate struct {
	Financial   FinancialFacts
	LifeEvents  LifeFacts
	Preferences PreferenceFacts
}

// State is the per-session conversation state. It is mutated only while the
// owning session's turn lock is held.
type State struct {
	History        []Message
	Financial      FinancialFacts
	LifeEvents     LifeFacts
	Preferences    PreferenceFacts
	Purpose        Purpose // empty until classified
	FirstTimeBuyer bool
	Metrics        *Metrics
	Stage          Stage
}

// Merge folds an extraction update into the state. Only present values
// overwrite; absent values never delete previously known facts.
func (s *State) Merge(u FactUpdate) {
	mergeFloat(&s.Financial.Income, u.Financial.Income)
	mergeFloat(&s.Financial.Expenses, u.Financial.Expenses)
	mergeFloat(&s.Financial.LoanAmount, u.Financial.LoanAmount)
	mergeFloat(&s.Financial.PropertyValue, u.Financial.PropertyValue)
	mergeFloat(&s.Financial.Deposit, u.Financial.Deposit)
	mergeFloat(&s.Financial.OtherDebts, u.Financial.OtherDebts)

	if len(u.LifeEvents.UpcomingChanges) > 0 {
		s.LifeEvents.UpcomingChanges = append([]string(nil), u.LifeEvents.UpcomingChanges...)
	}
	mergeString(&s.LifeEvents.Timeline, u.LifeEvents.Timeline)
	mergeString(&s.LifeEvents.PropertyPreferences, u.LifeEvents.PropertyPreferences)

	mergeString(&s.Preferences.RateType, u.Preferences.RateType)
	mergeString(&s.Preferences.RiskTolerance, u.Preferences.RiskTolerance)
	mergeString(&s.Preferences.FlexibilityNeeded, u.Preferences.FlexibilityNeeded)
}

func mergeFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Session pairs conversation state with a turn lock. The lock is held for a
// full turn so a second message for the same session waits until the first
// turn's state update commits.
type Session struct {
	mu    sync.Mutex
	state State
}

// SessionStore keeps all active sessions in memory, keyed by session ID.
// Sessions are not persisted across restarts.
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	maxHistory int
}

func NewSessionStore(maxHistory int) *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
	}
}

// Get returns the session for id, creating it on first use.
func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok {
		sess = &Session{}
		st.sessions[id] = sess
	}
	return sess
}

// Delete discards a session and all of its state.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *SessionStore) appendHistory(s *State, msgs ...Message) {
	s.History = append(s.History, msgs...)
	if st.maxHistory > 0 && len(s.History) > st.maxHistory {
		s.History = s.History[len(s.History)-st.maxHistory:]
	}
}
