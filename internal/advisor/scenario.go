package advisor

import (
	"context"
	"fmt"
	"strings"

	"mortgage-advisor-backend/internal/catalog"
)

// Scenario is one concrete loan option presented to the customer. Scenarios
// are regenerated from scratch every time; nothing is cached across turns.
type Scenario struct {
	ProductName        string
	LoanAmount         float64
	InterestRate       float64 // percent
	MonthlyPayment     float64
	Features           []string
	SuitabilityReasons []string
	Considerations     []string
}

// Generator builds loan scenarios from collected facts and the product
// catalog. Suitability comes from a small rule table, not a scoring model;
// results keep catalog order.
type Generator struct {
	catalog catalog.Store
}

func NewGenerator(store catalog.Store) *Generator {
	return &Generator{catalog: store}
}

// Scenario repayments are quoted over a standard horizon regardless of any
// fixed-rate period on the product.
const scenarioTermYears = 30

// Generate returns one scenario per product whose minimum qualifying income
// is at or below the customer's stated income. Callers trigger it only once
// income and property value are known.
func (g *Generator) Generate(ctx context.Context, s *State) ([]Scenario, error) {
	var income, loan, propertyValue float64
	if s.Financial.Income != nil {
		income = *s.Financial.Income
	}
	if s.Financial.LoanAmount != nil {
		loan = *s.Financial.LoanAmount
	}
	if s.Financial.PropertyValue != nil {
		propertyValue = *s.Financial.PropertyValue
	}

	products, err := g.catalog.ProductsWithMinIncomeAtMost(ctx, income)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible products: %w", err)
	}

	needsFlexibility := hasLifeChange(s.LifeEvents.UpcomingChanges)
	lowRisk := s.Preferences.RiskTolerance != nil &&
		strings.Contains(strings.ToLower(*s.Preferences.RiskTolerance), "low")

	scenarios := make([]Scenario, 0, len(products))
	for _, p := range products {
		sc := Scenario{
			ProductName:    p.Name,
			LoanAmount:     loan,
			InterestRate:   p.BaseRate,
			MonthlyPayment: MonthlyPayment(loan, p.BaseRate/100, scenarioTermYears),
		}

		if needsFlexibility && p.Type == catalog.TypeVariable {
			sc.SuitabilityReasons = append(sc.SuitabilityReasons,
				"Provides flexibility for upcoming life changes")
			sc.Features = append(sc.Features, "Extra repayments", "Redraw facility")
		}
		if s.FirstTimeBuyer && p.FirstHomeBuyerEligible {
			sc.SuitabilityReasons = append(sc.SuitabilityReasons,
				"Eligible for first home buyer support")
		}
		if lowRisk && p.Type == catalog.TypeFixed {
			sc.SuitabilityReasons = append(sc.SuitabilityReasons,
				"Fixed rate keeps repayments steady if rates rise")
		}
		if p.OffsetAccount {
			sc.Features = append(sc.Features, "Offset account")
		}
		if loan > 0 && p.MaxLoan > 0 && loan > p.MaxLoan {
			sc.Considerations = append(sc.Considerations,
				fmt.Sprintf("Requested amount exceeds this product's maximum of $%.0f", p.MaxLoan))
		}
		if loan > 0 && propertyValue > 0 && p.MaxLVR > 0 {
			if lvr := loan / propertyValue; lvr*100 > p.MaxLVR {
				sc.Considerations = append(sc.Considerations,
					fmt.Sprintf("LVR of %.0f%% is above this product's maximum of %.0f%%", lvr*100, p.MaxLVR))
			}
		}

		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func hasLifeChange(changes []string) bool {
	for _, c := range changes {
		lc := strings.ToLower(c)
		if containsAny(lc, []string{"marriage", "wedding", "married", "child", "baby", "career"}) {
			return true
		}
	}
	return false
}

// FormatScenarios renders scenarios as the markdown block appended to the
// assistant reply.
func FormatScenarios(scenarios []Scenario) string {
	var b strings.Builder
	b.WriteString("## Based on your circumstances and preferences, here are recommended loan options\n\n")
	for i, sc := range scenarios {
		fmt.Fprintf(&b, "### Option %d: %s\n", i+1, sc.ProductName)
		b.WriteString("| Category | Details |\n|----------|----------|\n")
		fmt.Fprintf(&b, "| Interest Rate | **%.2f%%** |\n", sc.InterestRate)
		fmt.Fprintf(&b, "| Monthly Payment | **$%.2f** |\n", sc.MonthlyPayment)
		if len(sc.Features) > 0 {
			b.WriteString("\n**Key Features:**\n")
			for _, f := range sc.Features {
				fmt.Fprintf(&b, "- %s\n", f)
			}
		}
		if len(sc.SuitabilityReasons) > 0 {
			b.WriteString("\n**Why This Suits You:**\n")
			for _, r := range sc.SuitabilityReasons {
				fmt.Fprintf(&b, "- %s\n", r)
			}
		}
		if len(sc.Considerations) > 0 {
			b.WriteString("\n**Things to Consider:**\n")
			for _, c := range sc.Considerations {
				fmt.Fprintf(&b, "- %s\n", c)
			}
		}
		b.WriteString("\n---\n\n")
	}
	return b.String()
}
