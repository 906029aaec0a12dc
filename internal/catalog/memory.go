package catalog

import "context"

// MemoryStore serves a fixed product list. Used when no database is
// configured, and in tests.
type MemoryStore struct {
	products []Product
}

func NewMemoryStore(products []Product) *MemoryStore {
	return &MemoryStore{products: append([]Product(nil), products...)}
}

func (m *MemoryStore) ProductsWithMinIncomeAtMost(_ context.Context, income float64) ([]Product, error) {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if p.MinIncome <= income {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) AllProducts(_ context.Context) ([]Product, error) {
	return append([]Product(nil), m.products...), nil
}

// DefaultProducts is the built-in catalog, mirroring the seed migration.
func DefaultProducts() []Product {
	return []Product{
		{
			ID: 1, Name: "Standard Variable", Type: TypeVariable,
			MinIncome: 50000, MaxLoan: 1000000, MinPropertyValue: 200000,
			BaseRate: 4.5, ComparisonRate: 4.7, MaxLVR: 80, TermYears: 30,
			FirstHomeBuyerEligible: true, Features: []string{"offset", "redraw"},
			EarlyRepaymentAllowed: true, OffsetAccount: true,
		},
		{
			ID: 2, Name: "Fixed 3-Year Special", Type: TypeFixed,
			MinIncome: 60000, MaxLoan: 1500000, MinPropertyValue: 250000,
			BaseRate: 4.2, ComparisonRate: 4.4, MaxLVR: 85, TermYears: 3,
			FirstHomeBuyerEligible: true, Features: []string{"rate_lock"},
			EarlyRepaymentAllowed: false, OffsetAccount: false,
		},
		{
			ID: 3, Name: "First Home Buyer Plus", Type: TypeVariable,
			MinIncome: 40000, MaxLoan: 600000, MinPropertyValue: 150000,
			BaseRate: 4.8, ComparisonRate: 5.0, MaxLVR: 95, TermYears: 30,
			FirstHomeBuyerEligible: true, Features: []string{"fee_waiver", "govt_support"},
			EarlyRepaymentAllowed: true, OffsetAccount: true,
		},
		{
			ID: 4, Name: "Premium Split", Type: TypeSplit,
			MinIncome: 100000, MaxLoan: 2000000, MinPropertyValue: 500000,
			BaseRate: 4.3, ComparisonRate: 4.5, MaxLVR: 80, TermYears: 30,
			FirstHomeBuyerEligible: false, Features: []string{"offset", "redraw", "rate_lock"},
			EarlyRepaymentAllowed: true, OffsetAccount: true,
		},
		{
			ID: 5, Name: "Investment Property", Type: TypeVariable,
			MinIncome: 80000, MaxLoan: 1200000, MinPropertyValue: 300000,
			BaseRate: 4.9, ComparisonRate: 5.1, MaxLVR: 80, TermYears: 30,
			FirstHomeBuyerEligible: false, Features: []string{"interest_only"},
			EarlyRepaymentAllowed: true, OffsetAccount: true,
		},
	}
}
