// Package catalog holds the mortgage product catalog. Products are loaded
// once at startup and treated as immutable for the process lifetime.
package catalog

import "context"

type ProductType string

const (
	TypeFixed    ProductType = "fixed"
	TypeVariable ProductType = "variable"
	TypeSplit    ProductType = "split"
)

// Product is a single catalog row. Rates are percentages (4.5 == 4.5% p.a.),
// as is MaxLVR (80 == 80%).
type Product struct {
	ID                     int64       `json:"id"`
	Name                   string      `json:"name"`
	Type                   ProductType `json:"productType"`
	MinIncome              float64     `json:"minIncome"`
	MaxLoan                float64     `json:"maxLoan"`
	MinPropertyValue       float64     `json:"minPropertyValue"`
	BaseRate               float64     `json:"baseRate"`
	ComparisonRate         float64     `json:"comparisonRate"`
	MaxLVR                 float64     `json:"maxLVR"`
	TermYears              int         `json:"termYears"`
	FirstHomeBuyerEligible bool        `json:"firstHomeBuyerEligible"`
	Features               []string    `json:"features"`
	EarlyRepaymentAllowed  bool        `json:"earlyRepaymentAllowed"`
	OffsetAccount          bool        `json:"offsetAccount"`
}

// Store is the read-only catalog boundary.
type Store interface {
	// ProductsWithMinIncomeAtMost returns every product whose minimum
	// qualifying income is <= income, in catalog order.
	ProductsWithMinIncomeAtMost(ctx context.Context, income float64) ([]Product, error)
	AllProducts(ctx context.Context) ([]Product, error)
}
