package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"mortgage-advisor-backend/internal/db"
)

// DatabaseStore reads the product catalog from PostgreSQL.
type DatabaseStore struct {
	db *db.DB
}

func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

const productColumns = `
	id, name, product_type, min_income, max_loan, property_value_min,
	base_rate, comparison_rate, max_lvr, term_years,
	first_home_buyer_eligible, features, early_repayment_allowed, offset_account
`

func (ds *DatabaseStore) ProductsWithMinIncomeAtMost(ctx context.Context, income float64) ([]Product, error) {
	query := `SELECT ` + productColumns + `
		FROM mortgage_products
		WHERE min_income <= $1
		ORDER BY id`
	rows, err := ds.db.QueryContext(ctx, query, income)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by income: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (ds *DatabaseStore) AllProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM mortgage_products ORDER BY id`
	rows, err := ds.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		var features []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Type, &p.MinIncome, &p.MaxLoan, &p.MinPropertyValue,
			&p.BaseRate, &p.ComparisonRate, &p.MaxLVR, &p.TermYears,
			&p.FirstHomeBuyerEligible, &features, &p.EarlyRepaymentAllowed, &p.OffsetAccount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		// Features column is a JSON array of feature names
		if len(features) > 0 {
			if err := json.Unmarshal(features, &p.Features); err != nil {
				return nil, fmt.Errorf("failed to decode features for product %d: %w", p.ID, err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
