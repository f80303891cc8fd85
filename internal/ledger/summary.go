package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/models"
)

// AllAccounts is the account filter value that includes every transaction.
const AllAccounts = "all"

// UncategorizedKey is the reserved bucket key for transactions whose
// category reference cannot be resolved.
const UncategorizedKey = "uncategorized"

// SummaryBucket is the per-category aggregate of a projection.
type SummaryBucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Color string          `json:"color"`
	Label string          `json:"label"`
}

// Project aggregates transactions into per-category buckets. accountFilter is
// either AllAccounts or a specific account id; non-matching transactions are
// excluded before aggregation. Transactions whose category no longer exists
// (or was never set) land in the reserved uncategorized bucket instead of
// being dropped.
//
// Project is pure: it reads its inputs, allocates its output, and touches no
// other state.
func Project(transactions []models.Transaction, categories []models.Category, accountFilter string) map[string]SummaryBucket {
	categoriesByID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		categoriesByID[c.ID] = c
	}

	buckets := make(map[string]SummaryBucket)
	for _, t := range transactions {
		if accountFilter != AllAccounts && t.AccountID != accountFilter {
			continue
		}

		key := UncategorizedKey
		label := UncategorizedLabel
		color := UncategorizedColor
		if c, ok := categoriesByID[t.CategoryID]; ok {
			key = c.ID
			label = c.Name
			color = c.Color
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = SummaryBucket{Total: decimal.Zero, Color: color, Label: label}
		}
		bucket.Count++
		bucket.Total = bucket.Total.Add(t.Amount)
		buckets[key] = bucket
	}
	return buckets
}
