package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount_cents"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Total      Money            `json:"total_cents"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// SupplierAmount is spend aggregated by supplier.
type SupplierAmount struct {
	SupplierID int64  `json:"supplier_id"`
	Name       string `json:"name"`
	Amount     Money  `json:"amount_cents"`
}
