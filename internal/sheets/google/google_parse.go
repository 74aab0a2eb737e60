package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budgetdesk/internal/core"
)

var monthHeaders = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// findRowByID returns the zero-based index of the ledger row whose ID column
// equals id, or -1.
func findRowByID(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		cols := toStrings(row)
		if safeGet(cols, colID) == want {
			return i
		}
	}
	return -1
}

// parseBudgetSheet converts a values matrix into budgets for year. Rows
// without a Category are skipped; Name defaults to the category. Empty month
// cells produce no allocation.
func parseBudgetSheet(values [][]any, year int) ([]core.Budget, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colCategory := indexOf(headers, "Category")
	colName := indexOf(headers, "Name")
	monthCols := make([]int, 12)
	var missing []string
	if colCategory == -1 {
		missing = append(missing, "Category")
	}
	for i, h := range monthHeaders {
		monthCols[i] = indexOf(headers, h)
		if monthCols[i] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected budget header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.Budget
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		category := safeGet(row, colCategory)
		if category == "" || strings.EqualFold(category, "total") {
			continue
		}
		name := safeGet(row, colName)
		if name == "" {
			name = category
		}
		b := core.Budget{Year: year, Name: name, Category: category}
		for m, col := range monthCols {
			cell := safeGet(row, col)
			if cell == "" {
				continue
			}
			cents, ok := parseEurosToCents(cell)
			if !ok {
				return nil, fmt.Errorf("row %d, %s: invalid amount %q", i+1, monthHeaders[m], cell)
			}
			b.Allocations = append(b.Allocations, core.Allocation{Month: m + 1, Amount: core.Cents(cents)})
		}
		out = append(out, b)
	}
	return out, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseEurosToCents accepts sheet renderings such as "1200", "1200.5",
// "1.200,50", "1.200" and "€ 1,200.50". Without a comma, dots that split the
// digits into groups of three are thousands separators.
func parseEurosToCents(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "€"))
	if s == "" {
		return 0, false
	}
	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		// comma is the decimal separator
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastDot >= 0 && dotGrouped(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return d.Shift(2).Round(0).IntPart(), true
}

// dotGrouped reports whether s looks like "1.200" or "12.000.000".
func dotGrouped(s string) bool {
	groups := strings.Split(s, ".")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for i, g := range groups {
		if i > 0 && len(g) != 3 {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
