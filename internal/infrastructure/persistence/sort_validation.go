package persistence

import "strings"

// orderSortColumns is the whitelist of columns list queries may sort
// orders by. Caller-supplied sort input is interpolated into SQL, so
// anything outside this set falls back to the default column.
var orderSortColumns = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"order_number":    true,
	"buyer_id":        true,
	"status":          true,
	"payment_status":  true,
	"total_amount":    true,
	"refunded_amount": true,
	"placed_at":       true,
	"paid_at":         true,
}

// sortColumn returns field if whitelisted, else the default column.
func sortColumn(field string, allowed map[string]bool, def string) string {
	field = strings.TrimSpace(field)
	if allowed[field] {
		return field
	}
	return def
}

// sortDirection normalizes to ASC or DESC, defaulting to DESC.
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "ASC") {
		return "ASC"
	}
	return "DESC"
}
