package billing

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/markethub/backend/internal/domain/shared"
)

var invoiceNumberPattern = regexp.MustCompile(`^INV-(\d{4})-(\d{6})$`)

// FormatInvoiceNumber renders an invoice number as INV-{year}-{seq}, with the
// sequence zero-padded to six digits. Sequences restart at 1 each year.
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%04d-%06d", year, seq)
}

// ParseInvoiceNumber extracts the year and sequence from an invoice number
func ParseInvoiceNumber(number string) (year, seq int, err error) {
	m := invoiceNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, 0, shared.NewValidationError("INVALID_INVOICE_NUMBER",
			fmt.Sprintf("Invoice number %q does not match INV-YYYY-NNNNNN", number))
	}
	year, _ = strconv.Atoi(m[1])
	seq, _ = strconv.Atoi(m[2])
	return year, seq, nil
}
