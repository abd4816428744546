package reconcile

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	tipKeywords      = []string{"tip", "gratuity", "service charge", "serv chg", "grat&srv"}
	discountKeywords = []string{"discount", "happy hour", "happy-hour", "comp", "promo"}
)

// IsTipLine reports whether a line item is really a tip, gratuity or
// service charge.
func IsTipLine(name string) bool {
	return containsAny(foldName(name), tipKeywords)
}

// IsDiscountLine reports whether a line item reduces another item rather
// than being a good of its own. A negative price is enough.
func IsDiscountLine(name string, price float64) bool {
	return price < 0 || containsAny(foldName(name), discountKeywords)
}

// foldName lower-cases the name after NFKC normalization so that full-width
// characters and doubled spaces printed on receipts still match.
func foldName(name string) string {
	s := norm.NFKC.String(name)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
