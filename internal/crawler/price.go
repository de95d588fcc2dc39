package crawler

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	freeMarkers = []string{"gratis", "free"}

	priceNoise = strings.NewReplacer(
		"ARS$", "",
		"US$", "",
		"$", "",
		"+", "",
		"Desde", "",
		"desde", "",
		"Starting from", "",
		"starting from", "",
	)

	nonNumeric = regexp.MustCompile(`[^\d.,]`)

	datePattern = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})\b`)
)

// NormalizePrice converts locale-formatted currency text ("ARS$ 1.500,00")
// to an amount. Empty, free or malformed text yields 0.
func NormalizePrice(text string) float64 {
	lower := strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return 0
	}
	for _, marker := range freeMarkers {
		if strings.Contains(lower, marker) {
			return 0
		}
	}

	clean := priceNoise.Replace(text)
	clean = nonNumeric.ReplaceAllString(clean, "")
	// '.' groups thousands and ',' separates decimals
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil || amount < 0 {
		return 0
	}
	return amount
}

// NormalizeDate parses a day/month/year date. It reports false on any
// mismatch, including impossible dates such as 31/02/2024.
func NormalizeDate(text string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// Discount derives the discount percentage from a price pair
func Discount(original, current float64) float64 {
	if original <= 0 {
		return 0
	}
	return (original - current) / original * 100
}

// Settle applies the price merge rule and derives the discount. It reports
// false when the record must be dropped under the zero price policy.
func (r *DealRecord) Settle(policy ZeroPricePolicy) bool {
	if r.OriginalPrice == 0 && r.CurrentPrice > 0 {
		r.OriginalPrice = r.CurrentPrice
	}
	if r.CurrentPrice > r.OriginalPrice {
		r.OriginalPrice = r.CurrentPrice
	}
	if r.OriginalPrice == 0 && r.CurrentPrice == 0 && policy == ZeroPriceDrop {
		return false
	}

	r.DiscountPercentage = Discount(r.OriginalPrice, r.CurrentPrice)
	return true
}
