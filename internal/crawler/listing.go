package crawler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// unknownTotal stands for a category whose first page declares no total
const unknownTotal = math.MaxInt

var nonDigit = regexp.MustCompile(`\D`)

// ListingURL builds the listing page URL for a category at an item offset
func ListingURL(opts Options, category string, offset int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s/store/%s/games/pc?price=%sTo%s",
		strings.TrimRight(opts.StorefrontURL, "/"),
		opts.Locale,
		category,
		strconv.FormatFloat(opts.PriceMin, 'f', -1, 64),
		strconv.FormatFloat(opts.PriceMax, 'f', -1, 64),
	)
	if opts.DealsOnly {
		b.WriteString("&isdeal=true")
	}
	fmt.Fprintf(&b, "&skipItems=%d", offset)
	return b.String()
}

// ParseTotalCount reads the declared item total from the page status text,
// e.g. "Mostrando 1 - 90 de 1.234 resultados".
func ParseTotalCount(doc *goquery.Selection, statusSelector string, pattern *regexp.Regexp) (int, bool) {
	status := doc.Find(statusSelector).First()
	if status.Length() == 0 || pattern == nil {
		return 0, false
	}

	m := pattern.FindStringSubmatch(status.Text())
	if len(m) < 2 {
		return 0, false
	}
	total, err := strconv.Atoi(nonDigit.ReplaceAllString(m[1], ""))
	if err != nil {
		return 0, false
	}
	return total, true
}
