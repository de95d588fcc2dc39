package aggregator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"sjsage522/xbdealworker/config"
	"sjsage522/xbdealworker/internal/crawler"
)

// SortMode selects the row order of the published table
type SortMode string

const (
	// SortDeal puts deals first, then larger discounts
	SortDeal SortMode = "deal"
	// SortLaunch puts the most recent launch dates first, undated items last
	SortLaunch SortMode = "launch"
	// SortDiscount orders by discount, then title, both descending
	SortDiscount SortMode = "discount"
)

const launchLayout = "2006-01-02"

// Options controls the row rendering
type Options struct {
	Sort              SortMode
	TrueToken         string
	FalseToken        string
	EmptyZeroDiscount bool
	IncludeLaunchDate bool
}

// DefaultOptions matches the published worksheet layout
func DefaultOptions() Options {
	return Options{
		Sort:       SortDeal,
		TrueToken:  "SÍ",
		FalseToken: "NO",
	}
}

// OptionsFromConfig builds aggregator options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sort:              SortMode(cfg.SortMode),
		TrueToken:         cfg.TrueToken,
		FalseToken:        cfg.FalseToken,
		EmptyZeroDiscount: cfg.EmptyZeroDiscount,
		IncludeLaunchDate: cfg.TrackLaunchDate,
	}
}

// Table is the tabular form handed to a sink
type Table struct {
	Header []string
	Rows   [][]interface{}
}

// Values returns the header followed by the rows, ready for a worksheet write
func (t Table) Values() [][]interface{} {
	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	values = append(values, header)
	return append(values, t.Rows...)
}

// Header returns the column names for the given options
func Header(opts Options) []string {
	header := []string{
		"ID", "Title", "Original Price", "Current Price", "Discount %", "Offer",
		"Es Oferta", "Es Nuevo", "Categoría",
	}
	if opts.IncludeLaunchDate {
		header = append(header, "Lanzamiento")
	}
	return append(header, "Fuente", "URL", "Image URL")
}

// Sort orders records in place. The sort is stable so equal keys keep
// discovery order.
func Sort(records []crawler.DealRecord, mode SortMode) {
	switch mode {
	case SortLaunch:
		slices.SortStableFunc(records, func(a, b crawler.DealRecord) int {
			switch {
			case a.LaunchDate == nil && b.LaunchDate == nil:
				return 0
			case a.LaunchDate == nil:
				return 1
			case b.LaunchDate == nil:
				return -1
			}
			return b.LaunchDate.Compare(*a.LaunchDate)
		})
	case SortDiscount:
		slices.SortStableFunc(records, func(a, b crawler.DealRecord) int {
			return cmp.Or(
				cmp.Compare(b.DiscountPercentage, a.DiscountPercentage),
				strings.Compare(b.Title, a.Title),
			)
		})
	default:
		slices.SortStableFunc(records, func(a, b crawler.DealRecord) int {
			return cmp.Or(
				boolCompare(b.IsDeal, a.IsDeal),
				cmp.Compare(b.DiscountPercentage, a.DiscountPercentage),
			)
		})
	}
}

// Finalize sorts a copy of the records and maps each one to a row
func Finalize(records []crawler.DealRecord, opts Options) Table {
	sorted := slices.Clone(records)
	Sort(sorted, opts.Sort)

	table := Table{Header: Header(opts), Rows: make([][]interface{}, 0, len(sorted))}
	for _, r := range sorted {
		table.Rows = append(table.Rows, Row(r, opts))
	}
	return table
}

// Row maps one record onto the worksheet columns
func Row(r crawler.DealRecord, opts Options) []interface{} {
	row := []interface{}{
		r.ProductID,
		r.Title,
		r.OriginalPrice,
		r.CurrentPrice,
		formatDiscount(r.DiscountPercentage, opts.EmptyZeroDiscount),
		r.OfferText,
		token(r.IsDeal, opts),
		token(r.IsNew, opts),
		r.Category,
	}
	if opts.IncludeLaunchDate {
		launch := ""
		if r.LaunchDate != nil {
			launch = r.LaunchDate.Format(launchLayout)
		}
		row = append(row, launch)
	}
	return append(row, string(r.SourceMethod), r.URL, r.ImageURL)
}

func formatDiscount(pct float64, emptyZero bool) string {
	if pct == 0 && emptyZero {
		return ""
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func token(v bool, opts Options) string {
	if v {
		return opts.TrueToken
	}
	return opts.FalseToken
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
