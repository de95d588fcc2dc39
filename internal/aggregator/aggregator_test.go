package aggregator

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/xbdealworker/internal/crawler"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func ids(records []crawler.DealRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ProductID)
	}
	return out
}

func sampleRecords() []crawler.DealRecord {
	return []crawler.DealRecord{
		{ProductID: "A", Title: "Alpha", DiscountPercentage: 10},
		{ProductID: "B", Title: "Bravo", DiscountPercentage: 50, IsDeal: true},
		{ProductID: "C", Title: "Charlie", DiscountPercentage: 30, IsDeal: true, LaunchDate: date(2023, 9, 6)},
		{ProductID: "D", Title: "Delta", DiscountPercentage: 10, LaunchDate: date(2024, 3, 15)},
		{ProductID: "E", Title: "Echo", DiscountPercentage: 0},
	}
}

func TestSortModes(t *testing.T) {
	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortDeal, []string{"B", "C", "A", "D", "E"}},
		{SortLaunch, []string{"D", "C", "A", "B", "E"}},
		{SortDiscount, []string{"B", "C", "D", "A", "E"}},
		{SortMode("unknown"), []string{"B", "C", "A", "D", "E"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			records := sampleRecords()
			Sort(records, tt.mode)
			if diff := cmp.Diff(tt.want, ids(records)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFinalizeRows(t *testing.T) {
	records := []crawler.DealRecord{
		{
			ProductID: "9NBLGGH4R315", Title: "Hollow Knight",
			OriginalPrice: 1000, CurrentPrice: 800, DiscountPercentage: 20,
			OfferText: "-20%", IsDeal: true, Category: "top-paid",
			SourceMethod: crawler.SourceListing,
			URL:          "https://www.xbox.com/es-ar/games/store/hollow-knight/9NBLGGH4R315",
			ImageURL:     "https://store-images.s-microsoft.com/a.png",
		},
		{
			ProductID: "GP1", Title: "Starfield",
			OriginalPrice: 2000, CurrentPrice: 2000, IsNew: true, Category: "best-rated",
			SourceMethod: crawler.SourceDetail,
		},
	}

	table := Finalize(records, DefaultOptions())

	want := [][]interface{}{
		{"ID", "Title", "Original Price", "Current Price", "Discount %", "Offer", "Es Oferta", "Es Nuevo", "Categoría", "Fuente", "URL", "Image URL"},
		{"9NBLGGH4R315", "Hollow Knight", 1000.0, 800.0, "20.00%", "-20%", "SÍ", "NO", "top-paid", "listing",
			"https://www.xbox.com/es-ar/games/store/hollow-knight/9NBLGGH4R315", "https://store-images.s-microsoft.com/a.png"},
		{"GP1", "Starfield", 2000.0, 2000.0, "0.00%", "", "NO", "SÍ", "best-rated", "detail", "", ""},
	}
	if diff := cmp.Diff(want, table.Values()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "9NBLGGH4R315", records[0].ProductID, "input order is not modified")
}

func TestFinalizeOptions(t *testing.T) {
	records := []crawler.DealRecord{
		{ProductID: "X", LaunchDate: date(2023, 9, 6)},
		{ProductID: "Y"},
	}
	opts := Options{
		Sort:              SortLaunch,
		TrueToken:         "yes",
		FalseToken:        "no",
		EmptyZeroDiscount: true,
		IncludeLaunchDate: true,
	}

	table := Finalize(records, opts)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Lanzamiento", table.Header[9])
	assert.Len(t, table.Rows[0], len(table.Header))
	assert.Equal(t, "", table.Rows[0][4])
	assert.Equal(t, "no", table.Rows[0][6])
	assert.Equal(t, "2023-09-06", table.Rows[0][9])
	assert.Equal(t, "", table.Rows[1][9])
}

func TestFinalizeEmpty(t *testing.T) {
	table := Finalize(nil, DefaultOptions())
	assert.Empty(t, table.Rows)
	assert.Len(t, table.Values(), 1)
}
