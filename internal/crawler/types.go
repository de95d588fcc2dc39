package crawler

import (
	"context"
	"io"
	"regexp"
	"time"

	"sjsage522/xbdealworker/config"
)

// SourceMethod records where a record's price fields came from
type SourceMethod string

const (
	SourceListing SourceMethod = "listing"
	SourceDetail  SourceMethod = "detail"
)

// DealRecord represents one extracted storefront product
type DealRecord struct {
	ProductID          string       `json:"product_id"`
	Title              string       `json:"title"`
	OriginalPrice      float64      `json:"original_price"`
	CurrentPrice       float64      `json:"current_price"`
	DiscountPercentage float64      `json:"discount_percentage"`
	OfferText          string       `json:"offer_text,omitempty"`
	URL                string       `json:"url"`
	ImageURL           string       `json:"image_url,omitempty"`
	Category           string       `json:"category"`
	SourceMethod       SourceMethod `json:"source_method"`
	IsNew              bool         `json:"is_new"`
	IsDeal             bool         `json:"is_deal"`
	LaunchDate         *time.Time   `json:"launch_date,omitempty"`
}

// Fetcher is the blocking request/response primitive used for every page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// Selectors contains CSS selectors and class predicates for the storefront markup
type Selectors struct {
	CardList        string
	Container       string
	Heading         string
	Image           string
	OfferBadge      string
	OriginalPrice   string
	CurrentPrice    string
	PriceRegion     string
	StatusContainer string
	NewBadgeClass   string
	DealBadgeClass  string
	NewBadgeText    string
}

// DefaultSelectors returns the selectors observed on the storefront listing pages
func DefaultSelectors() Selectors {
	return Selectors{
		CardList:        "li.col.mb-4.px-2",
		Container:       "div.card",
		Heading:         "h3.base",
		Image:           "img.card-img",
		OfferBadge:      "span.product-cards-savings-badge",
		OriginalPrice:   "span.text-line-through",
		CurrentPrice:    "span.font-weight-semibold",
		PriceRegion:     "div.card-body",
		StatusContainer: "div[id^='status-container-']",
		NewBadgeClass:   "bg-black",
		DealBadgeClass:  "bg-yellow",
		NewBadgeText:    "nuevo",
	}
}

// ZeroPricePolicy decides what happens to a record whose prices both resolve to zero
type ZeroPricePolicy string

const (
	ZeroPriceKeep ZeroPricePolicy = "keep"
	ZeroPriceDrop ZeroPricePolicy = "drop"
)

// PaginationMode decides how the listing offset advances
type PaginationMode string

const (
	// PaginateByCards advances by the number of cards the page returned
	PaginateByCards PaginationMode = "cards"
	// PaginateFixed advances by a fixed page size
	PaginateFixed PaginationMode = "fixed"
)

// Options configures the extraction pipeline
type Options struct {
	StorefrontURL string
	Locale        string
	CanonicalURL  string
	PriceMin      float64
	PriceMax      float64
	DealsOnly     bool

	ListingDelay time.Duration
	DetailDelay  time.Duration

	Pagination   PaginationMode
	PageSize     int
	TotalPattern *regexp.Regexp

	FreeMarker           string
	DropFree             bool
	ZeroPrice            ZeroPricePolicy
	TrackLaunchDate      bool
	DeepFetchOnZeroPrice bool

	Selectors Selectors
}

// OptionsFromConfig maps the application configuration onto pipeline options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	pattern, err := regexp.Compile(cfg.TotalPattern)
	if err != nil {
		return Options{}, err
	}

	return Options{
		StorefrontURL:        cfg.StorefrontURL,
		Locale:               cfg.StoreLocale,
		CanonicalURL:         cfg.CanonicalURL,
		PriceMin:             cfg.PriceMin,
		PriceMax:             cfg.PriceMax,
		DealsOnly:            cfg.DealsOnly,
		ListingDelay:         cfg.ListingDelay,
		DetailDelay:          cfg.DetailDelay,
		Pagination:           PaginationMode(cfg.PaginationMode),
		PageSize:             cfg.PageSize,
		TotalPattern:         pattern,
		FreeMarker:           cfg.FreeMarker,
		DropFree:             cfg.DropFree,
		ZeroPrice:            ZeroPricePolicy(cfg.ZeroPricePolicy),
		TrackLaunchDate:      cfg.TrackLaunchDate,
		DeepFetchOnZeroPrice: cfg.DeepFetchOnZeroPrice,
		Selectors:            DefaultSelectors(),
	}, nil
}

// DefaultOptions returns options matching the default configuration without delays
func DefaultOptions() Options {
	return Options{
		StorefrontURL: "https://www.microsoft.com",
		Locale:        "es-ar",
		CanonicalURL:  defaultCanonicalURL,
		PriceMin:      0.01,
		PriceMax:      10000,
		Pagination:    PaginateByCards,
		PageSize:      90,
		TotalPattern:  regexp.MustCompile(`(?i)\bde\s+([\d.,]+)`),
		FreeMarker:    "gratis",
		DropFree:      true,
		ZeroPrice:     ZeroPriceKeep,
		Selectors:     DefaultSelectors(),
	}
}
