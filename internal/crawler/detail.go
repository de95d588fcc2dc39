package crawler

import (
	"context"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/xbdealworker/logger"
)

var (
	detailCurrentDiscount = regexp.MustCompile(`Price-module__boldText.*Price-module__listedDiscountPrice`)
	detailCurrent         = regexp.MustCompile(`Price-module__boldText`)
	detailOriginal        = regexp.MustCompile(`Price-module__lineThroughText`)

	labelAmount  = regexp.MustCompile(`(?:[A-Z]{2,3})?\$\s*(\d(?:[\d.,]*\d)?)`)
	releaseLabel = regexp.MustCompile(`(?i)^(fecha de lanzamiento|release date)\s*:?$`)
)

// Resolution is what a detail page contributed to a record
type Resolution struct {
	Original   float64
	Current    float64
	LaunchDate *time.Time
	// OK reports that the detail page was fetched and parsed
	OK bool
}

// detailPriceFunc is one price extraction strategy over a detail page
type detailPriceFunc func(doc *goquery.Selection) (original, current float64, ok bool)

// DeepFetchResolver fetches a product's detail page when the card alone
// cannot provide its prices or launch date
type DeepFetchResolver struct {
	fetcher         Fetcher
	delay           time.Duration
	trackLaunchDate bool
	onZeroPrice     bool
	strategies      []detailPriceFunc
	sleep           sleepFunc
	log             *logger.Logger
}

// NewDeepFetchResolver creates a resolver
func NewDeepFetchResolver(fetcher Fetcher, opts Options) *DeepFetchResolver {
	return &DeepFetchResolver{
		fetcher:         fetcher,
		delay:           opts.DetailDelay,
		trackLaunchDate: opts.TrackLaunchDate,
		onZeroPrice:     opts.DeepFetchOnZeroPrice,
		strategies:      []detailPriceFunc{structuredPrice, accessibilityLabelPrice},
		sleep:           sleepContext,
		log:             logger.ForResolver(),
	}
}

// NeedsResolution decides whether a candidate requires a detail page fetch
func (r *DeepFetchResolver) NeedsResolution(c *Candidate) bool {
	switch {
	case c.Strategy == StrategySubscription:
		return true
	case r.trackLaunchDate:
		// the launch date never appears on the listing card
		return true
	case r.onZeroPrice && c.Record.CurrentPrice == 0:
		return true
	}
	return false
}

// Resolve fetches the detail page for a partial record. Failures degrade to
// a zero Resolution and are never returned as errors.
func (r *DeepFetchResolver) Resolve(ctx context.Context, partial *DealRecord, detailURL string) Resolution {
	log := r.log.WithField("product_id", partial.ProductID)
	if detailURL == "" {
		log.Debug().Msg("No detail URL, skipping deep fetch")
		return Resolution{}
	}

	log.Debug().Str("url", detailURL).Msg("Inspecting detail page")
	body, err := r.fetcher.Fetch(ctx, detailURL)
	defer r.sleep(ctx, r.delay)
	if err != nil {
		log.Warn().Err(err).Msg("Deep fetch failed")
		return Resolution{}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		log.Warn().Err(err).Msg("Detail page is not parseable")
		return Resolution{}
	}

	res := Resolution{OK: true}
	for _, strategy := range r.strategies {
		if original, current, ok := strategy(doc.Selection); ok {
			res.Original, res.Current = original, current
			break
		}
	}

	if r.trackLaunchDate {
		if date, ok := launchDate(doc.Selection); ok {
			res.LaunchDate = &date
		}
	}
	return res
}

// Apply merges a resolution into the record. Detail prices only fill
// fields the listing left at zero; identity fields are never touched.
func (r *DealRecord) Apply(res Resolution) {
	fromDetail := false
	if r.OriginalPrice == 0 && res.Original > 0 {
		r.OriginalPrice = res.Original
		fromDetail = true
	}
	if r.CurrentPrice == 0 && res.Current > 0 {
		r.CurrentPrice = res.Current
		fromDetail = true
	}
	if res.LaunchDate != nil {
		r.LaunchDate = res.LaunchDate
	}
	if fromDetail {
		r.SourceMethod = SourceDetail
	}
}

func structuredPrice(doc *goquery.Selection) (float64, float64, bool) {
	currentNode := FindFirst(doc, "span", ClassMatches(detailCurrentDiscount))
	if currentNode.Length() == 0 {
		currentNode = FindFirst(doc, "span", ClassMatches(detailCurrent))
	}
	current := NormalizePrice(Text(currentNode))
	if current <= 0 {
		return 0, 0, false
	}

	original := current
	if node := FindFirst(doc, "span", ClassMatches(detailOriginal)); node.Length() > 0 {
		if amount := NormalizePrice(Text(node)); amount > 0 {
			original = amount
		}
	}
	return original, current, true
}

func accessibilityLabelPrice(doc *goquery.Selection) (float64, float64, bool) {
	var original, current float64
	found := false

	doc.Find("button[aria-label], a[aria-label]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		label, _ := el.Attr("aria-label")
		matches := labelAmount.FindAllStringSubmatch(label, 2)

		switch len(matches) {
		case 2:
			original = NormalizePrice(matches[0][1])
			current = NormalizePrice(matches[1][1])
		case 1:
			original = NormalizePrice(matches[0][1])
			current = original
		default:
			return true
		}

		found = current > 0
		return !found
	})

	return original, current, found
}

func launchDate(doc *goquery.Selection) (time.Time, bool) {
	label := FindByOwnText(doc, releaseLabel)
	if label.Length() == 0 {
		return time.Time{}, false
	}

	value := label.Next()
	if value.Length() == 0 {
		value = label.Parent().Next()
	}
	return NormalizeDate(Text(value))
}
