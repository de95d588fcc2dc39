package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	crawlerrors "sjsage522/xbdealworker/pkg/errors"
)

// PriceStrategy selects where a card's prices are read from
type PriceStrategy int

const (
	// StrategyListing reads struck-through and semibold amounts from the card
	StrategyListing PriceStrategy = iota
	// StrategySubscription defers pricing to the detail page because the
	// card only advertises subscription inclusion
	StrategySubscription
)

func (s PriceStrategy) String() string {
	switch s {
	case StrategySubscription:
		return "subscription"
	default:
		return "listing"
	}
}

var subscriptionMarkers = []string{
	"incluido",
	"included",
	"game pass",
	"ea play",
	"ubisoft+",
}

// ClassifyPrice decides the price strategy from the text of a card's price region
func ClassifyPrice(regionText string) PriceStrategy {
	lower := strings.ToLower(regionText)
	for _, marker := range subscriptionMarkers {
		if strings.Contains(lower, marker) {
			return StrategySubscription
		}
	}
	return StrategyListing
}

// Candidate is a parsed card before detail resolution and settlement
type Candidate struct {
	Record   DealRecord
	Strategy PriceStrategy
}

// CardParser turns one listing fragment into a candidate record
type CardParser struct {
	sel          Selectors
	canonicalURL string
	freeMarker   string
	dropFree     bool
}

// NewCardParser creates a card parser
func NewCardParser(opts Options) *CardParser {
	return &CardParser{
		sel:          opts.Selectors,
		canonicalURL: opts.CanonicalURL,
		freeMarker:   strings.ToLower(opts.FreeMarker),
		dropFree:     opts.DropFree,
	}
}

// Parse extracts a candidate from a card fragment. A nil candidate with a nil
// error means the card was excluded by policy; an error means the card lacks
// a required node or attribute. Neither is fatal to the page.
func (p *CardParser) Parse(card *goquery.Selection, category string) (*Candidate, error) {
	container := card.Find(p.sel.Container).First()
	if container.Length() == 0 {
		return nil, crawlerrors.NewParsing("card", "card container not found", nil)
	}

	pid, ok := Attr(container, "data-bi-pid")
	if !ok {
		return nil, crawlerrors.NewParsing("card", "card has no product id", nil)
	}

	if p.dropFree && p.freeMarker != "" &&
		strings.Contains(strings.ToLower(card.Text()), p.freeMarker) {
		return nil, nil
	}

	title, ok := Attr(container, "data-bi-prdname")
	if !ok {
		title = "Unknown"
	}

	heading := container.Find(p.sel.Heading).First()
	if heading.Length() == 0 {
		return nil, crawlerrors.NewParsing("card", "card heading not found for "+pid, nil)
	}
	href, _ := Attr(heading.Find("a"), "href")

	src, _ := Attr(container.Find(p.sel.Image), "src")

	record := DealRecord{
		ProductID:    pid,
		Title:        title,
		OfferText:    Text(container.Find(p.sel.OfferBadge)),
		URL:          NormalizeURL(href, p.canonicalURL),
		ImageURL:     CleanImageURL(src),
		Category:     category,
		SourceMethod: SourceListing,
		// color alone marks a deal, "new" also needs the text marker
		IsDeal: FindFirst(container, "span", ClassContains(p.sel.DealBadgeClass)).Length() > 0,
		IsNew:  p.isNew(container),
	}

	region := container.Find(p.sel.PriceRegion).First()
	if region.Length() == 0 {
		region = container
	}
	// the title may itself read "EA Play" or "Included"
	priced := region.Clone()
	priced.Find(p.sel.Heading).Remove()
	strategy := ClassifyPrice(priced.Text())

	if strategy == StrategyListing {
		record.OriginalPrice = NormalizePrice(Text(container.Find(p.sel.OriginalPrice)))
		record.CurrentPrice = NormalizePrice(Text(container.Find(p.sel.CurrentPrice)))
	}

	return &Candidate{Record: record, Strategy: strategy}, nil
}

func (p *CardParser) isNew(container *goquery.Selection) bool {
	badge := FindFirst(container, "span", ClassContains(p.sel.NewBadgeClass))
	if badge.Length() == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(badge.Text()), p.sel.NewBadgeText)
}
