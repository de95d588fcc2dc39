package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/xbdealworker/logger"
	crawlerrors "sjsage522/xbdealworker/pkg/errors"
)

// CrawlState is the process-scoped state of one run
type CrawlState struct {
	Category string
	Offset   int
	Expected int
	seen     map[string]struct{}
}

// NewCrawlState creates an empty run state
func NewCrawlState() *CrawlState {
	return &CrawlState{seen: make(map[string]struct{})}
}

// Seen reports whether a product id was already extracted in this run
func (s *CrawlState) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// MarkSeen records a product id, reporting false if it was already present
func (s *CrawlState) MarkSeen(id string) bool {
	if s.Seen(id) {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// CategoryReport summarizes the crawl of one category
type CategoryReport struct {
	Category   string
	Pages      int
	Expected   int
	Added      int
	Duplicates int
	Dropped    int
	Err        error
}

// RunResult is the outcome of a crawl run
type RunResult struct {
	Records    []DealRecord
	Categories []CategoryReport
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// CrawlController walks the listing pages of each category in order
type CrawlController struct {
	fetcher  Fetcher
	parser   *CardParser
	resolver *DeepFetchResolver
	opts     Options
	sleep    sleepFunc
}

// NewCrawlController creates a controller that fetches every page through fetcher
func NewCrawlController(fetcher Fetcher, opts Options) *CrawlController {
	return &CrawlController{
		fetcher:  fetcher,
		parser:   NewCardParser(opts),
		resolver: NewDeepFetchResolver(fetcher, opts),
		opts:     opts,
		sleep:    sleepContext,
	}
}

// Run crawls the categories in the given order and returns the unique
// records in discovery order. A failing category never aborts the run.
func (c *CrawlController) Run(ctx context.Context, categories []string) RunResult {
	state := NewCrawlState()
	var result RunResult

	for _, category := range categories {
		if ctx.Err() != nil {
			break
		}
		report := c.crawlCategory(ctx, state, category, &result.Records)
		result.Categories = append(result.Categories, report)
	}
	return result
}

func (c *CrawlController) crawlCategory(ctx context.Context, state *CrawlState, category string, records *[]DealRecord) CategoryReport {
	log := logger.ForCategory(category)
	log.Info().Msg("Starting category")

	state.Category = category
	state.Offset = 0
	state.Expected = unknownTotal
	report := CategoryReport{Category: category, Expected: -1}

	for {
		if err := ctx.Err(); err != nil {
			report.Err = err
			return report
		}

		target := ListingURL(c.opts, category, state.Offset)
		log.Info().Int("offset", state.Offset).Msg("Scanning listing page")

		body, err := c.fetcher.Fetch(ctx, target)
		report.Pages++
		if err != nil {
			report.Err = err
			log.Error().Err(err).Str("type", string(crawlerrors.TypeOf(err))).Msg("Listing page failed, ending category")
			return report
		}

		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			report.Err = crawlerrors.NewParsing(category, "listing page is not parseable", err)
			log.Error().Err(err).Msg("Listing page failed, ending category")
			return report
		}

		if state.Offset == 0 {
			if total, ok := ParseTotalCount(doc.Selection, c.opts.Selectors.StatusContainer, c.opts.TotalPattern); ok {
				state.Expected = total
				report.Expected = total
				log.Info().Int("total", total).Msg("Declared total detected")
			}
		}

		cards := doc.Find(c.opts.Selectors.CardList)
		if cards.Length() == 0 {
			log.Info().Msg("No more items on this page")
			break
		}

		cards.Each(func(_ int, card *goquery.Selection) {
			c.processCard(ctx, state, card, category, records, &report)
		})

		state.Offset += c.advance(cards.Length())
		if state.Offset >= state.Expected {
			break
		}

		if err := c.sleep(ctx, c.opts.ListingDelay); err != nil {
			report.Err = err
			return report
		}
	}

	log.Info().
		Int("pages", report.Pages).
		Int("added", report.Added).
		Int("duplicates", report.Duplicates).
		Int("dropped", report.Dropped).
		Msg("Category complete")
	return report
}

func (c *CrawlController) processCard(ctx context.Context, state *CrawlState, card *goquery.Selection, category string, records *[]DealRecord, report *CategoryReport) {
	log := logger.ForCategory(category)

	candidate, err := c.parser.Parse(card, category)
	if err != nil {
		log.Debug().Err(err).Msg("Dropping unparseable card")
		report.Dropped++
		return
	}
	if candidate == nil {
		report.Dropped++
		return
	}

	record := &candidate.Record
	if state.Seen(record.ProductID) {
		report.Duplicates++
		return
	}

	if c.resolver.NeedsResolution(candidate) {
		record.Apply(c.resolver.Resolve(ctx, record, record.URL))
	}

	if !record.Settle(c.opts.ZeroPrice) {
		log.Debug().Str("product_id", record.ProductID).Msg("Dropping zero priced item")
		report.Dropped++
		return
	}

	state.MarkSeen(record.ProductID)
	*records = append(*records, *record)
	report.Added++

	log.Debug().
		Str("product_id", record.ProductID).
		Str("title", record.Title).
		Bool("deal", record.IsDeal).
		Bool("new", record.IsNew).
		Str("source", string(record.SourceMethod)).
		Msg("Added item")
}

func (c *CrawlController) advance(cardCount int) int {
	if c.opts.Pagination == PaginateFixed && c.opts.PageSize > 0 {
		return c.opts.PageSize
	}
	return cardCount
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
