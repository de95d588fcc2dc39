package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/xbdealworker/config"
	"sjsage522/xbdealworker/helpers"
	"sjsage522/xbdealworker/internal/aggregator"
	"sjsage522/xbdealworker/internal/crawler"
	"sjsage522/xbdealworker/services/sink"
	"sjsage522/xbdealworker/services/worker"
)

func storeCard(id, title, original, current, badges string) string {
	var prices string
	if original != "" {
		prices += fmt.Sprintf(`<span class="text-line-through">%s</span>`, original)
	}
	prices += fmt.Sprintf(`<span class="font-weight-semibold">%s</span>`, current)
	return fmt.Sprintf(`<li class="col mb-4 px-2"><div class="card" data-bi-pid="%[1]s" data-bi-prdname="%[2]s">
		<img class="card-img" src="//store-images.test/%[1]s.png?w=100"/>
		<div class="card-body"><h3 class="base"><a href="/es-ar/p/%[2]s/%[1]s?cid=1">%[2]s</a></h3>%[4]s<p>%[3]s</p></div>
	</div></li>`, id, title, prices, badges)
}

func storePage(total int, cards ...string) string {
	return fmt.Sprintf(`<html><body><div id="status-container-1">Mostrando 1 - %d de %d resultados</div><ul>%s</ul></body></html>`,
		len(cards), total, strings.Join(cards, ""))
}

// newStorefront serves two categories sharing one product plus one detail page
func newStorefront(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/es-ar/store/top-paid/games/pc?0": storePage(3,
			storeCard("HK", "hollow-knight", "ARS$ 1.000,00", "ARS$ 800,00",
				`<span class="product-cards-savings-badge badge bg-yellow-400">-20%</span>`),
			storeCard("GP", "starfield", "", "Incluido", `<span class="badge bg-black">Nuevo</span>`),
		),
		"/es-ar/store/top-paid/games/pc?2": storePage(3,
			storeCard("CE", "celeste", "", "ARS$ 2.500,00", ""),
		),
		"/es-ar/store/best-rated/games/pc?0": storePage(2,
			storeCard("CE", "celeste", "", "ARS$ 1,00", ""),
			storeCard("FR", "free-game", "", "Gratis", ""),
		),
	}
	details := map[string]string{
		"/es-ar/games/store/starfield/GP": `<html><body>
			<button aria-label="Precio original: ARS$ 2.000,00; en oferta por ARS$ 1.500,00">Comprar</button>
		</body></html>`,
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if page, ok := details[r.URL.Path]; ok {
			w.Write([]byte(page))
			return
		}
		if page, ok := pages[r.URL.Path+"?"+r.URL.Query().Get("skipItems")]; ok {
			w.Write([]byte(page))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestEndToEndRun(t *testing.T) {
	var hits int32
	srv := newStorefront(t, &hits)
	defer srv.Close()

	cfg := config.LoadConfig()
	cfg.StorefrontURL = srv.URL
	cfg.CanonicalURL = srv.URL
	cfg.Categories = []string{"top-paid", "best-rated"}
	cfg.ListingDelay = 0
	cfg.DetailDelay = 0
	cfg.Sink = "sql"
	cfg.SQLDriver = "sqlite"
	cfg.SQLDSN = ":memory:"
	cfg.DestinationID = "deals"
	cfg.MetaCountMode = "count"
	require.NoError(t, cfg.Validate())

	opts, err := crawler.OptionsFromConfig(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	s, err := sink.New(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	w := worker.NewWorker(
		crawler.NewCrawlController(helpers.NewClient(5*time.Second, ""), opts),
		s,
		worker.Options{
			Categories:    cfg.Categories,
			Worksheet:     cfg.Worksheet,
			MetaWorksheet: cfg.MetaWorksheet,
			CountMeta:     true,
			Aggregate:     aggregator.OptionsFromConfig(cfg),
		},
	)

	result, err := w.Run(ctx)
	require.NoError(t, err)

	// two top-paid pages, one detail page, one best-rated page
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	require.Len(t, result.Records, 3)

	byID := map[string]crawler.DealRecord{}
	for _, r := range result.Records {
		byID[r.ProductID] = r
	}
	assert.Equal(t, "top-paid", byID["CE"].Category, "first occurrence wins")
	assert.Equal(t, 2500.0, byID["CE"].CurrentPrice)
	assert.Equal(t, crawler.SourceDetail, byID["GP"].SourceMethod)
	assert.True(t, byID["GP"].IsNew)
	assert.Equal(t, srv.URL+"/es-ar/games/store/hollow-knight/HK", byID["HK"].URL)
	assert.Equal(t, "https://store-images.test/HK.png", byID["HK"].ImageURL)
	assert.NotContains(t, byID, "FR")

	sqlSink := s.(*sink.SQLSink)
	rows, err := sqlSink.Rows(ctx, cfg.Worksheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "HK", rows[1][0], "deals come first")
	assert.Equal(t, "SÍ", rows[1][6])
	assert.Equal(t, "GP", rows[2][0])
	assert.Equal(t, "25.00%", rows[2][4])
	assert.Equal(t, "detail", rows[2][9])
	assert.Equal(t, "CE", rows[3][0])

	count, err := sqlSink.Meta(ctx, worker.MetaCountCell)
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	stamp, err := sqlSink.Meta(ctx, worker.MetaTimestampCell)
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, stamp)
	assert.NoError(t, err)
}

func TestApplyFlags(t *testing.T) {
	cfg := &config.Config{Sink: "redis", SortMode: "deal", Categories: []string{"top-paid"}}
	applyFlags(cfg, &flags{categories: "deals, best-rated", sort: "launch", dryRun: true})

	assert.Equal(t, []string{"deals", "best-rated"}, cfg.Categories)
	assert.Equal(t, "launch", cfg.SortMode)
	assert.Equal(t, "table", cfg.Sink)
}
