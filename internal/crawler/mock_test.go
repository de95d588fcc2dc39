package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	crawlerrors "sjsage522/xbdealworker/pkg/errors"
	"sjsage522/xbdealworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// MockFetcher serves canned pages keyed by URL and records every request
type MockFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	errs     map[string]error
	requests []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (m *MockFetcher) Fetch(_ context.Context, url string) (io.Reader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, url)

	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	if page, ok := m.pages[url]; ok {
		return strings.NewReader(page), nil
	}
	return nil, crawlerrors.NewNetwork("mock", fmt.Sprintf("fetch %s unexpected status code: 404", url), nil)
}

func (m *MockFetcher) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// testOptions returns default options with no politeness delays
func testOptions() Options {
	opts := DefaultOptions()
	opts.StorefrontURL = "https://store.test"
	opts.CanonicalURL = "https://www.xbox.com"
	return opts
}

func noSleep(context.Context, time.Duration) error { return nil }

// cardHTML renders one listing card the way the storefront does
type cardSpec struct {
	ID       string
	Title    string
	Href     string
	Image    string
	Original string
	Current  string
	Region   string
	Badges   string
	Extra    string
}

func cardHTML(c cardSpec) string {
	var b strings.Builder
	b.WriteString(`<li class="col mb-4 px-2">`)
	fmt.Fprintf(&b, `<div class="card material-card" data-bi-pid="%s" data-bi-prdname="%s">`, c.ID, c.Title)
	if c.Image != "" {
		fmt.Fprintf(&b, `<img class="card-img" src="%s"/>`, c.Image)
	}
	b.WriteString(`<div class="card-body">`)
	fmt.Fprintf(&b, `<h3 class="base"><a href="%s">%s</a></h3>`, c.Href, c.Title)
	b.WriteString(c.Badges)
	b.WriteString(`<p>`)
	if c.Original != "" {
		fmt.Fprintf(&b, `<span class="text-line-through text-muted">%s</span>`, c.Original)
	}
	if c.Current != "" {
		fmt.Fprintf(&b, `<span class="font-weight-semibold">%s</span>`, c.Current)
	}
	b.WriteString(c.Region)
	b.WriteString(`</p>`)
	b.WriteString(c.Extra)
	b.WriteString(`</div></div></li>`)
	return b.String()
}

func listingPage(status string, cards ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if status != "" {
		fmt.Fprintf(&b, `<div id="status-container-1"><span>%s</span></div>`, status)
	}
	b.WriteString(`<ul class="row">`)
	for _, c := range cards {
		b.WriteString(c)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// newStorefrontServer serves listing pages by category and offset, plus detail pages
func newStorefrontServer(t *testing.T, listings map[string]map[string]string, details map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if page, ok := details[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(page))
			return
		}
		for category, pages := range listings {
			if r.URL.Path == "/es-ar/store/"+category+"/games/pc" {
				if page, ok := pages[r.URL.Query().Get("skipItems")]; ok {
					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.Write([]byte(page))
					return
				}
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}
