package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	crawlerrors "sjsage522/xbdealworker/pkg/errors"
)

// Browser-like header pools
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

// Client is a blocking page fetcher with browser-like headers.
// It never retries: a failed request is reported once to the caller.
type Client struct {
	rc  *resty.Client
	mu  sync.Mutex
	rnd *mathrand.Rand
}

// NewClient creates a fetch client. proxyURL may be empty.
func NewClient(timeout time.Duration, proxyURL string) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if proxyURL != "" {
		rc.SetProxy(proxyURL)
	}

	return &Client{
		rc:  rc,
		rnd: mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Client) pick(pool []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pool[c.rnd.Intn(len(pool))]
}

// Fetch sends a GET request with randomized browser headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func (c *Client) Fetch(ctx context.Context, target string) (io.Reader, error) {
	host := hostOf(target)

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"User-Agent":                c.pick(userAgents),
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "es-AR,es;q=0.9,en-US;q=0.8,en;q=0.7",
			"Cache-Control":             "no-cache",
			"Pragma":                    "no-cache",
			"Referer":                   c.pick(referers),
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "cross-site",
			"Sec-Fetch-User":            "?1",
		}).
		Get(target)
	if err != nil {
		return nil, crawlerrors.NewNetwork(host, "failed to fetch URL", err)
	}

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode()) {
		return nil, crawlerrors.NewRateLimit(host, parseRetryAfter(resp.Header().Get("Retry-After")))
	}

	if !resp.IsSuccess() {
		return nil, crawlerrors.NewNetwork(host, fmt.Sprintf("fetch %s unexpected status code: %d", target, resp.StatusCode()), nil)
	}

	return DecodeUTF8(resp.Body(), resp.Header().Get("Content-Type"))
}

// DecodeUTF8 converts a body to UTF-8 using the Content-Type header and body sniffing
func DecodeUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return &buf, nil
}

func parseRetryAfter(value string) time.Duration {
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	return u.Host
}
