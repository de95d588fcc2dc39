package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Storefront configuration
	StorefrontURL string
	StoreLocale   string
	CanonicalURL  string
	Categories    []string
	PriceMin      float64
	PriceMax      float64
	DealsOnly     bool

	// Politeness delays
	ListingDelay time.Duration
	DetailDelay  time.Duration

	// Pagination
	PaginationMode string
	PageSize       int
	TotalPattern   string

	// Card and price policies
	FreeMarker           string
	DropFree             bool
	ZeroPricePolicy      string
	TrackLaunchDate      bool
	DeepFetchOnZeroPrice bool

	// Result rendering
	SortMode          string
	EmptyZeroDiscount bool
	TrueToken         string
	FalseToken        string
	MetaCountMode     string

	// Output sink
	Sink          string
	DestinationID string
	Worksheet     string
	MetaWorksheet string

	// Redis configuration
	RedisAddr string
	RedisDB   int

	// SQL configuration
	SQLDriver string
	SQLDSN    string

	// Memcache configuration
	MemcacheAddr string
	BlockTime    time.Duration

	// HTTP transport
	HTTPTimeout time.Duration
	ProxyURL    string

	// Environment
	Environment string

	// numeric variables that failed to parse
	invalid []string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	var invalid []string
	redisDB := getInt("REDIS_DB", 0, &invalid)
	pageSize := getInt("PAGE_SIZE", 90, &invalid)
	priceMin := getFloat("PRICE_MIN", 0.01, &invalid)
	priceMax := getFloat("PRICE_MAX", 10000, &invalid)

	return &Config{
		StorefrontURL:        getEnv("STOREFRONT_URL", "https://www.microsoft.com"),
		StoreLocale:          getEnv("STORE_LOCALE", "es-ar"),
		CanonicalURL:         getEnv("CANONICAL_URL", "https://www.xbox.com"),
		Categories:           SplitList(getEnv("CATEGORIES", "top-paid,best-rated,most-popular,new-and-rising")),
		PriceMin:             priceMin,
		PriceMax:             priceMax,
		DealsOnly:            getBool("DEALS_ONLY", false),
		ListingDelay:         getDuration("LISTING_DELAY_MS", 500*time.Millisecond, time.Millisecond, &invalid),
		DetailDelay:          getDuration("DETAIL_DELAY_MS", 500*time.Millisecond, time.Millisecond, &invalid),
		PaginationMode:       getEnv("PAGINATION_MODE", "cards"),
		PageSize:             pageSize,
		TotalPattern:         getEnv("TOTAL_PATTERN", `(?i)\bde\s+([\d.,]+)`),
		FreeMarker:           getEnv("FREE_MARKER", "gratis"),
		DropFree:             getBool("DROP_FREE", true),
		ZeroPricePolicy:      getEnv("ZERO_PRICE_POLICY", "keep"),
		TrackLaunchDate:      getBool("TRACK_LAUNCH_DATE", false),
		DeepFetchOnZeroPrice: getBool("DEEP_FETCH_ON_ZERO_PRICE", false),
		SortMode:             getEnv("SORT_MODE", "deal"),
		EmptyZeroDiscount:    getBool("EMPTY_ZERO_DISCOUNT", false),
		TrueToken:            getEnv("TRUE_TOKEN", "SÍ"),
		FalseToken:           getEnv("FALSE_TOKEN", "NO"),
		MetaCountMode:        getEnv("META_COUNT_MODE", "reset"),
		Sink:                 getEnv("SINK", "table"),
		DestinationID:        getEnv("DESTINATION_ID", "xb-deals"),
		Worksheet:            getEnv("WORKSHEET", "xb"),
		MetaWorksheet:        getEnv("META_WORKSHEET", "_meta"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		SQLDriver:            getEnv("SQL_DRIVER", "sqlite"),
		SQLDSN:               getEnv("SQL_DSN", "./deals.db"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BlockTime:            getDuration("BLOCK_TIME_SECONDS", 500*time.Second, time.Second, &invalid),
		HTTPTimeout:          getDuration("HTTP_TIMEOUT_SECONDS", 10*time.Second, time.Second, &invalid),
		ProxyURL:             getEnv("PROXY_URL", ""),
		Environment:          getEnv("XBDEAL_ENVIRONMENT", "development"),
		invalid:              invalid,
	}
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if len(c.invalid) > 0 {
		return fmt.Errorf("invalid numeric value for %s", strings.Join(c.invalid, ", "))
	}
	if c.StorefrontURL == "" {
		return fmt.Errorf("storefront url is required")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	if c.PriceMin < 0 || c.PriceMax < c.PriceMin {
		return fmt.Errorf("invalid price range %v..%v", c.PriceMin, c.PriceMax)
	}
	if c.ListingDelay < 0 || c.DetailDelay < 0 {
		return fmt.Errorf("politeness delays must not be negative")
	}

	switch c.PaginationMode {
	case "cards":
	case "fixed":
		if c.PageSize <= 0 {
			return fmt.Errorf("fixed pagination requires a positive page size, got %d", c.PageSize)
		}
	default:
		return fmt.Errorf("unknown pagination mode %q", c.PaginationMode)
	}

	if !oneOf(c.ZeroPricePolicy, "keep", "drop") {
		return fmt.Errorf("unknown zero price policy %q", c.ZeroPricePolicy)
	}
	if !oneOf(c.SortMode, "deal", "launch", "discount") {
		return fmt.Errorf("unknown sort mode %q", c.SortMode)
	}
	if !oneOf(c.MetaCountMode, "count", "reset") {
		return fmt.Errorf("unknown meta count mode %q", c.MetaCountMode)
	}

	switch c.Sink {
	case "table":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis sink requires REDIS_ADDR")
		}
	case "sql":
		if !oneOf(c.SQLDriver, "sqlite", "pgx") {
			return fmt.Errorf("unsupported sql driver %q", c.SQLDriver)
		}
		if c.SQLDSN == "" {
			return fmt.Errorf("sql sink requires SQL_DSN")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}

	if c.Sink != "table" && (c.DestinationID == "" || c.Worksheet == "") {
		return fmt.Errorf("destination id and worksheet are required")
	}
	return nil
}

// SplitList splits a comma separated value, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func oneOf(value string, options ...string) bool {
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int, invalid *[]string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64, invalid *[]string) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return value
}

// getDuration reads a bare number in unit, or a Go duration such as "1s"
func getDuration(key string, defaultValue, unit time.Duration, invalid *[]string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * unit
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	*invalid = append(*invalid, key)
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
