package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://www.microsoft.com", config.StorefrontURL)
	assert.Equal(t, "es-ar", config.StoreLocale)
	assert.Equal(t, []string{"top-paid", "best-rated", "most-popular", "new-and-rising"}, config.Categories)
	assert.Equal(t, 500*time.Millisecond, config.ListingDelay)
	assert.Equal(t, "keep", config.ZeroPricePolicy)
	assert.Equal(t, "table", config.Sink)
	assert.True(t, config.DropFree)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("CATEGORIES", "deals, top-paid,,")
	t.Setenv("LISTING_DELAY_MS", "1500")
	t.Setenv("DETAIL_DELAY_MS", "0")
	t.Setenv("DEALS_ONLY", "true")
	t.Setenv("PAGINATION_MODE", "fixed")
	t.Setenv("PAGE_SIZE", "24")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SINK", "redis")

	config = LoadConfig()
	assert.Equal(t, []string{"deals", "top-paid"}, config.Categories)
	assert.Equal(t, 1500*time.Millisecond, config.ListingDelay)
	assert.Equal(t, time.Duration(0), config.DetailDelay)
	assert.True(t, config.DealsOnly)
	assert.Equal(t, 24, config.PageSize)
	assert.Equal(t, 2, config.RedisDB)
	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"no categories", func(c *Config) { c.Categories = nil }, "at least one category"},
		{"inverted price range", func(c *Config) { c.PriceMin, c.PriceMax = 10, 1 }, "invalid price range"},
		{"negative delay", func(c *Config) { c.DetailDelay = -time.Second }, "delays"},
		{"fixed without size", func(c *Config) { c.PaginationMode, c.PageSize = "fixed", 0 }, "positive page size"},
		{"bad pagination", func(c *Config) { c.PaginationMode = "infinite" }, "pagination mode"},
		{"bad zero policy", func(c *Config) { c.ZeroPricePolicy = "maybe" }, "zero price policy"},
		{"bad sort", func(c *Config) { c.SortMode = "random" }, "sort mode"},
		{"bad sink", func(c *Config) { c.Sink = "sheets" }, "unknown sink"},
		{"bad sql driver", func(c *Config) { c.Sink, c.SQLDriver = "sql", "mysql" }, "sql driver"},
		{"missing worksheet", func(c *Config) { c.Sink, c.Worksheet = "redis", "" }, "worksheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := LoadConfig()
			tt.mutate(c)
			err := c.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoadConfigNumericValues(t *testing.T) {
	t.Run("duration units", func(t *testing.T) {
		t.Setenv("LISTING_DELAY_MS", "1s")
		t.Setenv("DETAIL_DELAY_MS", "250ms")
		t.Setenv("HTTP_TIMEOUT_SECONDS", "15")

		c := LoadConfig()
		assert.Equal(t, time.Second, c.ListingDelay)
		assert.Equal(t, 250*time.Millisecond, c.DetailDelay)
		assert.Equal(t, 15*time.Second, c.HTTPTimeout)
		assert.NoError(t, c.Validate())
	})

	t.Run("malformed delay is rejected", func(t *testing.T) {
		t.Setenv("LISTING_DELAY_MS", "fast")

		err := LoadConfig().Validate()
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "LISTING_DELAY_MS")
		}
	})

	t.Run("malformed integers and prices are rejected", func(t *testing.T) {
		t.Setenv("PAGE_SIZE", "ninety")
		t.Setenv("PRICE_MAX", "10.000,00")

		err := LoadConfig().Validate()
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "PAGE_SIZE")
			assert.Contains(t, err.Error(), "PRICE_MAX")
		}
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,b,"))
	assert.Nil(t, SplitList(""))
}
