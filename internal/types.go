package internal

import (
	"sjsage522/xbdealworker/internal/crawler"
	"sjsage522/xbdealworker/services/cache"
	"sjsage522/xbdealworker/services/sink"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache   cache.CacheService
	Sink    sink.Sink
	Fetcher crawler.Fetcher
}

// Cleanup closes the services that hold connections
func (d *Dependencies) Cleanup() error {
	if d.Sink != nil {
		return d.Sink.Close()
	}
	return nil
}
