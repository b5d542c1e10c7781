package internal

import (
	"sjsage522/newsharvester/services/cache"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/status"
	"sjsage522/newsharvester/services/store"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     *store.SQLiteStore
	Status    *status.Service
}

// Close releases the publisher and database connections
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Store != nil {
		d.Store.Close()
	}
}
