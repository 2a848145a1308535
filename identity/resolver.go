// Package identity maps raw client identifiers from the query log (IP
// addresses or opaque ids) to the display names of the clients registered on
// the appliance.
package identity

import (
	"net"
	"strings"
	"sync"

	"github.com/dnsboard/dnsboard/model"

	lru "github.com/hashicorp/golang-lru"
)

const resolveCacheSize = 1024

type rangeEntry struct {
	network *net.IPNet
	name    string
}

// Index is the in-memory lookup structure built from the appliance's
// registered client list
type Index struct {
	exact map[string]string
	// ranges keep the build order: overlapping ranges of different clients
	// resolve deterministically to the first one, specificity is not
	// considered
	ranges []rangeEntry
}

// BuildIndex creates a new index. Identifiers containing a '/' are treated as
// CIDR ranges, everything else as literal identifiers. Malformed CIDR
// literals are kept verbatim in the exact table so a lookup for the literal
// string still succeeds.
func BuildIndex(clients []model.ApplianceClient) *Index {
	index := &Index{
		exact: make(map[string]string),
	}

	for _, client := range clients {
		for _, id := range client.IDs {
			if strings.Contains(id, "/") {
				_, network, err := net.ParseCIDR(id)
				if err == nil {
					index.ranges = append(index.ranges, rangeEntry{network: network, name: client.Name})

					continue
				}
			}

			if _, ok := index.exact[id]; !ok {
				index.exact[id] = client.Name
			}
		}
	}

	return index
}

// Resolve returns the display name for a raw identifier. An exact match
// always wins, otherwise the first containing CIDR range in build order.
// Resolve is total: without any match the raw identifier is returned
// unchanged.
func (i *Index) Resolve(rawID string) string {
	if name, ok := i.exact[rawID]; ok {
		return name
	}

	if ip := net.ParseIP(rawID); ip != nil {
		for _, entry := range i.ranges {
			if entry.network.Contains(ip) {
				return entry.name
			}
		}
	}

	return rawID
}

// Resolver combines the index with a small LRU cache of resolve results. The
// cache is dropped on every rebuild so stale names never survive an index
// refresh. Resolver is safe for concurrent use, the index swap is guarded
// against in-flight resolves.
type Resolver struct {
	lock  sync.RWMutex
	index *Index
	cache *lru.Cache
}

// NewResolver creates a resolver over an empty index
func NewResolver() *Resolver {
	cache, _ := lru.New(resolveCacheSize)

	return &Resolver{
		index: BuildIndex(nil),
		cache: cache,
	}
}

// Rebuild replaces the index with one built from the passed client list
func (r *Resolver) Rebuild(clients []model.ApplianceClient) {
	index := BuildIndex(clients)

	r.lock.Lock()
	defer r.lock.Unlock()

	r.index = index
	r.cache.Purge()
}

// Resolve returns the display name for the raw identifier
func (r *Resolver) Resolve(rawID string) string {
	if name, ok := r.cache.Get(rawID); ok {
		return name.(string)
	}

	// the read lock also covers the cache insert so a rebuild can not purge
	// in between and leave a stale entry behind
	r.lock.RLock()
	defer r.lock.RUnlock()

	name := r.index.Resolve(rawID)
	r.cache.Add(rawID, name)

	return name
}

// Annotate fills ClientResolved on all passed records in place
func (r *Resolver) Annotate(records []model.LogRecord) {
	for idx := range records {
		records[idx].ClientResolved = r.Resolve(records[idx].ClientRaw)
	}
}
