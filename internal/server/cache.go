package server

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/dgryski/go-farm"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/validation"
)

// cachedDocument is a parsed request document with its validation verdict.
// Documents are never modified after parsing, so entries are shared between
// concurrent requests.
type cachedDocument struct {
	query    string
	doc      *language.QueryDocument
	validity *executor.Validity
}

// documentCache keeps parsed documents keyed by the farm fingerprint of
// their text. A nil cache stores nothing.
type documentCache struct {
	cache *ristretto.Cache[uint64, *cachedDocument]
}

func newDocumentCache(size int64) (*documentCache, error) {
	if size <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *cachedDocument]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
		Cost:        func(*cachedDocument) int64 { return 1 },
	})
	if err != nil {
		return nil, err
	}
	return &documentCache{cache: cache}, nil
}

func (c *documentCache) get(query string) (*cachedDocument, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.cache.Get(farm.Fingerprint64([]byte(query)))
	// Fingerprints may collide; the text decides.
	if !ok || entry.query != query {
		return nil, false
	}
	return entry, true
}

func (c *documentCache) set(entry *cachedDocument) {
	if c == nil {
		return
	}
	c.cache.Set(farm.Fingerprint64([]byte(entry.query)), entry, 1)
}

func (c *documentCache) close() {
	if c != nil {
		c.cache.Close()
	}
}

// document parses and validates query, consulting the cache first.
func (h *Handler) document(query string) (*language.QueryDocument, *executor.Validity) {
	if entry, ok := h.docs.get(query); ok {
		return entry.doc, entry.validity
	}
	var entry *cachedDocument
	if h.validator != nil {
		doc, validity := h.validator.ParseAndValidate(query)
		entry = &cachedDocument{query: query, doc: doc, validity: validity}
	} else {
		doc, validity := validation.Parse(query)
		entry = &cachedDocument{query: query, doc: doc, validity: validity}
	}
	h.docs.set(entry)
	return entry.doc, entry.validity
}
