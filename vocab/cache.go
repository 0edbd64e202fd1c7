package vocab

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes vocabularies for the lifetime of the process.
//
// A category is cached the first time its Source returns a non-empty set and
// is never refreshed afterwards. Failures and empty vocabularies are not
// cached: the caller gets the category fallback and the next call fetches
// again. Concurrent first lookups of one category share a single request.
type Cache struct {
	logger logrus.FieldLogger
	source Source

	mu   sync.RWMutex
	sets map[Category]TermSet

	group singleflight.Group
}

func NewCache(logger logrus.FieldLogger, source Source) *Cache {
	return &Cache{
		logger: logger,
		source: source,
		sets:   make(map[Category]TermSet),
	}
}

// Get returns the accepted terms of category. It never fails.
func (c *Cache) Get(ctx context.Context, category Category) TermSet {
	if set, ok := c.cached(category); ok {
		return set
	}
	v, _, _ := c.group.Do(string(category), func() (interface{}, error) {
		if set, ok := c.cached(category); ok {
			return set, nil
		}
		return c.populate(ctx, category), nil
	})
	return v.(TermSet)
}

// Preload stores terms for category unless a set is already cached. An empty
// list is ignored.
func (c *Cache) Preload(category Category, terms ...string) {
	if len(terms) == 0 {
		return
	}
	c.store(category, NewTermSet(terms...))
}

func (c *Cache) cached(category Category) (TermSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.sets[category]
	return set, ok
}

func (c *Cache) store(category Category, set TermSet) TermSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sets[category]; ok {
		return existing
	}
	c.sets[category] = set
	return set
}

func (c *Cache) populate(ctx context.Context, category Category) TermSet {
	logger := c.logger.WithField("category", category)
	logger.Info("Fetching approved terms from the CESSDA vocabulary")

	set, err := c.source.Terms(ctx, category)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch vocabulary, using fallback terms")
		return category.Fallback()
	}
	if set.Len() == 0 {
		logger.Warn("Vocabulary is empty, using fallback terms")
		return category.Fallback()
	}

	set = c.store(category, set)
	logger.WithField("terms", set.Terms()).Infof("Fetched %d approved terms", set.Len())
	return set
}

// Log writes the cached categories to the logger.
func (c *Cache) Log() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.sets) == 0 {
		c.logger.Warn("No vocabulary has been cached yet")
		return
	}
	for category, set := range c.sets {
		c.logger.WithFields(logrus.Fields{
			"category": category,
			"terms":    set.Len(),
		}).Warn("Cached vocabulary found")
	}
}
