package llm

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ModelLister reports the models an endpoint serves.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

const catalogKey = "models"

// Catalog caches the model list and falls back to a fixed list when the
// endpoint cannot be reached or reports nothing.
type Catalog struct {
	lister   ModelLister
	fallback []string
	cache    *expirable.LRU[string, []string]
	log      *slog.Logger
}

func NewCatalog(lister ModelLister, fallback []string, ttl time.Duration, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{
		lister:   lister,
		fallback: append([]string(nil), fallback...),
		cache:    expirable.NewLRU[string, []string](1, nil, ttl),
		log:      log.With("component", "catalog"),
	}
}

// Models returns model ids with "instant" models first, then by name.
// Fallback results are not cached so the next call retries the endpoint.
func (c *Catalog) Models(ctx context.Context) []string {
	if ids, ok := c.cache.Get(catalogKey); ok {
		return append([]string(nil), ids...)
	}

	ids, err := c.lister.ListModels(ctx)
	if err != nil {
		c.log.Warn("model listing failed, using fallback", "error", err)
		return append([]string(nil), c.fallback...)
	}
	if len(ids) == 0 {
		return append([]string(nil), c.fallback...)
	}

	SortModels(ids)
	c.cache.Add(catalogKey, ids)
	return append([]string(nil), ids...)
}

// SortModels orders ids containing "instant" first, each group by name.
func SortModels(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := strings.Contains(ids[i], "instant"), strings.Contains(ids[j], "instant")
		if a != b {
			return a
		}
		return ids[i] < ids[j]
	})
}
