package options

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Options holds the distinct non-empty values observed across all current
// records, for populating the search and entry selectors. Text lists are
// sorted ascending, years descending. These are soft enumerations: any new
// free-text value silently extends them on the next recompute.
type Options struct {
	Regions    []string `json:"regions"`
	Sites      []string `json:"sites"`
	Cameras    []string `json:"cameras"`
	Inspectors []string `json:"inspectors"`
	Years      []int    `json:"years"`
}

const cacheKey = "options"

// Provider derives option lists from a full scan of the record store,
// behind a time-based cache. Repeated loads within the freshness window
// return the cached tuple; any successful mutation must call Invalidate
// before its success is reported so the next load recomputes.
type Provider struct {
	store  store.Store
	cache  *cache.Cache
	logger *logger.Logger
}

// NewProvider creates a provider with the given freshness window
func NewProvider(s store.Store, ttl time.Duration, log *logger.Logger) *Provider {
	return &Provider{
		store:  s,
		cache:  cache.New(ttl, 2*ttl),
		logger: log.Named("options"),
	}
}

// Load returns the option lists, recomputing from the store only when the
// cached tuple has expired or been invalidated. A scan failure propagates
// to the caller; no stale fallback is served.
func (p *Provider) Load(ctx context.Context) (Options, error) {
	if cached, found := p.cache.Get(cacheKey); found {
		return cached.(Options), nil
	}

	records, err := p.store.All(ctx)
	if err != nil {
		return Options{}, err
	}

	opts := Compute(records)
	p.cache.Set(cacheKey, opts, cache.DefaultExpiration)

	p.logger.Debug("Recomputed option lists",
		logger.Int("records", len(records)),
		logger.Int("regions", len(opts.Regions)),
		logger.Int("sites", len(opts.Sites)),
	)

	return opts, nil
}

// Invalidate drops the cached tuple so the next Load recomputes
func (p *Provider) Invalidate() {
	p.cache.Flush()
}

// Compute derives sorted distinct option lists from a record set
func Compute(records []store.Record) Options {
	regions := make(map[string]struct{})
	sites := make(map[string]struct{})
	cameras := make(map[string]struct{})
	inspectors := make(map[string]struct{})
	years := make(map[int]struct{})

	for _, r := range records {
		if r.Region != "" {
			regions[r.Region] = struct{}{}
		}
		if r.SiteName != "" {
			sites[r.SiteName] = struct{}{}
		}
		if r.CameraType != "" {
			cameras[r.CameraType] = struct{}{}
		}
		if r.Inspector != "" {
			inspectors[r.Inspector] = struct{}{}
		}
		if r.RepairYear != 0 {
			years[r.RepairYear] = struct{}{}
		}
	}

	opts := Options{
		Regions:    sortedKeys(regions),
		Sites:      sortedKeys(sites),
		Cameras:    sortedKeys(cameras),
		Inspectors: sortedKeys(inspectors),
		Years:      make([]int, 0, len(years)),
	}

	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(opts.Years)))

	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
