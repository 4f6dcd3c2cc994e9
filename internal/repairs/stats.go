package repairs

import (
	"sort"

	"github.com/yegors/cctv-repairs/internal/store"
)

// LabelCount is one bucket of a per-value breakdown
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats holds the aggregate view of the record set: overall totals,
// distinct-value counts, and per-region / per-camera breakdowns. Breakdowns
// are sorted by count descending with label as the tie-break, for stable
// output.
type Stats struct {
	TotalCount     int          `json:"total_count"`
	SiteCount      int          `json:"site_count"`
	RegionCount    int          `json:"region_count"`
	InspectorCount int          `json:"inspector_count"`
	ByRegion       []LabelCount `json:"by_region"`
	ByCamera       []LabelCount `json:"by_camera"`
}

// ComputeStats aggregates statistics over a record set
func ComputeStats(records []store.Record) Stats {
	sites := make(map[string]struct{})
	inspectors := make(map[string]struct{})
	byRegion := make(map[string]int)
	byCamera := make(map[string]int)

	for _, r := range records {
		if r.SiteName != "" {
			sites[r.SiteName] = struct{}{}
		}
		if r.Inspector != "" {
			inspectors[r.Inspector] = struct{}{}
		}
		if r.Region != "" {
			byRegion[r.Region]++
		}
		if r.CameraType != "" {
			byCamera[r.CameraType]++
		}
	}

	return Stats{
		TotalCount:     len(records),
		SiteCount:      len(sites),
		RegionCount:    len(byRegion),
		InspectorCount: len(inspectors),
		ByRegion:       sortedCounts(byRegion),
		ByCamera:       sortedCounts(byCamera),
	}
}

func sortedCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
