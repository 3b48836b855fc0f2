package cache

import (
	"fmt"
)

// A Report is a snapshot of the counters of a cache.
type Report struct {
	AccessCount uint32 `json:"access_count"`
	Hits        uint32 `json:"hits"`
	Misses      uint32 `json:"misses"`
	Spec        Spec   `json:"spec"`
}

// HitRate returns hits over hits plus misses, or 0 if nothing was touched.
func (r Report) HitRate() float64 {
	total := uint64(r.Hits) + uint64(r.Misses)
	if total == 0 {
		return 0
	}

	return float64(r.Hits) / float64(total)
}

func (r Report) String() string {
	return fmt.Sprintf(
		"accesses: %d, hits: %d, misses: %d, hit rate: %.2f%%, cache: %s",
		r.AccessCount, r.Hits, r.Misses, r.HitRate()*100, r.Spec)
}
