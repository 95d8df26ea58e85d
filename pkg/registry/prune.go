package registry

import "time"

// PruneResult reports which curated entries a prune pass would keep and
// which it would drop.
type PruneResult struct {
	Kept    []CuratedEntry
	Removed []CuratedEntry
}

// Prune selects curated entries whose built record is classified
// unmaintained as of now. Entries without a matching record, and broken
// entries, are kept: absence of data is not evidence of abandonment.
// Callers decide whether to apply the result to the listing.
func Prune(entries []CuratedEntry, records []*PluginRecord, th Thresholds, now time.Time) PruneResult {
	byID := make(map[string]*PluginRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	var result PruneResult
	for _, e := range entries {
		rec, ok := byID[e.ID()]
		if ok && rec.Status == StatusOK && th.Classify(rec.LastUpdated, now) == CategoryUnmaintained {
			result.Removed = append(result.Removed, e)
			continue
		}
		result.Kept = append(result.Kept, e)
	}
	return result
}
