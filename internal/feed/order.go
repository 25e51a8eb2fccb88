package feed

import (
	"sort"

	"github.com/example/inventory-backend/internal/models"
)

// Order returns a copy of entries sorted newest first and capped to limit.
// Entries whose timestamp cannot be parsed sort last, in their given order.
func Order(entries []models.ProductLogEntry, limit int) []models.ProductLogEntry {
	type keyed struct {
		entry models.ProductLogEntry
		unix  int64
		ok    bool
	}

	ks := make([]keyed, len(entries))
	for i, e := range entries {
		t, err := e.Time()
		ks[i] = keyed{entry: e, unix: t.UnixNano(), ok: err == nil}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].unix > ks[j].unix
	})

	if limit > 0 && len(ks) > limit {
		ks = ks[:limit]
	}
	out := make([]models.ProductLogEntry, len(ks))
	for i, k := range ks {
		out[i] = k.entry
	}
	return out
}
