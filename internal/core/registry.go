package core

import (
	"fmt"
	"sort"

	"samplevault/pkg/domain"
)

// LocationRegistry maps each live sample ID to its current location. It is
// bookkeeping only; the holders own the records.
type LocationRegistry struct {
	entries map[string]Location
}

// NewLocationRegistry constructs an empty registry.
func NewLocationRegistry() *LocationRegistry {
	return &LocationRegistry{entries: make(map[string]Location)}
}

// Get returns the location recorded for id.
func (r *LocationRegistry) Get(id string) (Location, bool) {
	loc, ok := r.entries[id]
	return loc, ok
}

// Set records loc for id, replacing any previous entry.
func (r *LocationRegistry) Set(id string, loc Location) {
	r.entries[id] = loc
}

// Delete forgets id. Unknown IDs are ignored.
func (r *LocationRegistry) Delete(id string) {
	delete(r.entries, id)
}

// Len returns the number of tracked IDs.
func (r *LocationRegistry) Len() int { return len(r.entries) }

// IDs returns the sorted IDs recorded at loc. LocationUnknown returns every ID.
func (r *LocationRegistry) IDs(loc Location) []string {
	ids := make([]string, 0, len(r.entries))
	for id, l := range r.entries {
		if loc == LocationUnknown || l == loc {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Check verifies that id is tracked and located at belief.
func (r *LocationRegistry) Check(id string, belief Location) error {
	loc, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if loc != belief {
		return fmt.Errorf("%w: %s is %s, not %s", domain.ErrLocationMismatch, id, loc, belief)
	}
	return nil
}
