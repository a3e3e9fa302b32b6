package scheduler

import "github.com/replicator/replicator/internal/store"

// Candidate is one (unit_name, search_pattern) pair produced by
// expansion, before dedup (spec §4.E).
type Candidate struct {
	UnitName      string
	SearchPattern string // the keyword that selected this unit, empty if none
}

// Expand parses cfg into the ordered list of (unit_name, search_pattern)
// pairs (spec §4.E: "if a keyword mapping is present, iterate its
// groups in declared order; for each group iterate its selected units;
// else iterate units[]").
func Expand(cfg TaskConfig) []Candidate {
	if len(cfg.Keywords) > 0 {
		var out []Candidate
		for _, group := range cfg.Keywords {
			for _, unit := range group.Units {
				out = append(out, Candidate{UnitName: unit, SearchPattern: group.Keyword})
			}
		}
		return out
	}

	out := make([]Candidate, len(cfg.Units))
	for i, u := range cfg.Units {
		out[i] = Candidate{UnitName: u}
	}
	return out
}

// DedupWithinTask builds unit_name -> first_pattern_seen, keeping
// traversal order deterministic (spec §4.E).
func DedupWithinTask(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.UnitName] {
			continue
		}
		seen[c.UnitName] = true
		out = append(out, c)
	}
	return out
}

// unitType infers table vs index from the endpoint kind the unit
// belongs to — a unit is a table when its source is relational, an
// index when the source is search (spec §3).
func unitType(sourceKind store.EndpointKind) store.UnitType {
	if sourceKind == store.KindSearch {
		return store.UnitIndex
	}
	return store.UnitTable
}
