// Package topo orders a schema's models so that every model referenced by a
// foreign key is merged before the model holding that foreign key.
package topo

import (
	"sort"

	"github.com/camertron/prismerge/internal/schema"
)

// Schedule returns s's models in an order such that for every relation
// column on model A targeting model B, B appears before A. Ready models are
// taken first-in first-out; the initial ready set and each group of models
// freed by one scheduled model are sorted by name before being queued, so
// the result is deterministic for a given schema (though unrelated models
// are not necessarily in overall alphabetical order).
//
// Cycles in the relation graph are a documented non-goal (spec.md §4.1):
// whenever no zero-in-degree model is left, Schedule takes the
// alphabetically first unscheduled model, treats its remaining dependencies
// as satisfied, and resumes the sort, rather than looping forever or
// erroring.
func Schedule(s schema.Schema) []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) <= 1 {
		return names
	}

	// inDegree[A] counts A's not-yet-scheduled foreign keys. adjList[B]
	// lists the models that reference B, i.e. the edges B -> A for every
	// relation column on A targeting B.
	inDegree := make(map[string]int, len(names))
	adjList := make(map[string][]string, len(names))
	for _, name := range names {
		inDegree[name] = 0
	}
	for _, a := range names {
		for _, col := range s[a].RelationColumns() {
			b := col.Type.Name
			if _, exists := s[b]; !exists || a == b {
				continue
			}
			adjList[b] = append(adjList[b], a)
			inDegree[a]++
		}
	}

	scheduled := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	for len(result) < len(names) {
		if len(queue) == 0 {
			// Cycle: nothing has zero in-degree. Pick the next unscheduled
			// model in alphabetical order and treat its remaining
			// dependencies as satisfied so the sort can keep moving.
			next := ""
			for _, name := range names {
				if !scheduled[name] {
					next = name
					break
				}
			}
			if next == "" {
				break
			}
			queue = append(queue, next)
			inDegree[next] = 0
		}

		cur := queue[0]
		queue = queue[1:]
		if scheduled[cur] {
			continue
		}
		scheduled[cur] = true
		result = append(result, cur)

		var freed []string
		for _, dependent := range adjList[cur] {
			if scheduled[dependent] {
				continue
			}
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	return result
}
