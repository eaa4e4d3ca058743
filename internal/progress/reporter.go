// Package progress defines the thin reporter interface the merge engine
// drives as it works (spec.md treats progress reporting as an external
// collaborator, specified only by the shape the core calls).
package progress

// Reporter receives per-model progress as the merge engine runs.
// Implementations must be safe to call from a single goroutine only; the
// merge engine never calls a Reporter concurrently (spec.md §5).
type Reporter interface {
	// StartModel announces that model is about to be merged, with total
	// rows expected across all sources (the sum computed in spec.md §4.6
	// phase B).
	StartModel(model string, total int)
	// Advance reports that n more progress-contributing rows (spec.md
	// §4.3) have been committed for model.
	Advance(model string, n int)
	// FinishModel announces that model's merge (including index creation)
	// has completed.
	FinishModel(model string)
	// Warn reports a non-fatal condition, such as a post-merge referential
	// integrity violation count (spec.md §7).
	Warn(format string, args ...any)
}

// Noop discards all progress events. Useful as a default in tests.
type Noop struct{}

func (Noop) StartModel(string, int) {}
func (Noop) Advance(string, int)    {}
func (Noop) FinishModel(string)     {}
func (Noop) Warn(string, ...any)    {}
