package seat

// DiffResult contains the results of comparing two snapshots of available seats
type DiffResult struct {
	Added   Set // available now, not before
	Removed Set // available before, not now
}

// Changed reports whether any seat was added or removed
func (d DiffResult) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Diff compares the previous set of available seats against the current one.
// A nil previous set is treated as empty.
func Diff(previous, current Set) DiffResult {
	result := DiffResult{
		Added:   make(Set),
		Removed: make(Set),
	}

	for id := range current {
		if !previous.Has(id) {
			result.Added[id] = struct{}{}
		}
	}

	for id := range previous {
		if !current.Has(id) {
			result.Removed[id] = struct{}{}
		}
	}

	return result
}
