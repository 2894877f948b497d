package checks

// Candidate is one option in a probe list. Lower Priority wins.
type Candidate struct {
	Name     string
	Priority int
}

// Resolve returns the highest-priority candidate accepted by present, or
// false if none is. Ties keep their list order.
func Resolve(candidates []Candidate, present func(name string) bool) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, c := range candidates {
		if !present(c.Name) {
			continue
		}
		if !found || c.Priority < best.Priority {
			best = c
			found = true
		}
	}
	return best, found
}

// ordered turns a plain list into candidates whose priority is their
// position.
func ordered(names ...string) []Candidate {
	out := make([]Candidate, len(names))
	for i, n := range names {
		out[i] = Candidate{Name: n, Priority: i}
	}
	return out
}
