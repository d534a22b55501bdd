package domain

// PrereleaseState maps a package name to the prerelease identifier tag
// (alpha, beta, rc, or a custom string) it is currently being released
// under. Persisted as pre-release.toml.
type PrereleaseState map[string]string

// GraduationState is the ordered set of package names queued for 0.x ->
// 1.0.0 graduation. Persisted as graduation.toml.
type GraduationState []string

// Contains reports whether name is queued for graduation.
func (g GraduationState) Contains(name string) bool {
	for _, n := range g {
		if n == name {
			return true
		}
	}
	return false
}

// Without returns a copy of g with name removed, preserving order.
func (g GraduationState) Without(name string) GraduationState {
	out := make(GraduationState, 0, len(g))
	for _, n := range g {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// Add returns a copy of g with name appended if not already present.
func (g GraduationState) Add(name string) GraduationState {
	if g.Contains(name) {
		return g
	}
	return append(append(GraduationState{}, g...), name)
}
