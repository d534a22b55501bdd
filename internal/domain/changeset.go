package domain

// BumpType is a requested semver bump kind.
type BumpType string

const (
	BumpPatch BumpType = "patch"
	BumpMinor BumpType = "minor"
	BumpMajor BumpType = "major"
)

// rank orders bump types Patch < Minor < Major.
func (b BumpType) rank() int {
	switch b {
	case BumpMajor:
		return 2
	case BumpMinor:
		return 1
	default:
		return 0
	}
}

// MaxBump folds a and b into the aggregated max bump (invariant 4).
func MaxBump(a, b BumpType) BumpType {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}

// Category is a Keep-a-Changelog entry category. The canonical rendering
// order is the order these constants are declared in, as listed in
// CategoryOrder.
type Category string

const (
	CategoryAdded      Category = "added"
	CategoryChanged    Category = "changed"
	CategoryDeprecated Category = "deprecated"
	CategoryRemoved    Category = "removed"
	CategoryFixed      Category = "fixed"
	CategorySecurity   Category = "security"
)

// CategoryOrder is the canonical Keep-a-Changelog category rendering
// order.
var CategoryOrder = []Category{
	CategoryAdded,
	CategoryChanged,
	CategoryDeprecated,
	CategoryRemoved,
	CategoryFixed,
	CategorySecurity,
}

// Title renders the category's changelog heading text.
func (c Category) Title() string {
	switch c {
	case CategoryAdded:
		return "Added"
	case CategoryChanged:
		return "Changed"
	case CategoryDeprecated:
		return "Deprecated"
	case CategoryRemoved:
		return "Removed"
	case CategoryFixed:
		return "Fixed"
	case CategorySecurity:
		return "Security"
	default:
		return string(c)
	}
}

// PackageRelease is one (package, bump) entry within a changeset.
// Ordering is preserved — it is a slice, never a map — per invariant 1.
type PackageRelease struct {
	Package string
	Bump    BumpType
}

// Changeset is a developer's declared intent to release one or more
// packages. Path is empty until the changeset has been written to or
// read from disk.
type Changeset struct {
	Path                   string
	Summary                string
	Releases               []PackageRelease
	Category               Category
	ConsumedForPrerelease  *string
	Graduate               bool
}

// Packages returns the distinct package names this changeset touches, in
// declaration order.
func (c *Changeset) Packages() []string {
	names := make([]string, 0, len(c.Releases))
	for _, r := range c.Releases {
		names = append(names, r.Package)
	}
	return names
}

// BumpFor returns the bump requested for pkg and whether it was present.
func (c *Changeset) BumpFor(pkg string) (BumpType, bool) {
	for _, r := range c.Releases {
		if r.Package == pkg {
			return r.Bump, true
		}
	}
	return "", false
}

// IsConsumed reports whether this changeset is currently marked as
// consumed by an in-flight prerelease (invariant 2).
func (c *Changeset) IsConsumed() bool {
	return c.ConsumedForPrerelease != nil
}
