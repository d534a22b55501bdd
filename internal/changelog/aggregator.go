package changelog

import (
	"time"

	"github.com/changeset-release/changeset/internal/domain"
)

// Aggregator groups (Changeset, planned version) pairs into per-package
// VersionRelease values and, optionally, a root-level release whose
// entries are prefixed by package name.
type Aggregator struct {
	Now func() time.Time
}

// NewAggregator returns an Aggregator using time.Now for dating releases.
func NewAggregator() *Aggregator {
	return &Aggregator{Now: time.Now}
}

// BuildPackageRelease groups changesets into one package's VersionRelease,
// categories in canonical order, entries within a category in the
// changesets' insertion order (callers must pass changesets pre-sorted by
// filename).
func (a *Aggregator) BuildPackageRelease(pkg string, version domain.PackageVersion, changesets []*domain.Changeset) *domain.VersionRelease {
	grouped := make(map[domain.Category][]domain.ChangelogEntry)
	for _, cs := range changesets {
		if cs.Summary == "" {
			continue
		}
		grouped[cs.Category] = append(grouped[cs.Category], domain.ChangelogEntry{
			Category:    cs.Category,
			Description: cs.Summary,
		})
	}
	return &domain.VersionRelease{
		Version: version.New,
		Date:    a.Now(),
		Entries: flatten(grouped),
	}
}

// BuildRootRelease merges every package's release into one root-level
// release, prefixing each entry's description with its package name.
func (a *Aggregator) BuildRootRelease(releases map[string]domain.PackageVersion, changesetsByPackage map[string][]*domain.Changeset) *domain.VersionRelease {
	grouped := make(map[domain.Category][]domain.ChangelogEntry)
	var newest *domain.PackageVersion
	for name, version := range releases {
		v := version
		if newest == nil || v.New.GreaterThan(newest.New) {
			newest = &v
		}
		for _, cs := range changesetsByPackage[name] {
			if cs.Summary == "" {
				continue
			}
			pkgName := name
			grouped[cs.Category] = append(grouped[cs.Category], domain.ChangelogEntry{
				Category:    cs.Category,
				Description: cs.Summary,
				Package:     &pkgName,
			})
		}
	}
	entries := flatten(grouped)
	if newest != nil {
		return &domain.VersionRelease{Version: newest.New, Date: a.Now(), Entries: entries}
	}
	return &domain.VersionRelease{Date: a.Now(), Entries: entries}
}

func flatten(grouped map[domain.Category][]domain.ChangelogEntry) []domain.ChangelogEntry {
	var out []domain.ChangelogEntry
	for _, cat := range domain.CategoryOrder {
		out = append(out, grouped[cat]...)
	}
	return out
}
