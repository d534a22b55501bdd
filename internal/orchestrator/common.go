package orchestrator

import (
	"path/filepath"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
)

// changesetPaths extracts the file path of each changeset, in order.
func changesetPaths(changesets []*domain.Changeset) []string {
	paths := make([]string, 0, len(changesets))
	for _, cs := range changesets {
		paths = append(paths, cs.Path)
	}
	return paths
}

// manifestPathsByName maps each workspace package's name to its manifest
// path.
func manifestPathsByName(ws *provider.Workspace) map[string]string {
	m := make(map[string]string, len(ws.Packages))
	for _, pkg := range ws.Packages {
		m[pkg.Name] = pkg.ManifestPath
	}
	return m
}

// releasedManifestPaths returns the manifest path of every package in
// data's plan, recomputed from the (immutable, S1-set) workspace and
// plan rather than threaded step-to-step bookkeeping.
func releasedManifestPaths(data *SagaData) []string {
	byName := manifestPathsByName(data.Workspace)
	paths := make([]string, 0, len(data.Plan.Plan.Releases))
	for _, pv := range data.Plan.Plan.Releases {
		if path, ok := byName[pv.Name]; ok {
			paths = append(paths, path)
		}
	}
	return paths
}

// releasedChangelogPaths returns the changelog file path(s) write_changelogs
// wrote to, recomputed from the project's changelog policy.
func releasedChangelogPaths(data *SagaData) []string {
	if data.ProjectConfig.ChangelogPolicy == domain.ChangelogPolicyPerPackage {
		byName := manifestPathsByName(data.Workspace)
		var paths []string
		for _, entry := range data.Plan.Entries {
			if path, ok := byName[entry.Version.Name]; ok {
				paths = append(paths, filepath.Join(filepath.Dir(path), "CHANGELOG.md"))
			}
		}
		return paths
	}
	return []string{filepath.Join(data.Workspace.Root, "CHANGELOG.md")}
}
