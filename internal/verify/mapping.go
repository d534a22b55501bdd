// Package verify implements the verification engine (C6): given a code
// diff and the set of changesets touching it, decide which packages are
// covered and which are missing.
package verify

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
)

// MapFilesToPackages attributes each changed file to the package whose
// manifest directory most specifically contains it — packages are tried
// in descending manifest-path depth so a nested package's files are
// never attributed to an enclosing package. Files matched by an ignore
// glob go to ignoredFiles; files outside any package go to projectFiles.
func MapFilesToPackages(
	files []string,
	packages []domain.Package,
	rootIgnore []string,
	packageIgnore map[string][]string,
) (byPackage map[string][]string, ignoredFiles, projectFiles []string) {
	byPackage = make(map[string][]string)
	ordered := make([]domain.Package, len(packages))
	copy(ordered, packages)
	sort.Slice(ordered, func(i, j int) bool {
		return depth(ordered[i].ManifestPath) > depth(ordered[j].ManifestPath)
	})

	for _, f := range files {
		if matchesAny(f, rootIgnore) {
			ignoredFiles = append(ignoredFiles, f)
			continue
		}
		pkg, ignored := attribute(f, ordered, packageIgnore)
		switch {
		case ignored:
			ignoredFiles = append(ignoredFiles, f)
		case pkg == "":
			projectFiles = append(projectFiles, f)
		default:
			byPackage[pkg] = append(byPackage[pkg], f)
		}
	}
	return byPackage, ignoredFiles, projectFiles
}

func attribute(file string, ordered []domain.Package, packageIgnore map[string][]string) (pkg string, ignored bool) {
	for _, p := range ordered {
		dir := filepath.Dir(p.ManifestPath)
		if dir == "." {
			dir = ""
		}
		if isWithin(file, dir) {
			if matchesAny(file, packageIgnore[p.Name]) {
				return "", true
			}
			return p.Name, false
		}
	}
	return "", false
}

func isWithin(file, dir string) bool {
	if dir == "" {
		return true
	}
	clean := filepath.Clean(dir) + "/"
	return strings.HasPrefix(filepath.Clean(file)+"/", clean)
}

func depth(manifestPath string) int {
	return strings.Count(filepath.Clean(filepath.Dir(manifestPath)), "/")
}

func matchesAny(file string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, file); ok {
			return true
		}
		if ok, _ := filepath.Match(g, filepath.Base(file)); ok {
			return true
		}
	}
	return false
}
