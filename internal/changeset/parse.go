// Package changeset parses and renders the markdown+YAML-front-matter
// changeset file format.
package changeset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
	"gopkg.in/yaml.v3"
)

// MaxSize is the maximum accepted changeset file size (spec'd at 100
// MiB).
const MaxSize = 100 * 1024 * 1024

const delimiter = "---"

type frontMatter struct {
	Category              string
	ConsumedForPrerelease *string
	Graduate              bool
}

// Parse decodes a changeset file's raw content into a Changeset. path is
// recorded on the result for later Delete/Restore calls but is not read
// here.
func Parse(path string, content []byte) (*domain.Changeset, error) {
	if len(content) > MaxSize {
		return nil, fmt.Errorf("changeset %s exceeds maximum size of %d bytes", path, MaxSize)
	}
	text := normalizeLineEndings(string(content))
	text = strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(text, delimiter) {
		return nil, fmt.Errorf("changeset %s: missing opening %q front-matter delimiter", path, delimiter)
	}
	rest := text[len(delimiter):]
	rest = strings.TrimPrefix(rest, "\n")
	closeIdx := strings.Index(rest, "\n"+delimiter)
	if closeIdx < 0 {
		return nil, fmt.Errorf("changeset %s: missing closing %q front-matter delimiter", path, delimiter)
	}
	rawFrontMatter := rest[:closeIdx]
	body := rest[closeIdx+len("\n"+delimiter):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSpace(body)

	releases, fm, err := parseFrontMatter(rawFrontMatter)
	if err != nil {
		return nil, fmt.Errorf("changeset %s: %w", path, err)
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("changeset %s: at least one package entry is required", path)
	}
	category := domain.Category(strings.ToLower(fm.Category))
	if category == "" {
		category = domain.CategoryChanged
	}
	return &domain.Changeset{
		Path:                  path,
		Summary:               body,
		Releases:              releases,
		Category:              category,
		ConsumedForPrerelease: fm.ConsumedForPrerelease,
		Graduate:              fm.Graduate,
	}, nil
}

// parseFrontMatter decodes the raw YAML front-matter, preserving key
// order for package releases (invariant 1 requires rejecting duplicate
// keys, and §4.4 requires insertion order for downstream grouping).
func parseFrontMatter(raw string) ([]domain.PackageRelease, frontMatter, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, frontMatter{}, fmt.Errorf("invalid front-matter YAML: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, frontMatter{}, fmt.Errorf("empty front-matter")
	}
	mapping := node.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, frontMatter{}, fmt.Errorf("front-matter must be a mapping")
	}
	var fm frontMatter
	var releases []domain.PackageRelease
	seen := make(map[string]bool)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		valueNode := mapping.Content[i+1]
		switch key {
		case "category":
			fm.Category = valueNode.Value
		case "consumedForPrerelease":
			v := valueNode.Value
			fm.ConsumedForPrerelease = &v
		case "graduate":
			fm.Graduate = valueNode.Value == "true"
		default:
			if seen[key] {
				return nil, frontMatter{}, fmt.Errorf("duplicate package key %q", key)
			}
			seen[key] = true
			bump, err := parseBump(valueNode.Value)
			if err != nil {
				return nil, frontMatter{}, fmt.Errorf("package %q: %w", key, err)
			}
			releases = append(releases, domain.PackageRelease{Package: key, Bump: bump})
		}
	}
	return releases, fm, nil
}

func parseBump(raw string) (domain.BumpType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "patch":
		return domain.BumpPatch, nil
	case "minor":
		return domain.BumpMinor, nil
	case "major":
		return domain.BumpMajor, nil
	default:
		return "", fmt.Errorf("invalid bump value %q (expected patch, minor, or major)", raw)
	}
}

func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// SortByFilename sorts changesets lexicographically by Path, matching
// "stable and portable" listing order (spec §4.4).
func SortByFilename(changesets []*domain.Changeset) {
	sort.Slice(changesets, func(i, j int) bool {
		return changesets[i].Path < changesets[j].Path
	})
}
