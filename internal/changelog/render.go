package changelog

import (
	"fmt"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
)

const defaultHeader = `# Changelog

All notable changes to this project will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.0.0/),
and this project adheres to [Semantic Versioning](https://semver.org/spec/v2.0.0.html).
`

// RenderSection renders one "## [version] - date" block for release,
// with each category appearing (when non-empty) in canonical order.
func RenderSection(release *domain.VersionRelease) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s] - %s\n", release.Version.String(), release.Date.Format("2006-01-02"))
	byCategory := make(map[domain.Category][]domain.ChangelogEntry)
	for _, e := range release.Entries {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}
	for _, cat := range domain.CategoryOrder {
		entries := byCategory[cat]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", cat.Title())
		for _, e := range entries {
			if e.Package != nil {
				fmt.Fprintf(&b, "- **%s**: %s\n", *e.Package, firstLine(e.Description))
			} else {
				fmt.Fprintf(&b, "- %s\n", firstLine(e.Description))
			}
		}
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

// Update inserts release's section into an existing changelog file's
// content, preserving the header verbatim and placing the new section
// immediately after it and before any prior version section (newest
// first). If content is empty, a fresh header is synthesized.
func Update(content string, release *domain.VersionRelease, info *domain.RepositoryInfo, previousVersion string) string {
	header, rest := splitHeader(content)
	if header == "" {
		header = defaultHeader
	}
	section := RenderSection(release)
	var b strings.Builder
	b.WriteString(strings.TrimRight(header, "\n"))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(section, "\n"))
	b.WriteString("\n")
	if strings.TrimSpace(rest) != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimLeft(rest, "\n"))
	}
	out := b.String()
	if info != nil {
		out = appendCompareLink(out, info, release.Version.String(), previousVersion)
	}
	return out
}

// splitHeader separates a changelog's leading preamble (everything
// before the first "## [" section heading) from the rest of the file.
func splitHeader(content string) (header, rest string) {
	idx := strings.Index(content, "\n## [")
	if idx < 0 {
		if strings.HasPrefix(content, "## [") {
			return "", content
		}
		return content, ""
	}
	return content[:idx], content[idx+1:]
}

// appendCompareLink idempotently appends a reference-style compare link
// for version at EOF.
func appendCompareLink(content string, info *domain.RepositoryInfo, version, previousVersion string) string {
	marker := fmt.Sprintf("[%s]:", version)
	if strings.Contains(content, "\n"+marker) || strings.HasPrefix(content, marker) {
		return content
	}
	base := previousVersion
	if base == "" {
		base = "HEAD"
	}
	link := fmt.Sprintf("%s %s\n", marker, CompareURL(info, base, version))
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + link
}
