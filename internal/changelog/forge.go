// Package changelog implements the changelog aggregator (C4): grouping
// changeset entries by category, rendering per-package and root
// changelog sections, and detecting a repository's forge to synthesize
// compare-URL links.
package changelog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
)

// DetectForge maps a git remote URL to a RepositoryInfo, grounded on the
// original implementation's host-matching rules: hosts starting with
// "gitlab." or matching "*.gitlab.*" are GitLab; "codeberg.org" and
// "gitea.*" are Gitea-like; "git.sr.ht"/"*.sr.ht" is SourceHut. Unknown
// hosts default to GitHub style.
func DetectForge(remoteURL string) (*domain.RepositoryInfo, error) {
	host, owner, repo, err := parseRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	forge := classify(host)
	return &domain.RepositoryInfo{
		Forge:      forge,
		Host:       host,
		Owner:      owner,
		Repo:       repo,
		WebBaseURL: webBaseURL(forge, host, owner, repo),
	}, nil
}

func classify(host string) domain.Forge {
	h := strings.ToLower(host)
	switch {
	case h == "github.com" || strings.HasSuffix(h, ".github.com"):
		return domain.ForgeGitHub
	case h == "gitlab.com" || strings.HasPrefix(h, "gitlab.") || strings.Contains(h, ".gitlab."):
		return domain.ForgeGitLab
	case h == "bitbucket.org" || strings.HasPrefix(h, "bitbucket."):
		return domain.ForgeBitbucket
	case h == "codeberg.org" || strings.HasPrefix(h, "gitea."):
		return domain.ForgeGitea
	case h == "git.sr.ht" || strings.HasSuffix(h, ".sr.ht"):
		return domain.ForgeSourceHut
	default:
		return domain.ForgeGitHub
	}
}

func webBaseURL(forge domain.Forge, host, owner, repo string) string {
	switch forge {
	case domain.ForgeSourceHut:
		return fmt.Sprintf("https://%s/~%s/%s", host, strings.TrimPrefix(owner, "~"), repo)
	default:
		return fmt.Sprintf("https://%s/%s/%s", host, owner, repo)
	}
}

// CompareURL synthesizes the per-forge compare-URL between base and
// target tags, honoring a caller-supplied template override of the shape
// "…/{repository}/compare/{base}...{target}".
func CompareURL(info *domain.RepositoryInfo, base, target string) string {
	if info.CompareTmpl != "" {
		return expandTemplate(info.CompareTmpl, info, base, target)
	}
	switch info.Forge {
	case domain.ForgeBitbucket:
		// Bitbucket reverses the argument order and uses `..`.
		return fmt.Sprintf("%s/branches/compare/%s..%s", info.WebBaseURL, target, base)
	case domain.ForgeSourceHut:
		// SourceHut uses a single tilde and `..`.
		return fmt.Sprintf("%s/log/%s..%s", info.WebBaseURL, base, target)
	case domain.ForgeGitLab:
		return fmt.Sprintf("%s/-/compare/%s...%s", info.WebBaseURL, base, target)
	default: // GitHub, Gitea (no "/-/" segment in its compare route), and unknown hosts.
		return fmt.Sprintf("%s/compare/%s...%s", info.WebBaseURL, base, target)
	}
}

func expandTemplate(tmpl string, info *domain.RepositoryInfo, base, target string) string {
	r := strings.NewReplacer(
		"{repository}", fmt.Sprintf("%s/%s", info.Owner, info.Repo),
		"{base}", base,
		"{target}", target,
	)
	return r.Replace(tmpl)
}

func parseRemote(remoteURL string) (host, owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")
	if strings.Contains(trimmed, "://") {
		u, perr := url.Parse(trimmed)
		if perr != nil {
			return "", "", "", perr
		}
		host = u.Host
		path := strings.TrimPrefix(u.Path, "/")
		o, r := splitOwnerRepoPair(path)
		if o == "" || r == "" {
			return "", "", "", fmt.Errorf("invalid remote path %q", path)
		}
		return host, o, r, nil
	}
	if idx := strings.Index(trimmed, "@"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		host = trimmed[:idx]
		path := trimmed[idx+1:]
		o, r := splitOwnerRepoPair(path)
		return host, o, r, nil
	}
	return "", "", "", fmt.Errorf("could not parse remote URL %q", remoteURL)
}

func splitOwnerRepoPair(path string) (string, string) {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
