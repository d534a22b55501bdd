package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	manifestFilename = "manifest.toml"
	metadataTable    = "changeset-release"
)

// projectFS implements provider.ProjectProvider by walking TOML build
// manifests on an afero filesystem.
type projectFS struct {
	fs afero.Fs
}

// NewProjectFS returns a provider.ProjectProvider backed by fs.
func NewProjectFS(fs afero.Fs) provider.ProjectProvider {
	return &projectFS{fs: fs}
}

func (p *projectFS) readManifest(path string) (map[string]any, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return doc, nil
}

// DiscoverWorkspace classifies and enumerates the workspace rooted at
// root. A manifest with no [workspace] table is a single package; one
// with [workspace] but no root [package] table is a virtual workspace;
// one with both is a workspace with a root package.
func (p *projectFS) DiscoverWorkspace(_ context.Context, root string) (*provider.Workspace, error) {
	rootManifestPath := filepath.Join(root, manifestFilename)
	doc, err := p.readManifest(rootManifestPath)
	if err != nil {
		return nil, err
	}
	ws, hasWorkspace := doc["workspace"].(map[string]any)
	rootPkg, hasRootPkg := doc["package"].(map[string]any)

	if !hasWorkspace {
		if !hasRootPkg {
			return nil, fmt.Errorf("manifest %s declares neither [package] nor [workspace]", rootManifestPath)
		}
		pkg, err := p.loadPackage(rootManifestPath, rootPkg, nil)
		if err != nil {
			return nil, err
		}
		return &provider.Workspace{
			Root:     root,
			Kind:     provider.KindSinglePackage,
			Packages: []domain.Package{*pkg},
		}, nil
	}

	var wsPkgTable map[string]any
	if wsRaw, ok := ws["package"].(map[string]any); ok {
		wsPkgTable = wsRaw
	}
	memberDirs, err := p.expandMembers(root, ws)
	if err != nil {
		return nil, err
	}

	var packages []domain.Package
	for _, dir := range memberDirs {
		manifestPath := filepath.Join(dir, manifestFilename)
		exists, err := afero.Exists(p.fs, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", manifestPath, err)
		}
		if !exists {
			continue
		}
		mdoc, err := p.readManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		pkgTable, ok := mdoc["package"].(map[string]any)
		if !ok {
			continue
		}
		pkg, err := p.loadPackage(manifestPath, pkgTable, wsPkgTable)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}

	kind := provider.KindVirtualWorkspace
	if hasRootPkg {
		kind = provider.KindWorkspaceWithRoot
		pkg, err := p.loadPackage(rootManifestPath, rootPkg, wsPkgTable)
		if err != nil {
			return nil, err
		}
		packages = append([]domain.Package{*pkg}, packages...)
	}
	return &provider.Workspace{Root: root, Kind: kind, Packages: packages}, nil
}

func (p *projectFS) expandMembers(root string, ws map[string]any) ([]string, error) {
	membersRaw, _ := ws["members"].([]any)
	var dirs []string
	for _, m := range membersRaw {
		pattern, ok := m.(string)
		if !ok {
			continue
		}
		matches, err := afero.Glob(p.fs, filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid workspace member glob %q: %w", pattern, err)
		}
		dirs = append(dirs, matches...)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (p *projectFS) loadPackage(
	manifestPath string,
	pkgTable map[string]any,
	wsPkgTable map[string]any,
) (*domain.Package, error) {
	name, _ := pkgTable["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("manifest %s: package has no name", manifestPath)
	}
	versionStr, err := p.resolveVersionString(manifestPath, pkgTable["version"], wsPkgTable)
	if err != nil {
		return nil, err
	}
	v, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: invalid version %q: %w", manifestPath, versionStr, err)
	}
	return &domain.Package{Name: name, Version: v, ManifestPath: manifestPath}, nil
}

// resolveVersionString follows a version.workspace = true declaration
// back to the root manifest's [workspace.package] table.
func (p *projectFS) resolveVersionString(manifestPath string, raw any, wsPkgTable map[string]any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case map[string]any:
		inherited, _ := v["workspace"].(bool)
		if !inherited {
			return "", fmt.Errorf("manifest %s: unsupported version declaration", manifestPath)
		}
		if wsPkgTable == nil {
			return "", fmt.Errorf("manifest %s: inherits version.workspace but root has no [workspace.package]", manifestPath)
		}
		wsVersion, _ := wsPkgTable["version"].(string)
		if wsVersion == "" {
			return "", fmt.Errorf("manifest %s: [workspace.package] has no version", manifestPath)
		}
		return wsVersion, nil
	default:
		return "", fmt.Errorf("manifest %s: package declares no version", manifestPath)
	}
}

// LoadRootConfig reads the root manifest's tool metadata table,
// preferring [workspace.metadata.changeset-release] and falling back to
// [package.metadata.changeset-release] for a single-package workspace.
func (p *projectFS) LoadRootConfig(_ context.Context, ws *provider.Workspace) (*domain.ProjectConfig, error) {
	cfg := domain.DefaultProjectConfig()
	doc, err := p.readManifest(filepath.Join(ws.Root, manifestFilename))
	if err != nil {
		return nil, err
	}
	meta := extractMetadata(doc)
	if meta == nil {
		return cfg, nil
	}
	applyProjectMetadata(cfg, meta)
	return cfg, nil
}

// LoadPackageConfig reads a single package's own
// [package.metadata.changeset-release] table.
func (p *projectFS) LoadPackageConfig(_ context.Context, pkg *domain.Package) (*domain.PackageConfig, error) {
	cfg := &domain.PackageConfig{}
	doc, err := p.readManifest(pkg.ManifestPath)
	if err != nil {
		return nil, err
	}
	pkgTable, _ := doc["package"].(map[string]any)
	meta := metadataTableFrom(pkgTable)
	if meta == nil {
		return cfg, nil
	}
	if v, ok := stringList(meta["ignored-files"]); ok {
		cfg.IgnoredFiles = v
	}
	if v, ok := meta["prerelease"].(string); ok {
		cfg.Prerelease = v
	}
	if v, ok := meta["graduate-zero"].(bool); ok {
		cfg.GraduateZero = v
	}
	return cfg, nil
}

// EnsureChangesetDir creates <root>/<changeset_dir>/changesets if
// missing and returns the changeset directory's path.
func (p *projectFS) EnsureChangesetDir(
	_ context.Context,
	ws *provider.Workspace,
	cfg *domain.ProjectConfig,
) (string, error) {
	dir := cfg.ChangesetDir
	if dir == "" {
		dir = ".changesets"
	}
	full := filepath.Join(ws.Root, dir)
	if err := p.fs.MkdirAll(filepath.Join(full, "changesets"), 0755); err != nil {
		return "", fmt.Errorf("failed to ensure changeset directory %s: %w", full, err)
	}
	return full, nil
}

func extractMetadata(doc map[string]any) map[string]any {
	if ws, ok := doc["workspace"].(map[string]any); ok {
		if m := metadataTableFrom(ws); m != nil {
			return m
		}
	}
	if pkg, ok := doc["package"].(map[string]any); ok {
		if m := metadataTableFrom(pkg); m != nil {
			return m
		}
	}
	return nil
}

func metadataTableFrom(table map[string]any) map[string]any {
	if table == nil {
		return nil
	}
	metadata, ok := table["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	m, ok := metadata[metadataTable].(map[string]any)
	if !ok {
		return nil
	}
	return m
}

func applyProjectMetadata(cfg *domain.ProjectConfig, meta map[string]any) {
	if v, ok := stringList(meta["ignored-files"]); ok {
		cfg.IgnoredFiles = v
	}
	if v, ok := meta["changeset-dir"].(string); ok && v != "" {
		cfg.ChangesetDir = v
	}
	if v, ok := meta["tag-format"].(string); ok && v != "" {
		cfg.TagFormat = domain.TagFormat(v)
	}
	if v, ok := meta["changelog-policy"].(string); ok && v != "" {
		cfg.ChangelogPolicy = domain.ChangelogPolicy(v)
	}
	if v, ok := meta["comparison-link-policy"].(string); ok && v != "" {
		cfg.ComparisonLinkPolicy = domain.ComparisonLinkPolicy(v)
	}
	if v, ok := meta["zero-version-mode"].(string); ok && v != "" {
		cfg.ZeroVersionMode = domain.ZeroVersionMode(v)
	}
	if v, ok := meta["default-no-commit"].(bool); ok {
		cfg.DefaultNoCommit = v
	}
	if v, ok := meta["default-no-tags"].(bool); ok {
		cfg.DefaultNoTags = v
	}
	if v, ok := meta["default-keep-changesets"].(bool); ok {
		cfg.DefaultKeepChangesets = v
	}
}

func stringList(raw any) ([]string, bool) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
