package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const manifestFilePerm = 0600

// tomlManifestWriter implements provider.ManifestWriter over TOML build
// manifests (a package table with a version field, optionally
// inheriting from a workspace-level package table).
type tomlManifestWriter struct {
	fs afero.Fs
}

// NewTOMLManifestWriter returns a provider.ManifestWriter backed by fs.
func NewTOMLManifestWriter(fs afero.Fs) provider.ManifestWriter {
	return &tomlManifestWriter{fs: fs}
}

func (m *tomlManifestWriter) load(path string) (map[string]any, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return doc, nil
}

func (m *tomlManifestWriter) save(path string, doc map[string]any) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode manifest %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, manifestFilePerm); err != nil {
		return fmt.Errorf("failed to write temp manifest %s: %w", path, err)
	}
	if err := m.fs.Rename(tmp, path); err != nil {
		_ = m.fs.Remove(tmp)
		return fmt.Errorf("failed to rename manifest into place %s: %w", path, err)
	}
	return nil
}

func packageTable(doc map[string]any) (map[string]any, bool) {
	pkg, ok := doc["package"].(map[string]any)
	return pkg, ok
}

func (m *tomlManifestWriter) WriteVersion(_ context.Context, path string, newVersion *semver.Version) error {
	doc, err := m.load(path)
	if err != nil {
		return err
	}
	pkg, ok := packageTable(doc)
	if !ok {
		return fmt.Errorf("manifest %s has no [package] table", path)
	}
	pkg["version"] = newVersion.String()
	doc["package"] = pkg
	return m.save(path, doc)
}

func (m *tomlManifestWriter) VerifyVersion(_ context.Context, path string, expected *semver.Version) error {
	doc, err := m.load(path)
	if err != nil {
		return err
	}
	pkg, ok := packageTable(doc)
	if !ok {
		return fmt.Errorf("manifest %s has no [package] table", path)
	}
	current, _ := pkg["version"].(string)
	if current != expected.String() {
		return fmt.Errorf("manifest %s: expected version %s, found %s", path, expected.String(), current)
	}
	return nil
}

// RemoveWorkspaceVersion deletes the root manifest's
// [workspace.package] version field, used during convert_inherited.
func (m *tomlManifestWriter) RemoveWorkspaceVersion(_ context.Context, rootManifest string) error {
	doc, err := m.load(rootManifest)
	if err != nil {
		return err
	}
	ws, ok := doc["workspace"].(map[string]any)
	if !ok {
		return fmt.Errorf("manifest %s has no [workspace] table", rootManifest)
	}
	wsPkg, ok := ws["package"].(map[string]any)
	if !ok {
		return fmt.Errorf("manifest %s has no [workspace.package] table", rootManifest)
	}
	delete(wsPkg, "version")
	ws["package"] = wsPkg
	doc["workspace"] = ws
	return m.save(rootManifest, doc)
}

// HasInheritedVersion reports whether the package manifest at path
// declares version.workspace = true.
func (m *tomlManifestWriter) HasInheritedVersion(_ context.Context, path string) (bool, error) {
	if _, err := m.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat manifest %s: %w", path, err)
	}
	doc, err := m.load(path)
	if err != nil {
		return false, err
	}
	pkg, ok := packageTable(doc)
	if !ok {
		return false, nil
	}
	version, ok := pkg["version"].(map[string]any)
	if !ok {
		return false, nil
	}
	inherited, _ := version["workspace"].(bool)
	return inherited, nil
}

// InlineInheritedVersion replaces version.workspace = true with a
// concrete version string before the saga bumps it.
func (m *tomlManifestWriter) InlineInheritedVersion(_ context.Context, path string, version *semver.Version) error {
	doc, err := m.load(path)
	if err != nil {
		return err
	}
	pkg, ok := packageTable(doc)
	if !ok {
		return fmt.Errorf("manifest %s has no [package] table", path)
	}
	pkg["version"] = version.String()
	doc["package"] = pkg
	return m.save(path, doc)
}

// RestoreInheritedVersion undoes InlineInheritedVersion, putting
// version.workspace = true back on the package manifest.
func (m *tomlManifestWriter) RestoreInheritedVersion(_ context.Context, path string) error {
	doc, err := m.load(path)
	if err != nil {
		return err
	}
	pkg, ok := packageTable(doc)
	if !ok {
		return fmt.Errorf("manifest %s has no [package] table", path)
	}
	pkg["version"] = map[string]any{"workspace": true}
	doc["package"] = pkg
	return m.save(path, doc)
}
