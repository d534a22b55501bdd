package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	preReleaseFilename = "pre-release.toml"
	graduationFilename = "graduation.toml"
	stateFilePerm       = 0600
	stateLockTimeout    = 30 * time.Second
	stateLockRetry      = 100 * time.Millisecond
)

// tomlStateIO implements provider.ReleaseStateIO, persisting the
// prerelease and graduation state files as flat TOML documents at the
// changeset directory's root. Absence of a file is empty state; saving
// empty state removes the file.
type tomlStateIO struct {
	fs afero.Fs
}

// NewTOMLStateIO returns a provider.ReleaseStateIO backed by TOML files
// on fs.
func NewTOMLStateIO(fs afero.Fs) provider.ReleaseStateIO {
	return &tomlStateIO{fs: fs}
}

type graduationDoc struct {
	Graduation []string `toml:"graduation"`
}

func (s *tomlStateIO) LoadPrereleaseState(
	_ context.Context,
	changesetDir string,
) (domain.PrereleaseState, error) {
	path := filepath.Join(changesetDir, preReleaseFilename)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.PrereleaseState{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	state := domain.PrereleaseState{}
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return state, nil
}

func (s *tomlStateIO) SavePrereleaseState(
	ctx context.Context,
	changesetDir string,
	state domain.PrereleaseState,
) error {
	path := filepath.Join(changesetDir, preReleaseFilename)
	if len(state) == 0 {
		return s.removeIfExists(path)
	}
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return s.writeLocked(ctx, path, data)
}

func (s *tomlStateIO) LoadGraduationState(
	_ context.Context,
	changesetDir string,
) (domain.GraduationState, error) {
	path := filepath.Join(changesetDir, graduationFilename)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc graduationDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return domain.GraduationState(doc.Graduation), nil
}

func (s *tomlStateIO) SaveGraduationState(
	ctx context.Context,
	changesetDir string,
	state domain.GraduationState,
) error {
	path := filepath.Join(changesetDir, graduationFilename)
	if len(state) == 0 {
		return s.removeIfExists(path)
	}
	data, err := toml.Marshal(graduationDoc{Graduation: []string(state)})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return s.writeLocked(ctx, path, data)
}

// writeLocked writes data to path atomically (temp file + rename) under
// an exclusive flock held on a sibling lock file.
func (s *tomlStateIO) writeLocked(ctx context.Context, path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to ensure directory for %s: %w", path, err)
	}
	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, stateLockTimeout)
	defer cancel()
	locked, err := acquireLock(lockCtx, lock)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock for %s within timeout", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, stateFilePerm); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to rename temp file into %s: %w", path, err)
	}
	return nil
}

func (s *tomlStateIO) removeIfExists(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func acquireLock(ctx context.Context, lock *flock.Flock) (bool, error) {
	ticker := time.NewTicker(stateLockRetry)
	defer ticker.Stop()
	for {
		locked, err := lock.TryLock()
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
