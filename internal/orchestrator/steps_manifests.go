package orchestrator

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// writeManifestsStep is S3: write each package's new version into its
// build manifest. previousVersions is populated during Execute and read
// only by this step's own Compensate.
type writeManifestsStep struct {
	previousVersions map[string]*semver.Version
}

func (*writeManifestsStep) Name() string { return "write_manifests" }

func (s *writeManifestsStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()
	s.previousVersions = make(map[string]*semver.Version, len(in.Plan.Plan.Releases))

	byName := manifestPathsByName(in.Workspace)
	for _, pv := range in.Plan.Plan.Releases {
		path, ok := byName[pv.Name]
		if !ok {
			return nil, fmt.Errorf("write_manifests: package %s has no known manifest", pv.Name)
		}
		if err := rt.Providers.Manifests.WriteVersion(ctx, path, pv.New); err != nil {
			return nil, fmt.Errorf("write_manifests: failed to write version for %s: %w", pv.Name, err)
		}
		s.previousVersions[pv.Name] = pv.Current
	}
	return out, nil
}

func (s *writeManifestsStep) Compensate(ctx context.Context, rt Runtime, in *SagaData) error {
	byName := manifestPathsByName(in.Workspace)
	var firstErr error
	for _, pv := range in.Plan.Plan.Releases {
		path, ok := byName[pv.Name]
		if !ok {
			continue
		}
		prior, ok := s.previousVersions[pv.Name]
		if !ok {
			continue
		}
		if err := rt.Providers.Manifests.VerifyVersion(ctx, path, pv.New); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("write_manifests compensation: manifest %s no longer matches expected version: %w", path, err)
			}
			continue
		}
		if err := rt.Providers.Manifests.WriteVersion(ctx, path, prior); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write_manifests compensation: failed to restore version for %s: %w", pv.Name, err)
		}
	}
	return firstErr
}

func (*writeManifestsStep) CompensationDescription() string {
	return "rewrite each manifest back to its prior version, after verifying it still holds the new version"
}
