package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/changeset-release/changeset/internal/config"
	"github.com/changeset-release/changeset/internal/logging"
	"github.com/changeset-release/changeset/internal/orchestrator"
	"github.com/changeset-release/changeset/internal/repository"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// container holds every dependency the CLI surface wires into the
// orchestrator and verification engine. Built once in InitCommands and
// threaded into each subcommand constructor, per the teacher's DI
// pattern.
type container struct {
	cfg    *config.Config
	fs     afero.Fs
	logger *zap.Logger

	providers orchestrator.Providers

	// gitExt and ghExt back the optional --pr release mode; with no GitHub
	// token configured, ghExt is a no-op implementation whose calls fail
	// with ErrGithubTokenRequired.
	gitExt repository.GitExtendedRepository
	ghExt  repository.GithubExtendedRepository
}

// newContainer wires every provider implementation from internal/repository
// behind the internal/provider interfaces the saga and verification
// engine depend on.
func newContainer() (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Getenv("VERBOSE") != "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	fs := afero.NewOsFs()

	gitProvider, err := repository.NewGitProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	gitExt, err := repository.NewGitExtendedRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to open extended git repository: %w", err)
	}

	changesetFS := repository.NewChangesetFS(fs)

	providers := orchestrator.Providers{
		Project:         repository.NewProjectFS(fs),
		Changesets:      changesetFS,
		ChangesetWriter: changesetFS,
		Manifests:       repository.NewTOMLManifestWriter(fs),
		Changelogs:      repository.NewChangelogFS(fs),
		Git:             gitProvider,
		State:           repository.NewTOMLStateIO(fs),
	}

	var ghExt repository.GithubExtendedRepository
	if cfg.GithubToken != "" {
		ghExt, err = repository.NewGithubExtendedRepository(cfg.GithubToken, cfg.GithubOwner, cfg.GithubRepo)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GitHub repository: %w", err)
		}
	} else {
		ghExt = repository.NewGithubNoopExtendedRepository(cfg.GithubOwner, cfg.GithubRepo)
	}

	return &container{
		cfg:       cfg,
		fs:        fs,
		logger:    logger,
		providers: providers,
		gitExt:    gitExt,
		ghExt:     ghExt,
	}, nil
}

// runtime builds an orchestrator.Runtime for a single command invocation.
func (c *container) runtime(opts orchestrator.Options) orchestrator.Runtime {
	return orchestrator.Runtime{Providers: c.providers, Options: opts, Logger: c.logger}
}

// InitCommands wires every subcommand onto the root command.
func InitCommands() error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(c),
		newAddCmd(c),
		newStatusCmd(c),
		newVerifyCmd(c),
		newReleaseCmd(c),
	)
	return nil
}

// repoSlug is a small formatting helper shared by the PR-mode commands.
func repoSlug(owner, repo string) string {
	return strings.TrimSuffix(fmt.Sprintf("%s/%s", owner, repo), "/")
}
