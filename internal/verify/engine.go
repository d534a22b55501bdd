package verify

import (
	"context"

	"github.com/changeset-release/changeset/internal/domain"
)

// Context is the shared, mutable state every Rule reads from and
// appends to.
type Context struct {
	ChangedFiles     []string
	Packages         []domain.Package
	Changesets       []*domain.Changeset
	AllowDeleted     bool
	DeletedFiles     []string
	RootIgnore       []string
	PackageIgnore    map[string][]string

	ByPackage    map[string][]string
	IgnoredFiles []string
	ProjectFiles []string
}

// Result is the verification engine's output.
type Result struct {
	AffectedPackages  map[string]bool
	CoveredPackages   map[string]bool
	UncoveredPackages []string
	Failures          []string
}

// IsSuccess reports whether verification passed: no uncovered packages
// and no rule-reported failures.
func (r *Result) IsSuccess() bool {
	return len(r.UncoveredPackages) == 0 && len(r.Failures) == 0
}

// Rule is one pluggable verification check. Rules run in order and may
// both read Context and append to Result.
type Rule interface {
	Name() string
	Apply(ctx context.Context, vctx *Context, result *Result) error
}

// Engine runs a fixed ordered list of Rules.
type Engine struct {
	Rules []Rule
}

// NewEngine returns an Engine running the default rule set
// (CoverageRule then DeletedChangesetsRule).
func NewEngine() *Engine {
	return &Engine{Rules: []Rule{&CoverageRule{}, &DeletedChangesetsRule{}}}
}

// Run attributes files to packages, then applies every rule in order.
func (e *Engine) Run(ctx context.Context, vctx *Context) (*Result, error) {
	vctx.ByPackage, vctx.IgnoredFiles, vctx.ProjectFiles = MapFilesToPackages(
		vctx.ChangedFiles, vctx.Packages, vctx.RootIgnore, vctx.PackageIgnore,
	)
	result := &Result{
		AffectedPackages: make(map[string]bool),
		CoveredPackages:  make(map[string]bool),
	}
	for pkg := range vctx.ByPackage {
		result.AffectedPackages[pkg] = true
	}
	for _, rule := range e.Rules {
		if err := rule.Apply(ctx, vctx, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}
