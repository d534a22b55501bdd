package changeset

import (
	"fmt"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/google/uuid"
)

// Render serializes a Changeset back into the markdown+front-matter file
// format. Package order and category casing are preserved so that
// parse(render(x)) round-trips to an equal Changeset.
func Render(cs *domain.Changeset) []byte {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	for _, r := range cs.Releases {
		fmt.Fprintf(&b, "%q: %s\n", r.Package, r.Bump)
	}
	fmt.Fprintf(&b, "category: %s\n", cs.Category)
	if cs.ConsumedForPrerelease != nil {
		fmt.Fprintf(&b, "consumedForPrerelease: %q\n", *cs.ConsumedForPrerelease)
	}
	if cs.Graduate {
		b.WriteString("graduate: true\n")
	}
	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.WriteString(cs.Summary)
	b.WriteByte('\n')
	return []byte(b.String())
}

// NewFilename generates a human-friendly random token, unique enough
// within a changeset directory (per spec §4.2).
func NewFilename() string {
	id := uuid.New().String()
	return id[:8] + ".md"
}
