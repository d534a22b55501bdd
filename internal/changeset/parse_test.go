package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `---
"package-a": minor
"package-b": patch
category: fixed
consumedForPrerelease: "1.0.0-alpha.1"
graduate: true
---
Human-readable summary.

Additional paragraphs allowed.
`

func TestParse(t *testing.T) {
	t.Run("Should parse a well-formed changeset", func(t *testing.T) {
		cs, err := Parse("x.md", []byte(sample))
		require.NoError(t, err)
		assert.Equal(t, "x.md", cs.Path)
		assert.Len(t, cs.Releases, 2)
		assert.Equal(t, "package-a", cs.Releases[0].Package)
		assert.Equal(t, "package-b", cs.Releases[1].Package)
		assert.Equal(t, "Human-readable summary.\n\nAdditional paragraphs allowed.", cs.Summary)
		require.NotNil(t, cs.ConsumedForPrerelease)
		assert.Equal(t, "1.0.0-alpha.1", *cs.ConsumedForPrerelease)
		assert.True(t, cs.Graduate)
	})

	t.Run("Should accept CRLF line endings", func(t *testing.T) {
		crlf := "---\r\n\"a\": patch\r\ncategory: added\r\n---\r\nSummary\r\n"
		cs, err := Parse("x.md", []byte(crlf))
		require.NoError(t, err)
		assert.Equal(t, "Summary", cs.Summary)
	})

	t.Run("Should reject a missing opening delimiter", func(t *testing.T) {
		_, err := Parse("x.md", []byte("\"a\": patch\n---\nSummary\n"))
		assert.Error(t, err)
	})

	t.Run("Should reject a missing closing delimiter", func(t *testing.T) {
		_, err := Parse("x.md", []byte("---\n\"a\": patch\nSummary\n"))
		assert.Error(t, err)
	})

	t.Run("Should reject duplicate package keys", func(t *testing.T) {
		dup := "---\n\"a\": patch\n\"a\": minor\n---\nSummary\n"
		_, err := Parse("x.md", []byte(dup))
		assert.Error(t, err)
	})

	t.Run("Should reject an invalid bump value", func(t *testing.T) {
		_, err := Parse("x.md", []byte("---\n\"a\": huge\n---\nSummary\n"))
		assert.Error(t, err)
	})

	t.Run("Should require at least one package entry", func(t *testing.T) {
		_, err := Parse("x.md", []byte("---\ncategory: fixed\n---\nSummary\n"))
		assert.Error(t, err)
	})

	t.Run("Should round-trip through Render", func(t *testing.T) {
		cs, err := Parse("x.md", []byte(sample))
		require.NoError(t, err)
		cs2, err := Parse("x.md", Render(cs))
		require.NoError(t, err)
		assert.Equal(t, cs.Releases, cs2.Releases)
		assert.Equal(t, cs.Category, cs2.Category)
		assert.Equal(t, cs.Summary, cs2.Summary)
		assert.Equal(t, *cs.ConsumedForPrerelease, *cs2.ConsumedForPrerelease)
		assert.Equal(t, cs.Graduate, cs2.Graduate)
	})
}

func TestNewFilename(t *testing.T) {
	t.Run("Should produce a markdown filename", func(t *testing.T) {
		name := NewFilename()
		assert.Regexp(t, `^[0-9a-f]{8}\.md$`, name)
	})
}
