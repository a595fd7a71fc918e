package repolist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeListFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repos.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeListFile(t, `# repositories to skip
acme/widgets

  acme/gadgets
# trailing comment
`)

	set, err := Load(path)

	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.True(t, set.Contains("acme/widgets"))
	assert.True(t, set.Contains("acme/gadgets"))
	assert.False(t, set.Contains("# repositories to skip"))
}

func TestLoad_MissingFileYieldsEmptySet(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "does-not-exist.txt"))

	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeListFile(t, "")

	set, err := Load(path)

	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		include  Set
		exclude  Set
		expected bool
	}{
		{
			name:     "no lists processes everything",
			fullName: "acme/widgets",
			include:  Set{},
			exclude:  Set{},
			expected: true,
		},
		{
			name:     "include list restricts membership",
			fullName: "acme/widgets",
			include:  Set{"acme/gadgets": {}},
			exclude:  Set{},
			expected: false,
		},
		{
			name:     "included repo is eligible",
			fullName: "acme/widgets",
			include:  Set{"acme/widgets": {}},
			exclude:  Set{},
			expected: true,
		},
		{
			name:     "excluded repo is skipped",
			fullName: "acme/widgets",
			include:  Set{},
			exclude:  Set{"acme/widgets": {}},
			expected: false,
		},
		{
			name:     "exclusion wins over inclusion",
			fullName: "acme/widgets",
			include:  Set{"acme/widgets": {}},
			exclude:  Set{"acme/widgets": {}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Eligible(tt.fullName, tt.include, tt.exclude))
		})
	}
}
