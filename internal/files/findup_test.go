package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	target := filepath.Join(root, "a", "service")
	require.NoError(t, os.Mkdir(target, 0o755))

	assert.Equal(t, target, FindUp("service", nested))
	assert.Equal(t, "", FindUp("no-such-entry-anywhere-xyz", nested))
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "here")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	assert.Equal(t, existing, FirstExisting("", filepath.Join(dir, "missing"), existing))
	assert.Equal(t, "", FirstExisting(filepath.Join(dir, "missing")))
	assert.Equal(t, "", FirstExisting())
}
