package fileio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cursorrules")
	require.NoError(t, os.WriteFile(path, []byte("No var\n"), 0o644))

	got, err := ReadRules(path)
	require.NoError(t, err)
	require.Equal(t, "No var\n", got)

	_, err = ReadRules(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eslint.config.mjs")

	require.NoError(t, WriteAtomic(path, []byte("export default [];\n")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "export default [];\n", string(b))

	// Overwrite in place.
	require.NoError(t, WriteAtomic(path, []byte("// v2\n")))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "// v2\n", string(b))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestEnsureGitignore_CreatesWhenMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureGitignore(dir))

	b, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	require.Contains(t, string(b), ".env")
}

func TestEnsureGitignore_AppendsEnvEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("node_modules/\n"), 0o644))

	require.NoError(t, EnsureGitignore(dir))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(b)
	require.True(t, strings.HasPrefix(content, "node_modules/\n"), "existing entries must be preserved")
	require.Contains(t, content, "\n.env\n")
}

func TestEnsureGitignore_LeavesExistingEnvEntryAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	orig := "dist/\n.env\n"
	require.NoError(t, os.WriteFile(path, []byte(orig), 0o644))

	require.NoError(t, EnsureGitignore(dir))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, orig, string(b))
}
