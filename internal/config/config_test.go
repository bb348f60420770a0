package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	cfg := Default()
	cfg.ExportDir = "out"
	cfg.ExportBatchSize = 50
	cfg.KeepWorkspace = true
	require.NoError(t, cfg.Save(root))

	got, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, Dir, FileName), []byte("\tnot yaml"), 0644))

	_, err := Load(root)
	require.Error(t, err)
}

func TestResolveExportDir(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.ExportDir = "exports"
	require.Equal(t, filepath.Join("/proj", "exports"), cfg.ResolveExportDir("/proj"))

	cfg.ExportDir = "/abs/exports"
	require.Equal(t, "/abs/exports", cfg.ResolveExportDir("/proj"))
}

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, ok := FindProjectRoot(nested)
	require.True(t, ok)
	// Resolve symlinks so macOS /tmp vs /private/tmp comparisons hold.
	wantReal, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, wantReal, gotReal)

	_, ok = FindProjectRoot(t.TempDir())
	require.False(t, ok)
}
