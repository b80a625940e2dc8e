package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTarGz packs files (slash paths → content) into a gzip-compressed tarball.
func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestManager_ExtractAll(t *testing.T) {
	tempDir := t.TempDir()
	files := map[string]string{
		"Resolver.jl-0.2.0/bin/resolve.jl":   "println(\"resolve\")",
		"Resolver.jl-0.2.0/bin/Project.toml": "[deps]\n",
		"Resolver.jl-0.2.0/src/Resolver.jl":  "module Resolver end",
	}
	archivePath := filepath.Join(tempDir, "resolver.tar.gz")
	writeTarGz(t, archivePath, files)

	extractDir := filepath.Join(tempDir, "extracted")
	require.NoError(t, NewManager().ExtractAll(context.Background(), archivePath, extractDir))

	for path, expected := range files {
		content, err := os.ReadFile(filepath.Join(extractDir, filepath.FromSlash(path)))
		require.NoError(t, err, path)
		assert.Equal(t, expected, string(content))
	}

	root, err := RootDir(extractDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extractDir, "Resolver.jl-0.2.0"), root)
}

func TestManager_ExtractAll_MissingArchive(t *testing.T) {
	tempDir := t.TempDir()
	err := NewManager().ExtractAll(context.Background(), filepath.Join(tempDir, "missing.tar.gz"), filepath.Join(tempDir, "out"))
	assert.Error(t, err)
}

func TestRootDir_FlatLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	root, err := RootDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}
