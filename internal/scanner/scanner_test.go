package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, contents string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestScanIncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "package a")
	writeFile(t, root, "node_modules/dep/index.js", "ignored")
	writeFile(t, root, "src/b.go", "package a")

	s := New(root, []string{"**/*.go"}, []string{"**/node_modules/**"}, 0)
	files, warnings, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, files, 2)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.ElementsMatch(t, []string{"src/a.go", "src/b.go"}, paths)
}

func TestScanSkipsOversizeFileWithWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", "0123456789")

	s := New(root, []string{"**/*.go"}, nil, 5)
	files, warnings, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, files)
	require.Len(t, warnings, 1)
	require.Equal(t, "big.go", warnings[0].Path)
}

func TestScanAtExactMaxFileSizeIsIncluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "exact.go", "0123456789") // 10 bytes

	s := New(root, []string{"**/*.go"}, nil, 10)
	files, warnings, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, files, 1)
}

func TestComputeDeltaAddedModifiedRemoved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")

	s := New(root, []string{"**/*.go"}, nil, 0)
	files, _, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)

	hashCalls := 0
	hashFn := func(path string) (string, error) {
		hashCalls++
		return "hash-" + filepath.Base(path), nil
	}

	delta, hashes, err := ComputeDelta(files, map[string]LastState{}, hashFn)
	require.NoError(t, err)
	require.Len(t, delta.Added, 1)
	require.Empty(t, delta.Modified)
	require.Empty(t, delta.Removed)
	require.Equal(t, 1, hashCalls)
	require.Equal(t, "hash-a.go", hashes["a.go"])

	last := map[string]LastState{
		"a.go":      {ContentHash: "hash-a.go", ModTime: files[0].ModTime.UnixNano()},
		"gone.go":   {ContentHash: "stale", ModTime: 1},
	}
	delta2, _, err := ComputeDelta(files, last, hashFn)
	require.NoError(t, err)
	require.Empty(t, delta2.Added)
	require.Empty(t, delta2.Modified)
	require.Equal(t, []string{"gone.go"}, delta2.Removed)
	// mtime unchanged, so the hash function should not be called again.
	require.Equal(t, 1, hashCalls)
}
