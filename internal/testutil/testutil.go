// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func under(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// MustWriteFile creates root/rel with content, making parent directories as
// needed, and returns the full path.
func MustWriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := under(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func MustReadFile(t testing.TB, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(under(root, rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// FileExists reports whether root/rel is present. Errors other than
// "does not exist" fail the test.
func FileExists(t testing.TB, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(under(root, rel))
	switch {
	case err == nil:
		return true
	case errors.Is(err, fs.ErrNotExist):
		return false
	default:
		t.Fatalf("stat %s: %v", rel, err)
		return false
	}
}
