// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/spf13/afero"
)

// batchFilePattern matches versioned batch file names such as
// "20240101120000_CreatePosts.php".
var batchFilePattern = regexp.MustCompile(`^(\d{14})_([A-Za-z0-9_]+)\.([A-Za-z0-9]+)$`)

// BatchFile is a parsed versioned file name.
type BatchFile struct {
	// Timestamp is the 14-digit ordering prefix. It is preserved on rename.
	Timestamp string
	// Name is the declared type name, e.g. "CreatePosts".
	Name string
	// Ext is the file extension without the dot.
	Ext string
}

// ParseBatchFile parses a base file name. It returns false for names that do
// not follow the "<timestamp>_<Name>.<ext>" convention and for BatchLockFile.
func ParseBatchFile(name string) (BatchFile, bool) {
	if name == BatchLockFile {
		return BatchFile{}, false
	}
	m := batchFilePattern.FindStringSubmatch(name)
	if m == nil {
		return BatchFile{}, false
	}
	return BatchFile{Timestamp: m[1], Name: m[2], Ext: m[3]}, true
}

// TypeName returns the namespaced type name: the module namespace followed
// by the declared name.
func (b BatchFile) TypeName(module ModuleName) string {
	return module.Namespace() + b.Name
}

// FileName returns the file name with the module namespace injected after
// the timestamp.
func (b BatchFile) FileName(module ModuleName) string {
	return fmt.Sprintf("%s_%s.%s", b.Timestamp, b.TypeName(module), b.Ext)
}

// BatchSources lists the qualifying batch files directly inside dir, sorted
// by name. Subdirectories and other files are ignored.
func BatchSources(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := ParseBatchFile(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
