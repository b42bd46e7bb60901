// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestModuleName_Namespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name ModuleName
		want string
	}{
		{"blog", "Blog"},
		{"blog-posts", "BlogPosts"},
		{"blog_posts", "BlogPosts"},
		{"acme/blog", "AcmeBlog"},
		{"blogPosts", "BlogPosts"},
		{"v2-api", "V2Api"},
		{"--", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			t.Parallel()

			if got := tt.name.Namespace(); got != tt.want {
				t.Errorf("Namespace() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModuleName_Validate(t *testing.T) {
	t.Parallel()

	if err := ModuleName("blog").Validate(); err != nil {
		t.Errorf("Validate(blog) = %v", err)
	}
	for _, n := range []ModuleName{"", "   "} {
		err := n.Validate()
		if !errors.Is(err, ErrInvalidModuleName) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidModuleName", n, err)
		}
		var invalid *InvalidModuleNameError
		if !errors.As(err, &invalid) || invalid.Value != n {
			t.Errorf("Validate(%q) error does not carry the value", n)
		}
	}
}

func TestOperationType_Validate(t *testing.T) {
	t.Parallel()

	for _, op := range OperationTypes() {
		if err := op.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v", op, err)
		}
	}
	err := OperationType("symlink").Validate()
	if !errors.Is(err, ErrUnknownOperationType) {
		t.Errorf("Validate(symlink) = %v, want ErrUnknownOperationType", err)
	}
	if err.Error() != `unknown operation type "symlink"` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParseBatchFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want BatchFile
		ok   bool
	}{
		{"20240101120000_CreatePosts.php", BatchFile{Timestamp: "20240101120000", Name: "CreatePosts", Ext: "php"}, true},
		{"20240101120000_create_posts_table.php", BatchFile{Timestamp: "20240101120000", Name: "create_posts_table", Ext: "php"}, true},
		{"2024_CreatePosts.php", BatchFile{}, false},
		{"CreatePostsTable.php", BatchFile{}, false},
		{"20240101120000_CreatePosts", BatchFile{}, false},
		{BatchLockFile, BatchFile{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseBatchFile(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseBatchFile(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseBatchFile(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestBatchLockFile_FollowsNamingConvention(t *testing.T) {
	t.Parallel()

	// The lock file is shaped like a batch file, so only the explicit
	// exclusion keeps it out of batch copies.
	if !batchFilePattern.MatchString(BatchLockFile) {
		t.Fatalf("%q does not match the batch file pattern", BatchLockFile)
	}
	if _, ok := ParseBatchFile(BatchLockFile); ok {
		t.Errorf("ParseBatchFile(%q) accepted the lock file", BatchLockFile)
	}
}

func TestBatchFile_Rename(t *testing.T) {
	t.Parallel()

	bf, ok := ParseBatchFile("20240101120000_CreatePosts.php")
	if !ok {
		t.Fatal("ParseBatchFile failed")
	}
	if got := bf.TypeName("blog-posts"); got != "BlogPostsCreatePosts" {
		t.Errorf("TypeName() = %q", got)
	}
	if got := bf.FileName("blog-posts"); got != "20240101120000_BlogPostsCreatePosts.php" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestBatchSources(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"20240102000000_AddTags.php",
		"20240101120000_CreatePosts.php",
		"README.md",
		BatchLockFile,
		"nested/20240103000000_Skip.php",
	} {
		if err := afero.WriteFile(fs, filepath.Join("/m", name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := BatchSources(fs, "/m")
	if err != nil {
		t.Fatalf("BatchSources: %v", err)
	}
	want := []string{
		filepath.Join("/m", "20240101120000_CreatePosts.php"),
		filepath.Join("/m", "20240102000000_AddTags.php"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BatchSources mismatch (-want +got):\n%s", diff)
	}

	if _, err := BatchSources(fs, "/missing"); err == nil {
		t.Error("BatchSources on a missing dir should fail")
	}
}
