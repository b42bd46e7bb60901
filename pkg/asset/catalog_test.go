// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func manifestOf(descs ...Descriptor) ManifestFunc {
	return func() []Descriptor { return descs }
}

func TestMapCatalog(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	if err := c.Add("blog", manifestOf(Descriptor{Type: OpCopy, Source: "a", Destination: "b"})); err != nil {
		t.Fatal(err)
	}
	if err := c.Add("cache", manifestOf(Descriptor{Type: OpAppend, Destination: "x", Module: "other"})); err != nil {
		t.Fatal(err)
	}

	if err := c.Add("blog", manifestOf()); err == nil {
		t.Error("duplicate Add should fail")
	}
	if err := c.Add(" ", manifestOf()); err == nil {
		t.Error("Add with a blank name should fail")
	}

	if diff := cmp.Diff([]ModuleName{"blog", "cache"}, c.Modules()); diff != "" {
		t.Errorf("Modules() mismatch (-want +got):\n%s", diff)
	}

	descs, ok := c.Descriptors("blog")
	if !ok || len(descs) != 1 || descs[0].Module != "blog" {
		t.Errorf("Descriptors(blog) = %+v, %v; module should be stamped", descs, ok)
	}
	descs, _ = c.Descriptors("cache")
	if descs[0].Module != "other" {
		t.Errorf("Descriptors(cache) overwrote an explicit module: %q", descs[0].Module)
	}
	if _, ok := c.Descriptors("missing"); ok {
		t.Error("Descriptors(missing) should report absence")
	}
}

func TestMapCatalog_Merge(t *testing.T) {
	t.Parallel()

	base := NewCatalog()
	_ = base.Add("blog", manifestOf(Descriptor{Type: OpCopy, Tag: "base"}))

	other := NewCatalog()
	_ = other.Add("blog", manifestOf(Descriptor{Type: OpCopy, Tag: "other"}))
	_ = other.Add("shop", manifestOf(Descriptor{Type: OpMerge}))

	base.Merge(other)
	if diff := cmp.Diff([]ModuleName{"blog", "shop"}, base.Modules()); diff != "" {
		t.Errorf("Modules() mismatch (-want +got):\n%s", diff)
	}
	descs, _ := base.Descriptors("blog")
	if descs[0].Tag != "base" {
		t.Error("Merge should keep existing modules")
	}
	descs, _ = base.Descriptors("shop")
	if len(descs) != 1 || descs[0].Module != "shop" {
		t.Errorf("merged shop = %+v", descs)
	}
}

func TestDependencyMap(t *testing.T) {
	t.Parallel()

	m := Dependencies(
		DependencyPair{Name: "cache", Config: DependencyConfig{Required: true}},
		DependencyPair{Name: "search", Config: DependencyConfig{Condition: FileExists("config/scout.php")}},
	)
	m.Set("cache", DependencyConfig{Required: true, Reason: "replaced"})
	m.Set("queue", DependencyConfig{})

	if diff := cmp.Diff([]ModuleName{"cache", "search", "queue"}, m.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	cfg, ok := m.Get("cache")
	if !ok || cfg.Reason != "replaced" {
		t.Errorf("Get(cache) = %+v, %v", cfg, ok)
	}

	var seen []ModuleName
	for name := range m.All() {
		seen = append(seen, name)
		if name == "search" {
			break
		}
	}
	if diff := cmp.Diff([]ModuleName{"cache", "search"}, seen); diff != "" {
		t.Errorf("All() early stop mismatch (-want +got):\n%s", diff)
	}

	var nilMap *DependencyMap
	if nilMap.Len() != 0 || nilMap.Names() != nil {
		t.Error("a nil DependencyMap should be empty")
	}
	if _, ok := nilMap.Get("x"); ok {
		t.Error("Get on a nil map should miss")
	}
	for range nilMap.All() {
		t.Error("All on a nil map should not yield")
	}
}

func TestCondition(t *testing.T) {
	t.Parallel()

	var zero Condition
	if !zero.IsAlways() || zero.String() != "always" {
		t.Errorf("zero Condition = %v", zero)
	}

	tests := []struct {
		cond Condition
		kind ConditionKind
		str  string
	}{
		{Always(), ConditionAlways, "always"},
		{FileExists("config/scout.php"), ConditionFileExists, "file_exists(config/scout.php)"},
		{ConfigKeyExists("services.cache"), ConditionConfigKeyExists, "config_key_exists(services.cache)"},
		{Predicate(func() bool { return true }), ConditionPredicate, "predicate"},
	}
	for _, tt := range tests {
		if tt.cond.Kind() != tt.kind || tt.cond.String() != tt.str {
			t.Errorf("Condition = %v (kind %d), want %s (kind %d)", tt.cond, tt.cond.Kind(), tt.str, tt.kind)
		}
	}
	if Predicate(nil).Func() != nil {
		t.Error("Predicate(nil).Func() should be nil")
	}
}

func TestDescriptorHelpers(t *testing.T) {
	t.Parallel()

	descs := []Descriptor{
		{Type: OpCopy, Tag: "config"},
		{Type: OpDependencies, Dependencies: NewDependencyMap()},
		{Type: OpAppend, Tag: "routes"},
		{Type: OpMerge},
	}

	d, ok := FindDependencies(descs)
	if !ok || d.Type != OpDependencies {
		t.Errorf("FindDependencies() = %+v, %v", d, ok)
	}
	if _, ok := FindDependencies(descs[2:]); ok {
		t.Error("FindDependencies without one should miss")
	}

	typesOf := func(ds []Descriptor) []OperationType {
		out := make([]OperationType, 0, len(ds))
		for _, d := range ds {
			out = append(out, d.Type)
		}
		return out
	}
	if diff := cmp.Diff([]OperationType{OpCopy, OpAppend}, typesOf(FilterByTags(descs, []string{"config", "routes"}))); diff != "" {
		t.Errorf("FilterByTags mismatch (-want +got):\n%s", diff)
	}
	if len(FilterByTags(descs, nil)) != len(descs) {
		t.Error("FilterByTags(nil) should keep everything")
	}
	if diff := cmp.Diff([]OperationType{OpCopy, OpAppend, OpMerge}, typesOf(WithoutDependencies(descs))); diff != "" {
		t.Errorf("WithoutDependencies mismatch (-want +got):\n%s", diff)
	}

	env := Descriptor{Type: OpAppendEnv, EnvVars: []EnvVar{{Name: "A", Value: "1"}, {Name: "B"}}}
	if diff := cmp.Diff([]string{"A", "B"}, env.EnvVarNames()); diff != "" {
		t.Errorf("EnvVarNames mismatch (-want +got):\n%s", diff)
	}

	opt := Descriptor{Options: map[string]any{OptionRenameWithModule: true, "other": "yes"}}
	if !opt.Option(OptionRenameWithModule) || opt.Option("other") || opt.Option("missing") {
		t.Error("Option should only report boolean true values")
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/srv/app")
	tests := []struct {
		in, want string
	}{
		{"config/app.php", filepath.Join(root, "config", "app.php")},
		{"/etc/../etc/hosts", filepath.FromSlash("/etc/hosts")},
	}
	for _, tt := range tests {
		if got := ResolvePath(root, tt.in); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
