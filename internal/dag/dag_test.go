// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type edge [2]string

func build(nodes []string, edges []edge) *Graph[string] {
	g := New[string]()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []string
		edges []edge
		want  []string
	}{
		{name: "empty"},
		{name: "single node", nodes: []string{"core"}, want: []string{"core"}},
		{
			name:  "chain",
			edges: []edge{{"core", "auth"}, {"auth", "blog"}},
			want:  []string{"core", "auth", "blog"},
		},
		{
			name:  "diamond",
			edges: []edge{{"D", "B"}, {"D", "C"}, {"B", "A"}, {"C", "A"}},
			want:  []string{"D", "B", "C", "A"},
		},
		{
			name:  "ties keep insertion order",
			nodes: []string{"zeta", "alpha", "mid"},
			want:  []string{"zeta", "alpha", "mid"},
		},
		{
			name:  "late node released after its prerequisite",
			nodes: []string{"blog", "search", "cache"},
			edges: []edge{{"cache", "blog"}},
			want:  []string{"search", "cache", "blog"},
		},
		{
			name:  "duplicate edges",
			edges: []edge{{"A", "B"}, {"A", "B"}},
			want:  []string{"A", "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := build(tt.nodes, tt.edges).TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TopologicalSort() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	t.Parallel()

	g := build(nil, []edge{{"A", "B"}, {"B", "C"}, {"C", "A"}})
	_, err := g.TopologicalSort()

	var cycleErr *CycleError[string]
	if !errors.As(err, &cycleErr) {
		t.Fatalf("TopologicalSort() error = %T %v, want *CycleError", err, err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "A"}, cycleErr.Cycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got := cycleErr.Error(); got != "dependency cycle detected: A -> B -> C -> A" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFindCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []string
		edges []edge
		want  []string
	}{
		{name: "acyclic", edges: []edge{{"A", "B"}, {"B", "C"}, {"A", "C"}}},
		{name: "self loop", edges: []edge{{"A", "A"}}, want: []string{"A", "A"}},
		{name: "two node cycle", edges: []edge{{"A", "B"}, {"B", "A"}}, want: []string{"A", "B", "A"}},
		{
			name:  "path into the cycle is dropped",
			edges: []edge{{"X", "A"}, {"A", "B"}, {"B", "C"}, {"C", "A"}},
			want:  []string{"A", "B", "C", "A"},
		},
		{
			name:  "cycle in a later component",
			nodes: []string{"solo"},
			edges: []edge{{"P", "Q"}, {"Q", "P"}},
			want:  []string{"P", "Q", "P"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, build(tt.nodes, tt.edges).FindCycle()); diff != "" {
				t.Errorf("FindCycle() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGraph_Accessors(t *testing.T) {
	t.Parallel()

	g := New[int]()
	g.AddEdge(3, 1)
	g.AddEdge(3, 2)
	g.AddNode(3)

	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
	if diff := cmp.Diff([]int{3, 1, 2}, g.Nodes()); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2}, g.Successors(3)); diff != "" {
		t.Errorf("Successors(3) mismatch (-want +got):\n%s", diff)
	}
	if g.Successors(9) != nil {
		t.Error("Successors of an unknown node should be nil")
	}
}
