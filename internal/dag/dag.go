// SPDX-License-Identifier: MPL-2.0

// Package dag orders the nodes of a directed graph and finds cycles in it.
// An edge from A to B means A must be handled before B; the dependency
// resolver adds one edge per declared dependency, from the dependency to the
// module that declares it.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Node visit states used by FindCycle.
const (
	unvisited state = iota
	onStack
	done
)

type (
	// Graph is a directed graph over comparable node keys. Node and edge
	// insertion order is preserved so results are deterministic.
	Graph[N comparable] struct {
		nodes []N
		index map[N]int
		// succ[i] holds the indexes of the nodes that must follow nodes[i].
		succ [][]int
	}

	// CycleError reports that no topological order exists.
	CycleError[N comparable] struct {
		// Cycle starts and ends with the same node when it was found by FindCycle.
		Cycle []N
	}

	state uint8
)

func (e *CycleError[N]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		parts[i] = fmt.Sprint(n)
	}
	return "dependency cycle detected: " + strings.Join(parts, " -> ")
}

// New creates an empty Graph.
func New[N comparable]() *Graph[N] {
	return &Graph[N]{index: make(map[N]int)}
}

// AddNode adds n unless it is already present.
func (g *Graph[N]) AddNode(n N) {
	g.id(n)
}

// AddEdge records that from must precede to, adding both nodes if needed.
func (g *Graph[N]) AddEdge(from, to N) {
	f, t := g.id(from), g.id(to)
	g.succ[f] = append(g.succ[f], t)
}

func (g *Graph[N]) id(n N) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[n] = i
	g.nodes = append(g.nodes, n)
	g.succ = append(g.succ, nil)
	return i
}

// Len returns the number of nodes.
func (g *Graph[N]) Len() int { return len(g.nodes) }

// Nodes returns the nodes in insertion order.
func (g *Graph[N]) Nodes() []N {
	return slices.Clone(g.nodes)
}

// Successors returns the nodes that must follow n, in edge insertion order.
func (g *Graph[N]) Successors(n N) []N {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	out := make([]N, len(g.succ[i]))
	for k, j := range g.succ[i] {
		out[k] = g.nodes[j]
	}
	return out
}

// FindCycle searches depth-first from each node in insertion order. On the
// first edge back to a node still on the search path it returns the path
// from that node onward, closed by repeating it. An acyclic graph yields nil.
func (g *Graph[N]) FindCycle() []N {
	states := make([]state, len(g.nodes))
	var path []int

	var visit func(i int) []N
	visit = func(i int) []N {
		states[i] = onStack
		path = append(path, i)
		for _, j := range g.succ[i] {
			switch states[j] {
			case onStack:
				start := slices.Index(path, j)
				cycle := make([]N, 0, len(path)-start+1)
				for _, k := range path[start:] {
					cycle = append(cycle, g.nodes[k])
				}
				return append(cycle, g.nodes[j])
			case unvisited:
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		states[i] = done
		return nil
	}

	for i := range g.nodes {
		if states[i] != unvisited {
			continue
		}
		if cycle := visit(i); cycle != nil {
			return cycle
		}
	}
	return nil
}

// TopologicalSort orders the nodes with Kahn's algorithm. Nodes that become
// ready together keep their insertion order. A cyclic graph yields a
// *CycleError.
func (g *Graph[N]) TopologicalSort() ([]N, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	indegree := make([]int, len(g.nodes))
	for _, targets := range g.succ {
		for _, j := range targets {
			indegree[j]++
		}
	}

	ready := make([]int, 0, len(g.nodes))
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]N, 0, len(g.nodes))
	for head := 0; head < len(ready); head++ {
		i := ready[head]
		order = append(order, g.nodes[i])
		for _, j := range g.succ[i] {
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if len(order) < len(g.nodes) {
		return nil, &CycleError[N]{Cycle: g.FindCycle()}
	}
	return order, nil
}
