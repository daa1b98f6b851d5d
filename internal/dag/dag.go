package dag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Graph is a set of string-keyed nodes and the directed edges between them.
// All operations are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
}

// node is one vertex. It stays un-exported so callers interact with the
// graph through IDs, never through struct internals.
type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. Adding the same
// edge twice is a no-op. An error is returned if either node does not exist
// or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Roots returns the IDs of all nodes with no dependencies, sorted.
func (g *Graph) Roots() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var roots []string
	for id, n := range g.nodes {
		if len(n.deps) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Dependencies returns the sorted IDs of the nodes the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// Dependents returns the sorted IDs of the nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.dependents), nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, spelling out the full dependency path of the first
// cycle encountered.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three node states:
	// visited: fully explored and known to be safe.
	// visiting: currently on the recursion stack.
	// anything else: not seen yet.
	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		switch state[n.id] {
		case visited:
			return nil
		case visiting:
			// The node is already on the stack; the slice from its first
			// occurrence to the top spells out the cycle.
			start := 0
			for i, id := range stack {
				if id == n.id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), n.id)
			return fmt.Errorf("dependency cycle detected: %s", strings.Join(cycle, " -> "))
		}

		state[n.id] = visiting
		stack = append(stack, n.id)

		for _, id := range sortedIDs(n.dependents) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[n.id] = visited
		return nil
	}

	for _, id := range sortedIDs(g.nodes) {
		if state[id] != visited {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}

	return nil
}

func sortedIDs(nodes map[string]*node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
