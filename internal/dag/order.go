package dag

import (
	"fmt"
	"slices"
)

// TopologicalOrder returns every node so that each one comes after all of its
// dependencies. Among nodes that are ready at the same time, the one added
// first wins, which makes the order a pure function of how the graph was
// built.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	pending := make(map[string]int, len(g.nodes))
	var ready []*node
	for _, id := range g.order {
		n := g.nodes[id]
		pending[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, n)
		}
	}

	out := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, n.id)

		for _, d := range sortedNodes(n.dependents) {
			pending[d.id]--
			if pending[d.id] == 0 {
				ready = append(ready, d)
			}
		}
		slices.SortFunc(ready, func(a, b *node) int { return a.seq - b.seq })
	}

	if len(out) != len(g.nodes) {
		for _, id := range g.order {
			if pending[id] > 0 {
				return nil, fmt.Errorf("cycle detected involving node '%s'", id)
			}
		}
	}
	return out, nil
}
