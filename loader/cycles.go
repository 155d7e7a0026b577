package loader

import (
	"slices"
)

// Cycles reports groups of registered modules that import each other,
// directly or transitively, using Tarjan's strongly connected components.
// A module that imports itself is reported as a group of one.
//
// Importing any module in a reported group never settles. Cycles is a
// diagnostic; it does not change how modules are linked or evaluated.
func (l *Loader) Cycles() [][]string {
	mods := l.registry.Modules()
	edges := make(map[string][]string, len(mods))
	for _, m := range mods {
		edges[m.id] = m.Dependencies()
	}

	var (
		index    int
		stack    []string
		cycles   [][]string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
	)

	var strongConnect func(id string)
	strongConnect = func(id string) {
		indices[id] = index
		lowlinks[id] = index
		index++
		stack = append(stack, id)
		onStack[id] = true

		for _, dep := range edges[id] {
			if _, registered := edges[dep]; !registered {
				continue
			}
			if _, visited := indices[dep]; !visited {
				strongConnect(dep)
				lowlinks[id] = min(lowlinks[id], lowlinks[dep])
			} else if onStack[dep] {
				lowlinks[id] = min(lowlinks[id], indices[dep])
			}
		}

		if lowlinks[id] != indices[id] {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		if len(scc) > 1 || slices.Contains(edges[id], id) {
			slices.Sort(scc)
			cycles = append(cycles, scc)
		}
	}

	for _, m := range mods {
		if _, visited := indices[m.id]; !visited {
			strongConnect(m.id)
		}
	}

	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles
}
