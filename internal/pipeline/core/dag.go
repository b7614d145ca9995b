package core

// BuildExecutionOrder computes the transitive closure of requested
// stage names under the registry's declared Dependencies, then returns
// a topological order (dependencies before dependents) over that
// closure. It is the Go counterpart of the original's
// add_dependencies + networkx.topological_sort, implemented as an
// explicit depth-first visit with three-color cycle detection rather
// than a graph-library dependency, since the DAG here is a plain
// name-to-name relation.
func BuildExecutionOrder(registry *StageRegistry, requested []string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[string]int)
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return NewConfigurationError("stage_dag", "cycle detected in stage dependency graph at "+name)
		}

		if !registry.Has(name) {
			return NewConfigurationError("stage_dag", "reference to unregistered stage "+name)
		}

		state[name] = visiting
		deps, err := registry.Dependencies(name)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = visited
		order = append(order, name)
		return nil
	}

	for _, name := range requested {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}
