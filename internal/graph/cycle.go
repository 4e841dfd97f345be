package graph

// FindCycle returns the first foreign-key cycle among the tables of m, as an
// ordered path that starts and ends with the same table (e.g. [a b a]).
// It returns nil when the references are acyclic. Self references are not
// edges of the map and never show up here.
func FindCycle(m *TableColumnMap) []string {
	if m == nil {
		return nil
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, m.Len())
	var path, cycle []string

	var visit func(table string) bool
	visit = func(table string) bool {
		state[table] = onPath
		path = append(path, table)

		for _, parent := range m.Parents(table) {
			switch state[parent] {
			case onPath:
				// Back edge: the cycle is the path suffix starting at parent.
				for i, t := range path {
					if t == parent {
						cycle = append(append([]string{}, path[i:]...), parent)
						break
					}
				}
				return true
			case unvisited:
				if visit(parent) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		state[table] = done
		return false
	}

	for _, table := range m.Tables() {
		if state[table] == unvisited && visit(table) {
			return cycle
		}
	}
	return nil
}
