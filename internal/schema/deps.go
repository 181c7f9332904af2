package schema

// DependencyOrder orders the document's tables so that referenced tables come before the tables
// referencing them. Cycles are broken with a scoring heuristic; the tables chosen to break a
// cycle are returned as cycleBreakers, in the order they were placed.
func (md *StoredDatabaseMetadata) DependencyOrder() (ordered []RelId, cycleBreakers []RelId) {
	type node struct {
		id   RelId
		key  relKey
		name string
		deps []relKey
	}

	// A relation listed twice is one node.
	var nodes []*node
	byKey := make(map[relKey]*node)
	for _, rm := range md.RelationMetadatas {
		if rm.RelationType != RelTypeTable {
			continue
		}
		k := rm.RelationId.key()
		if _, dup := byKey[k]; dup {
			continue
		}
		n := &node{id: rm.RelationId, key: k, name: rm.RelationId.String()}
		nodes = append(nodes, n)
		byKey[k] = n
	}
	for _, fk := range md.ForeignKeys {
		src, tgt := fk.ForeignKeyRelationId.key(), fk.PrimaryKeyRelationId.key()
		if src == tgt {
			continue
		}
		if n, ok := byKey[src]; ok {
			if _, known := byKey[tgt]; known {
				n.deps = append(n.deps, tgt)
			}
		}
	}

	processed := make(map[relKey]bool)
	for len(ordered) < len(nodes) {
		added := false

		// Pass 1: tables whose dependencies are all placed
		for _, n := range nodes {
			if processed[n.key] {
				continue
			}
			ready := true
			for _, dep := range n.deps {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				ordered = append(ordered, n.id)
				processed[n.key] = true
				added = true
			}
		}
		if added {
			continue
		}

		// Pass 2: a cycle remains, place the best scoring table
		var best *node
		bestScore := 0
		for _, n := range nodes {
			if processed[n.key] {
				continue
			}
			score := 0
			circular := false
			for _, dep := range n.deps {
				if processed[dep] {
					continue
				}
				score -= 100
				for _, back := range byKey[dep].deps {
					if back == n.key {
						circular = true
					}
				}
			}
			if circular {
				score += 500
			}
			if best == nil || score > bestScore || (score == bestScore && n.name < best.name) {
				best, bestScore = n, score
			}
		}
		ordered = append(ordered, best.id)
		cycleBreakers = append(cycleBreakers, best.id)
		processed[best.key] = true
	}

	return ordered, cycleBreakers
}
