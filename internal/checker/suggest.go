package checker

// levenshtein computes the edit distance between a and b, used to
// suggest the nearest known name for an unresolved reference
// (spec.md §7: "span + suggestions (nearest Levenshtein)").
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// nearest returns the candidate with the smallest edit distance to
// name, or "" if candidates is empty or nothing is reasonably close.
func nearest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, cand := range candidates {
		d := levenshtein(name, cand)
		if bestDist == -1 || d < bestDist {
			best, bestDist = cand, d
		}
	}
	if bestDist < 0 || bestDist > len(name)/2+2 {
		return ""
	}
	return best
}

// suggestValue finds the closest known value name to an unresolved
// reference.
func (c *Checker) suggestValue(name string) string {
	var cands []string
	for k := range c.local.valueSchemes {
		cands = append(cands, k)
	}
	for k := range c.env.valuesByUnqualified {
		cands = append(cands, k)
	}
	for k := range c.local.ctors {
		cands = append(cands, k)
	}
	for k := range c.env.ctorsByUnqualified {
		cands = append(cands, k)
	}
	return nearest(name, cands)
}

// suggestType finds the closest known type name to an unresolved
// reference.
func (c *Checker) suggestType(name string) string {
	var cands []string
	for k := range c.local.types {
		cands = append(cands, k)
	}
	for k := range c.env.typesByUnqualified {
		cands = append(cands, k)
	}
	cands = append(cands, "Unit", "Bool", "Int", "Float", "String", "Array")
	return nearest(name, cands)
}
