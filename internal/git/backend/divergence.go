package backend

// reachableCommits walks the commit graph from start and returns every commit
// reachable from it, start included.
func reachableCommits(start string, parents func(hash string) ([]string, error)) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	if start == "" {
		return seen, nil
	}
	stack := []string{start}
	for len(stack) > 0 {
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		ps, err := parents(hash)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			if _, ok := seen[p]; !ok {
				stack = append(stack, p)
			}
		}
	}
	return seen, nil
}

// divergence returns how many commits are reachable only from target (ahead)
// and only from base (behind).
func divergence(base, target map[string]struct{}) (ahead int, behind int) {
	for hash := range target {
		if _, ok := base[hash]; !ok {
			ahead++
		}
	}
	for hash := range base {
		if _, ok := target[hash]; !ok {
			behind++
		}
	}
	return ahead, behind
}
