package backend

import (
	"errors"
	"testing"
)

func graphParents(graph map[string][]string) func(string) ([]string, error) {
	return func(hash string) ([]string, error) {
		return graph[hash], nil
	}
}

func TestDivergence(t *testing.T) {
	t.Parallel()

	// a <- b <- c (base)
	//       \
	//        d <- e (target)
	graph := map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
		"d": {"b"},
		"e": {"d"},
	}
	tests := []struct {
		name       string
		base       string
		target     string
		wantAhead  int
		wantBehind int
	}{
		{name: "diverged", base: "c", target: "e", wantAhead: 2, wantBehind: 1},
		{name: "identical", base: "c", target: "c", wantAhead: 0, wantBehind: 0},
		{name: "target_behind_only", base: "c", target: "b", wantAhead: 0, wantBehind: 1},
		{name: "target_ahead_only", base: "b", target: "e", wantAhead: 2, wantBehind: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base, err := reachableCommits(tt.base, graphParents(graph))
			if err != nil {
				t.Fatalf("reachableCommits(base): %v", err)
			}
			target, err := reachableCommits(tt.target, graphParents(graph))
			if err != nil {
				t.Fatalf("reachableCommits(target): %v", err)
			}
			ahead, behind := divergence(base, target)
			if ahead != tt.wantAhead || behind != tt.wantBehind {
				t.Fatalf("divergence = (%d, %d), want (%d, %d)", ahead, behind, tt.wantAhead, tt.wantBehind)
			}
		})
	}
}

func TestReachableCommits_MergeVisitsEachCommitOnce(t *testing.T) {
	t.Parallel()

	calls := map[string]int{}
	graph := map[string][]string{
		"root": nil,
		"l":    {"root"},
		"r":    {"root"},
		"m":    {"l", "r"},
	}
	set, err := reachableCommits("m", func(hash string) ([]string, error) {
		calls[hash]++
		return graph[hash], nil
	})
	if err != nil {
		t.Fatalf("reachableCommits: %v", err)
	}
	if len(set) != 4 {
		t.Fatalf("len(set) = %d, want 4", len(set))
	}
	for hash, n := range calls {
		if n != 1 {
			t.Fatalf("parents(%s) called %d times", hash, n)
		}
	}
}

func TestReachableCommits_PropagatesError(t *testing.T) {
	t.Parallel()

	_, err := reachableCommits("x", func(string) ([]string, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
