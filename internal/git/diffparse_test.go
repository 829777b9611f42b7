package git

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func lineDesc(l DiffLine) string {
	num := func(p *int) string {
		if p == nil {
			return "nil"
		}
		return fmt.Sprint(*p)
	}
	return fmt.Sprintf("%s(%s,%s,%q)", l.Kind, num(l.OldLineNumber), num(l.NewLineNumber), l.Content)
}

func TestParseUnifiedDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "single_hunk",
			in:   "@@ -1,2 +1,3 @@\n context1\n-old1\n+new1\n+new2\n context2\n",
			want: []string{
				`header(nil,nil,"@@ -1,2 +1,3 @@")`,
				`context(1,1,"context1")`,
				`deleted(2,nil,"old1")`,
				`added(nil,2,"new1")`,
				`added(nil,3,"new2")`,
				`context(3,4,"context2")`,
			},
		},
		{
			name: "file_headers_and_multiple_hunks",
			in: "--- a/f.txt\n+++ b/f.txt\n@@ -1 +1 @@\n-a\n+b\n" +
				"@@ -10,2 +10,2 @@ func x()\n ctx\n-c\n+d\n",
			want: []string{
				`header(nil,nil,"--- a/f.txt")`,
				`header(nil,nil,"+++ b/f.txt")`,
				`header(nil,nil,"@@ -1 +1 @@")`,
				`deleted(1,nil,"a")`,
				`added(nil,1,"b")`,
				`header(nil,nil,"@@ -10,2 +10,2 @@ func x()")`,
				`context(10,10,"ctx")`,
				`deleted(11,nil,"c")`,
				`added(nil,11,"d")`,
			},
		},
		{
			name: "empty_lines_skipped_and_metadata_kept",
			in:   "@@ -1 +1 @@\n\n-a\n\\ No newline at end of file\n+b\n",
			want: []string{
				`header(nil,nil,"@@ -1 +1 @@")`,
				`deleted(1,nil,"a")`,
				`context(nil,nil,"\\ No newline at end of file")`,
				`added(nil,1,"b")`,
			},
		},
		{
			name: "malformed_header_keeps_counters",
			in:   "@@ -5 +7 @@\n x\n@@ garbage @@\n y\n",
			want: []string{
				`header(nil,nil,"@@ -5 +7 @@")`,
				`context(5,7,"x")`,
				`header(nil,nil,"@@ garbage @@")`,
				`context(6,8,"y")`,
			},
		},
		{
			name: "empty_line_content",
			in:   "@@ -1,2 +1,2 @@\n \n+\n",
			want: []string{
				`header(nil,nil,"@@ -1,2 +1,2 @@")`,
				`context(1,1,"")`,
				`added(nil,2,"")`,
			},
		},
		{
			name: "rename_only",
			in:   "diff --git a/a b/b\nrename from a\nrename to b\n",
			want: []string{
				`context(nil,nil,"diff --git a/a b/b")`,
				`context(nil,nil,"rename from a")`,
				`context(nil,nil,"rename to b")`,
			},
		},
		{name: "empty", in: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseUnifiedDiff(tt.in)
			if len(got) != len(tt.want) {
				var descs []string
				for _, l := range got {
					descs = append(descs, lineDesc(l))
				}
				t.Fatalf("got %d lines, want %d:\n%s", len(got), len(tt.want), strings.Join(descs, "\n"))
			}
			for i, l := range got {
				if d := lineDesc(l); d != tt.want[i] {
					t.Fatalf("line %d: got %s, want %s", i, d, tt.want[i])
				}
			}
		})
	}
}

func TestCountChanges(t *testing.T) {
	t.Parallel()

	text := "diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -1,2 +1,3 @@\n a\n-b\n+c\n+d\n"
	add, del := CountChanges(text)
	if add != 2 || del != 1 {
		t.Fatalf("CountChanges = %d/%d, want 2/1", add, del)
	}
}

func TestDiffLineJSONKeepsNull(t *testing.T) {
	t.Parallel()

	lines := ParseUnifiedDiff("@@ -0,0 +1 @@\n+x\n")
	data, err := json.Marshal(lines[1])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"oldLineNumber":null,"newLineNumber":1,"content":"x","type":"added"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
	if _, err := json.Marshal(DiffLine{}); err == nil {
		t.Fatalf("expected error marshalling zero LineKind")
	}
}

// hunkGen draws a hunk as a sequence of ' ', '-' and '+' operations.
func hunkGen(ops string) *rapid.Generator[string] {
	return rapid.StringOfN(rapid.SampledFrom([]rune(ops)), 0, 30, -1)
}

func renderHunks(oldStarts, newStarts []int, hunks []string) string {
	var sb strings.Builder
	sb.WriteString("--- a/f\n+++ b/f\n")
	for i, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldStarts[i], newStarts[i])
		for j, op := range h {
			fmt.Fprintf(&sb, "%cline%d\n", op, j)
		}
	}
	return sb.String()
}

func TestPropertyLineNumbering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(t, "hunks")
		hunks := make([]string, n)
		oldStarts := make([]int, n)
		newStarts := make([]int, n)
		for i := range n {
			hunks[i] = hunkGen(" -+").Draw(t, fmt.Sprintf("hunk%d", i))
			oldStarts[i] = rapid.IntRange(1, 500).Draw(t, fmt.Sprintf("old%d", i))
			newStarts[i] = rapid.IntRange(1, 500).Draw(t, fmt.Sprintf("new%d", i))
		}
		lines := ParseUnifiedDiff(renderHunks(oldStarts, newStarts, hunks))

		hunk := -1
		var oldNext, newNext int
		for _, l := range lines {
			switch l.Kind {
			case LineHeader:
				if l.OldLineNumber != nil || l.NewLineNumber != nil {
					t.Fatalf("header with line numbers: %s", lineDesc(l))
				}
				if strings.HasPrefix(l.Content, "@@") {
					hunk++
					oldNext, newNext = oldStarts[hunk], newStarts[hunk]
				}
			case LineContext:
				if l.OldLineNumber == nil || l.NewLineNumber == nil {
					t.Fatalf("context missing numbers: %s", lineDesc(l))
				}
				if *l.OldLineNumber != oldNext || *l.NewLineNumber != newNext {
					t.Fatalf("context %s, want (%d,%d)", lineDesc(l), oldNext, newNext)
				}
				oldNext++
				newNext++
			case LineDeleted:
				if l.NewLineNumber != nil || l.OldLineNumber == nil || *l.OldLineNumber != oldNext {
					t.Fatalf("deleted %s, want old=%d", lineDesc(l), oldNext)
				}
				oldNext++
			case LineAdded:
				if l.OldLineNumber != nil || l.NewLineNumber == nil || *l.NewLineNumber != newNext {
					t.Fatalf("added %s, want new=%d", lineDesc(l), newNext)
				}
				newNext++
			}
		}
		if hunk != n-1 {
			t.Fatalf("saw %d hunk headers, want %d", hunk+1, n)
		}
	})
}

func TestPropertyOneSidedDiffs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		additions := rapid.Bool().Draw(t, "additions")
		ops := " -"
		if additions {
			ops = " +"
		}
		h := hunkGen(ops).Draw(t, "hunk")
		lines := ParseUnifiedDiff(renderHunks([]int{1}, []int{1}, []string{h}))
		for _, l := range lines {
			if additions && l.Kind == LineDeleted {
				t.Fatalf("deleted line in additions-only diff: %s", lineDesc(l))
			}
			if !additions && l.Kind == LineAdded {
				t.Fatalf("added line in deletions-only diff: %s", lineDesc(l))
			}
		}
		add, del := CountChanges(renderHunks([]int{1}, []int{1}, []string{h}))
		if additions && del != 0 || !additions && add != 0 {
			t.Fatalf("one-sided counts %d/%d", add, del)
		}
	})
}
