package git

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ParseUnifiedDiff classifies and numbers the lines of a single-file unified
// diff. Line numbers restart at every well-formed hunk header.
func ParseUnifiedDiff(text string) []DiffLine {
	var (
		lines   []DiffLine
		oldLine int
		newLine int
	)
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		switch {
		case raw == "":
			continue
		case strings.HasPrefix(raw, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(raw); m != nil {
				oldLine, _ = strconv.Atoi(m[1])
				newLine, _ = strconv.Atoi(m[2])
			}
			lines = append(lines, DiffLine{Content: raw, Kind: LineHeader})
		case strings.HasPrefix(raw, "---"), strings.HasPrefix(raw, "+++"):
			lines = append(lines, DiffLine{Content: raw, Kind: LineHeader})
		case raw[0] == '-':
			lines = append(lines, DiffLine{OldLineNumber: intPtr(oldLine), Content: raw[1:], Kind: LineDeleted})
			oldLine++
		case raw[0] == '+':
			lines = append(lines, DiffLine{NewLineNumber: intPtr(newLine), Content: raw[1:], Kind: LineAdded})
			newLine++
		case raw[0] == ' ':
			lines = append(lines, DiffLine{
				OldLineNumber: intPtr(oldLine),
				NewLineNumber: intPtr(newLine),
				Content:       raw[1:],
				Kind:          LineContext,
			})
			oldLine++
			newLine++
		default:
			// "\ No newline at end of file", "diff --git", "index ..." and similar metadata.
			lines = append(lines, DiffLine{Content: raw, Kind: LineContext})
		}
	}
	return lines
}

// CountChanges counts added and deleted lines in patch text, ignoring the
// "+++" and "---" file header lines.
func CountChanges(text string) (additions, deletions int) {
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

func intPtr(v int) *int { return &v }
