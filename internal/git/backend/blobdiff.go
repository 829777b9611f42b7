package backend

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// unifiedBlobDiff renders the unified diff between two blob contents with
// three lines of context. A side with an empty path is shown as /dev/null.
func unifiedBlobDiff(oldPath, newPath string, oldData, newData []byte) (string, error) {
	fromFile := "/dev/null"
	if oldPath != "" {
		fromFile = "a/" + oldPath
	}
	toFile := "/dev/null"
	if newPath != "" {
		toFile = "b/" + newPath
	}
	ud := difflib.UnifiedDiff{
		A:        blobLines(string(oldData)),
		B:        blobLines(string(newData)),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// blobLines splits content keeping line terminators. Unlike difflib.SplitLines
// it does not append a phantom empty line after a trailing newline.
func blobLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}
