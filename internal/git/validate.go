package git

import (
	"fmt"
	"os"
	"strings"
)

// ValidateWorkspace checks that the workspace exists and that every
// configured repository resolves.
func (s *Service) ValidateWorkspace() WorkspaceValidation {
	res := WorkspaceValidation{Repositories: make(map[string]bool)}
	info, err := os.Stat(s.resolver.Workspace())
	if err != nil || !info.IsDir() {
		res.Message = fmt.Sprintf("workspace %s does not exist", s.resolver.Workspace())
		for _, key := range s.resolver.Keys() {
			res.Repositories[key] = false
		}
		return res
	}
	var missing []string
	for _, key := range s.resolver.Keys() {
		_, err := s.resolver.Resolve(key)
		res.Repositories[key] = err == nil
		if err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", key, ErrorKind(err)))
		}
	}
	res.Valid = len(missing) == 0
	if res.Valid {
		res.Message = "workspace is valid"
	} else {
		res.Message = "unavailable repositories: " + strings.Join(missing, ", ")
	}
	return res
}
