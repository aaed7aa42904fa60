package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and whether the converter can run
// without it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Requirement
	// Path is the resolved executable. Empty means unavailable.
	Path   string
	Detail string
}

// Available reports whether the binary resolved.
func (s Status) Available() bool { return s.Path != "" }

// Executable returns the resolved path when known, else the configured command.
func (s Status) Executable() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Command
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Check resolves a single requirement against PATH (or as a path when the
// command contains a separator).
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := lookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Path = resolved
	return status
}

// CheckBinaries resolves every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}

// Missing returns the required entries that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Optional && !s.Available() {
			missing = append(missing, s)
		}
	}
	return missing
}
