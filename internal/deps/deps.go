package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and whether the bot can run without it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement plus the outcome of looking it up.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves every requirement on PATH, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = lookup(Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		})
	}
	return results
}

// lookup sets Available, or Detail when the command is blank or absent.
func lookup(status Status) Status {
	switch {
	case status.Command == "":
		status.Detail = "command not configured"
	default:
		if _, err := exec.LookPath(status.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		} else {
			status.Available = true
		}
	}
	return status
}
