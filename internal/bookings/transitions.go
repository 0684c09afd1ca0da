package bookings

import "fmt"

// Transitions is the table of status changes a clinic may apply.
type Transitions struct {
	mode  string
	edges map[Status]map[Status]bool
}

// StrictTransitions allows pending to approved, rejected or cancelled, and
// approved to completed or cancelled. Rejected, completed and cancelled are terminal.
func StrictTransitions() Transitions {
	return Transitions{
		mode: "strict",
		edges: map[Status]map[Status]bool{
			StatusPending:  {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
			StatusApproved: {StatusCompleted: true, StatusCancelled: true},
		},
	}
}

// PermissiveTransitions allows any status to move to any other, including
// pending straight to completed for walk-in visits.
func PermissiveTransitions() Transitions {
	edges := make(map[Status]map[Status]bool, len(allStatuses))
	for _, from := range allStatuses {
		edges[from] = make(map[Status]bool, len(allStatuses))
		for _, to := range allStatuses {
			if from != to {
				edges[from][to] = true
			}
		}
	}
	return Transitions{mode: "permissive", edges: edges}
}

// ParseTransitions selects a table by name.
func ParseTransitions(mode string) (Transitions, error) {
	switch mode {
	case "", "strict":
		return StrictTransitions(), nil
	case "permissive":
		return PermissiveTransitions(), nil
	}
	return Transitions{}, fmt.Errorf("bookings: unknown transition mode %q", mode)
}

// Allowed reports whether from may move to to.
func (t Transitions) Allowed(from, to Status) bool {
	return t.edges[from][to]
}

// Mode names the table.
func (t Transitions) Mode() string { return t.mode }
