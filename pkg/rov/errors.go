package rov

import "fmt"

// InvariantError reports a command that must never reach the vehicle or the
// mirror: an out-of-range motor index or a kind that is not modeled.
type InvariantError struct {
	Command Command
	Reason  string
}

func (e *InvariantError) Error() string {
	if e.Command == (Command{}) {
		return fmt.Sprintf("invariant violation: %s", e.Reason)
	}
	return fmt.Sprintf("invariant violation: %s: %s", e.Command, e.Reason)
}
