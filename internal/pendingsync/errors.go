package pendingsync

import "fmt"

// Phase names the step of a poll cycle that failed.
type Phase string

const (
	PhaseBlock       Phase = "block"
	PhaseStateUpdate Phase = "state-update"
	PhaseClasses     Phase = "classes"
	PhasePublish     Phase = "publish"
)

// PhaseError is the fatal error of a poll session.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("pending sync failed in %s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
