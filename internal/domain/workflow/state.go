package workflow

// State represents a project status in the monitoria lifecycle
type State string

const (
	StateDraft                     State = "DRAFT"
	StatePendingProfessorSignature State = "PENDING_PROFESSOR_SIGNATURE"
	StateSubmitted                 State = "SUBMITTED"
	StatePendingAdminSignature     State = "PENDING_ADMIN_SIGNATURE"
	StateApproved                  State = "APPROVED"
	StateRejected                  State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:                     true,
	StatePendingProfessorSignature: true,
	StateSubmitted:                 true,
	StatePendingAdminSignature:     true,
	StateApproved:                  true,
	StateRejected:                  true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// AllStates returns every state in lifecycle order
func AllStates() []State {
	return []State{
		StateDraft,
		StatePendingProfessorSignature,
		StateSubmitted,
		StatePendingAdminSignature,
		StateApproved,
		StateRejected,
	}
}

// IsTerminal returns true if no further status change is defined from this state.
// In-place allocation edits on APPROVED are still permitted.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
