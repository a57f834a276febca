package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerRequestProfessorSignature Trigger = "REQUEST_PROFESSOR_SIGNATURE"
	TriggerSignProfessor             Trigger = "SIGN_PROFESSOR"
	TriggerRequestAdminSignature     Trigger = "REQUEST_ADMIN_SIGNATURE"
	TriggerApprove                   Trigger = "APPROVE"
	TriggerReject                    Trigger = "REJECT"

	// In-place edits, configured as self transitions
	TriggerEditContent      Trigger = "EDIT_CONTENT"
	TriggerUpdateAllocation Trigger = "UPDATE_ALLOCATION"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
