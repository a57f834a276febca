package entity

// Status constants for Project, mirrored by workflow.State
const (
	StatusDraft                     = "DRAFT"
	StatusPendingProfessorSignature = "PENDING_PROFESSOR_SIGNATURE"
	StatusSubmitted                 = "SUBMITTED"
	StatusPendingAdminSignature     = "PENDING_ADMIN_SIGNATURE"
	StatusApproved                  = "APPROVED"
	StatusRejected                  = "REJECTED"
)

// History action types
const (
	ActionCreate           = "CREATE"
	ActionEditContent      = "EDIT_CONTENT"
	ActionUpdateAllocation = "UPDATE_ALLOCATION"
)

// Slot types for filled assistant positions
const (
	SlotBolsista   = "BOLSISTA"
	SlotVoluntario = "VOLUNTARIO"
)
