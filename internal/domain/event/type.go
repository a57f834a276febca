package event

// Type identifies the type of domain event
type Type string

const (
	TypeProjectCreated   Type = "project.created"
	TypeStatusChanged    Type = "project.status_changed"
	TypeProjectSubmitted Type = "project.submitted"
	TypeProjectApproved  Type = "project.approved"
	TypeProjectRejected  Type = "project.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeProjectCreated,
		TypeStatusChanged,
		TypeProjectSubmitted,
		TypeProjectApproved,
		TypeProjectRejected:
		return true
	default:
		return false
	}
}
