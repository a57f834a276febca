package entity

import "time"

// ProjectHistory is one entry of a project's audit trail
type ProjectHistory struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"projectId"`
	ActorUserID    int64     `json:"actorUserId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Action         string    `json:"action"`
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
