package entity

import "time"

// SignatureKind tags which role attested a project
type SignatureKind string

const (
	SignatureProfessorResponsible SignatureKind = "professor-responsible"
	SignatureAdminApproval        SignatureKind = "admin-approval"
)

// Signature records that a user attested to a project. Rows are never updated.
type Signature struct {
	ID           int64         `json:"id"`
	ProjectID    int64         `json:"projectId"`
	SignerUserID int64         `json:"signerUserId"`
	Kind         SignatureKind `json:"kind"`
	Payload      string        `json:"-"`
	SignedAt     time.Time     `json:"signedAt"`
}
