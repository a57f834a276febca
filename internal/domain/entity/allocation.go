package entity

import "github.com/garyjia/monitoria/internal/domain/apperror"

// ValidateAllocation checks an admin scholarship allocation against the request.
// It is valid iff 0 <= allocated <= requested.
func ValidateAllocation(requested, allocated int) error {
	if allocated < 0 {
		return apperror.BusinessRule("allocated scholarships must not be negative, got %d", allocated)
	}
	if allocated > requested {
		return apperror.BusinessRule("allocated scholarships (%d) must not exceed requested scholarships (%d)", allocated, requested)
	}
	return nil
}
