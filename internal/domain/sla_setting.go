package domain

import "time"

// SLASetting is read-only reference data scoping a resolution deadline to a
// priority and optionally a service category and patient type. Null scoping
// fields act as wildcards.
type SLASetting struct {
	ID            string
	Priority      TicketPriority
	CategoryID    *string
	PatientTypeID *string
	DurationHours int
	IsActive      bool
	CreatedAt     time.Time
}

// Matches reports whether the setting applies to the given classification,
// and how many non-null scoping fields matched exactly.
func (s *SLASetting) Matches(priority TicketPriority, categoryID, patientTypeID string) (bool, int) {
	if !s.IsActive || s.Priority != priority {
		return false, 0
	}
	specificity := 0
	if s.CategoryID != nil {
		if *s.CategoryID != categoryID {
			return false, 0
		}
		specificity++
	}
	if s.PatientTypeID != nil {
		if *s.PatientTypeID != patientTypeID {
			return false, 0
		}
		specificity++
	}
	return true, specificity
}
