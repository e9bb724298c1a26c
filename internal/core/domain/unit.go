package domain

type UnitStatus string

const (
	UnitStatusActive       UnitStatus = "active"
	UnitStatusInService    UnitStatus = "in_service"
	UnitStatusOutOfService UnitStatus = "out_of_service"
)

// MobileUnit is read-only reference data describing a service vehicle that
// can hold deployed stock. The engine consumes it for location validation
// but does not own it.
type MobileUnit struct {
	ID                 string     `json:"id"`
	DisplayName        string     `json:"displayName"`
	AssignedTechnician string     `json:"assignedTechnician"`
	OperationalStatus  UnitStatus `json:"operationalStatus"`
}
