package models

// Arm is the RCT arm a case was assigned to.
type Arm string

const (
	ArmTreatment Arm = "TREATMENT"
	ArmControl   Arm = "CONTROL"
)

// IsValid reports whether a is a known arm.
func (a Arm) IsValid() bool {
	return a == ArmTreatment || a == ArmControl
}

// ArmAssignment is the arm plus an audit-safe digest prefix.
type ArmAssignment struct {
	Arm    Arm    `json:"arm"`
	Reason string `json:"assignment_reason"`
}

// DecisionSupportShown reports whether risk output may be shown for this arm.
func (a ArmAssignment) DecisionSupportShown() bool {
	return a.Arm == ArmTreatment
}
