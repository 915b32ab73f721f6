// Package experiment assigns RCT arms.
package experiment

import (
	"crypto/sha256"
	"encoding/hex"

	"saral/internal/eligibility/models"
)

// ReasonPrefixLen is how many hex digits of the digest are kept for audit.
const ReasonPrefixLen = 12

// Assigner maps (citizen, scheme) to an arm with a salted one-way digest.
// The salt never leaves the assigner.
type Assigner struct {
	salt string
}

// NewAssigner creates an assigner for the given secret salt.
func NewAssigner(salt string) *Assigner {
	return &Assigner{salt: salt}
}

// Assign is deterministic: the same inputs and salt always give the same
// arm and reason. An even digest value (last bit clear) selects TREATMENT.
func (a *Assigner) Assign(citizenID, schemeCode string) models.ArmAssignment {
	sum := sha256.Sum256([]byte(citizenID + "|" + schemeCode + "|" + a.salt))
	digest := hex.EncodeToString(sum[:])

	arm := models.ArmControl
	if sum[len(sum)-1]&1 == 0 {
		arm = models.ArmTreatment
	}
	return models.ArmAssignment{
		Arm:    arm,
		Reason: "sha256_parity:" + digest[:ReasonPrefixLen],
	}
}
