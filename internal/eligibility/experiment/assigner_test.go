package experiment

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saral/internal/eligibility/models"
)

func TestAssign_Deterministic(t *testing.T) {
	a := NewAssigner("pilot-salt")

	first := a.Assign("citizen-42", "UJJ")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, a.Assign("citizen-42", "UJJ"))
	}
	assert.Equal(t, first, NewAssigner("pilot-salt").Assign("citizen-42", "UJJ"))
}

func TestAssign_MatchesDigestParity(t *testing.T) {
	a := NewAssigner("s")
	for i := 0; i < 50; i++ {
		citizen := fmt.Sprintf("c-%d", i)
		sum := sha256.Sum256([]byte(citizen + "|PMAY|s"))
		even := new(big.Int).SetBytes(sum[:]).Bit(0) == 0

		got := a.Assign(citizen, "PMAY")
		if even {
			assert.Equal(t, models.ArmTreatment, got.Arm)
		} else {
			assert.Equal(t, models.ArmControl, got.Arm)
		}
	}
}

func TestAssign_ReasonDoesNotLeakSalt(t *testing.T) {
	salt := "very-secret-salt"
	got := NewAssigner(salt).Assign("citizen-1", "UJJ")

	require.True(t, strings.HasPrefix(got.Reason, "sha256_parity:"))
	assert.Len(t, strings.TrimPrefix(got.Reason, "sha256_parity:"), ReasonPrefixLen)
	assert.NotContains(t, got.Reason, salt)
}

func TestAssign_SaltAndSchemeMatter(t *testing.T) {
	a, b := NewAssigner("one"), NewAssigner("two")
	differs := 0
	for i := 0; i < 100; i++ {
		c := fmt.Sprintf("c-%d", i)
		if a.Assign(c, "UJJ").Reason != b.Assign(c, "UJJ").Reason {
			differs++
		}
		assert.NotEqual(t, a.Assign(c, "UJJ").Reason, a.Assign(c, "PMAY").Reason)
	}
	assert.Equal(t, 100, differs)
}

func TestAssign_Balanced(t *testing.T) {
	a := NewAssigner("balance")
	const n = 10000
	treatment := 0
	for i := 0; i < n; i++ {
		if a.Assign(fmt.Sprintf("citizen-%d", i), "UJJ").Arm == models.ArmTreatment {
			treatment++
		}
	}
	// 5 standard deviations for a fair coin is 250.
	assert.InDelta(t, n/2, treatment, 250)
}
