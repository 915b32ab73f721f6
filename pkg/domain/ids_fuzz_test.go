package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseCitizenID checks that parsing never panics and that accepted
// identifiers round-trip and stay within the allowed alphabet.
func FuzzParseCitizenID(f *testing.F) {
	f.Add("")
	f.Add("citizen_001")
	f.Add("'; DROP TABLE cases;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCitizenID(input)
		if err != nil {
			return
		}
		if id.String() != input {
			t.Error("accepted ID changed value")
		}
		if !utf8.ValidString(input) || len(input) > 64 {
			t.Errorf("accepted out-of-alphabet input %q", input)
		}
	})
}

// FuzzParseCaseID checks that accepted case IDs round-trip.
func FuzzParseCaseID(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCaseID(input)
		if err != nil {
			return
		}
		again, err := ParseCaseID(id.String())
		if err != nil || again != id {
			t.Error("valid case ID failed round-trip")
		}
	})
}
