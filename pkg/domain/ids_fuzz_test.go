//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseUserID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseUserID(f *testing.F) {
	// Seed corpus with interesting inputs
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)

		// Either valid ID or error, never both
		if err == nil {
			roundTrip, err2 := ParseUserID(id.String())
			if err2 != nil {
				t.Errorf("Valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("Round-trip changed ID value")
			}
		}

		// Non-UTF8 input must be rejected
		if !utf8.ValidString(input) && err == nil {
			t.Error("Non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures the ID types share one validation behavior.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		_, errRecord := ParseRecordID(input)

		if (errUser == nil) != (errRecord == nil) {
			t.Error("Inconsistent parsing across ID types")
		}
	})
}

// FuzzParseRoomCode verifies normalization is stable: parsing the output of a
// successful parse yields the same code.
func FuzzParseRoomCode(f *testing.F) {
	f.Add("sunny-side")
	f.Add("  MIXED Case  ")
	f.Add("")
	f.Add("\t\n")

	f.Fuzz(func(t *testing.T, input string) {
		code, err := ParseRoomCode(input)
		if err != nil {
			return
		}
		if code == "" {
			t.Error("Parse accepted an empty code")
		}
		again, err := ParseRoomCode(code.String())
		if err != nil {
			t.Errorf("Normalized code failed re-parse: %v", err)
		}
		if again != code {
			t.Error("Re-parse changed the code")
		}
	})
}
