// Package validation provides input validation helpers shared by services
// and handlers.
package validation

import (
	"fmt"
	"strings"

	"linkparty/internal/models"
)

const (
	// DisplayNameMinLength is the minimum display name length after trimming.
	DisplayNameMinLength = 2
	// DisplayNameMaxLength is the maximum display name length after trimming.
	DisplayNameMaxLength = 50
	// PartyNameMaxLength is the maximum party name length.
	PartyNameMaxLength = 100
)

// DisplayName trims the name and validates its length. Returns the trimmed
// value.
func DisplayName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < DisplayNameMinLength || len(trimmed) > DisplayNameMaxLength {
		return "", fmt.Errorf("display name must be between %d and %d characters",
			DisplayNameMinLength, DisplayNameMaxLength)
	}
	return trimmed, nil
}

// PartyName trims the name and validates its length. An empty name is
// allowed; the handler substitutes a default.
func PartyName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) > PartyNameMaxLength {
		return "", fmt.Errorf("party name must be at most %d characters", PartyNameMaxLength)
	}
	return trimmed, nil
}

// PartyCode uppercases the code and checks its length. Lookups deliberately
// skip the generation alphabet: a code that could never be minted simply
// reads as not found.
func PartyCode(code string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if len(upper) != models.PartyCodeLength {
		return "", fmt.Errorf("party code must be %d characters", models.PartyCodeLength)
	}
	return upper, nil
}

// Email performs a minimal shape check and lowercases the address. Full
// RFC validation is the mail provider's job.
func Email(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(trimmed, "@")
	if at < 1 || at == len(trimmed)-1 || len(trimmed) > 254 {
		return "", fmt.Errorf("invalid email address")
	}
	return trimmed, nil
}
