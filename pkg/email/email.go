// Package email derives presentation defaults from email addresses.
package email

import (
	"strings"
	"unicode"
)

// DeriveDisplayName builds a humane default display name from the local part
// of an email address. "jane.doe@example.com" becomes "Jane Doe". Used when a
// profile row has no display name yet; callers overwrite it the moment the
// user picks a real name.
func DeriveDisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return ""
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
