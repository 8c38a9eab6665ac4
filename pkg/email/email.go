// Package email derives a presentable display name from an email address,
// used when a sign-in provider supplies no name of its own.
package email

import (
	"strings"
	"unicode"
)

// DeriveDisplayName turns the local part of an address into a display name:
// "ana.garcia@example.com" becomes "Ana Garcia". An address with no usable
// local part yields "User".
func DeriveDisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
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
