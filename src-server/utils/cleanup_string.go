package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// strips spaces and normalizes to NFC so equal names compare equal
func CleanupString(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CleanupName also title-cases, for people's names
func CleanupName(s string) string {
	return cases.Title(language.English).String(CleanupString(s))
}
