package view

import (
	"strings"
	"unicode/utf8"
)

// maskedIDPrefix replaces everything but the last four characters of a patient ID.
const maskedIDPrefix = "****-"

// MaskName reduces a patient name to the first name plus the initial of the
// second token: "Jane Doe" -> "Jane D.". Single-token names are unchanged.
func MaskName(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	initial, _ := utf8.DecodeRuneInString(parts[1])
	return parts[0] + " " + string(initial) + "."
}

// MaskID keeps only the last four characters of a patient ID:
// "P-12345" -> "****-2345".
func MaskID(id string) string {
	if id == "" {
		return ""
	}
	runes := []rune(id)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return maskedIDPrefix + string(runes)
}
