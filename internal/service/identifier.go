package service

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	uidNoise        = regexp.MustCompile(`[\s/-]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// IdentifierKey strips everything but letters and digits and upper-cases the
// rest. Two spellings of the same roll number share one key.
func IdentifierKey(value string) string {
	return strings.ToUpper(nonAlphanumeric.ReplaceAllString(value, ""))
}

// RollKey is the lookup key stored in academic_identifiers.roll_number_key.
func RollKey(roll string) string {
	return IdentifierKey(roll)
}

// NormalizeRegistration formats a registration number. Thirteen characters
// become NNN-NNNN-NNNN-NN, anything else is returned stripped.
func NormalizeRegistration(value string) string {
	key := IdentifierKey(value)
	if len(key) != 13 {
		return key
	}
	return key[:3] + "-" + key[3:7] + "-" + key[7:11] + "-" + key[11:]
}

// NormalizeRoll formats a roll number. BBA roll numbers are split around the
// BBA marker; otherwise 10, 12 and 13 character numbers get fixed separators.
func NormalizeRoll(value string) string {
	key := IdentifierKey(value)
	if idx := strings.Index(key, "BBA"); idx >= 0 {
		return joinNonEmpty(key[:idx], "BBA", key[idx+3:])
	}
	switch len(key) {
	case 10:
		return key[:6] + "-" + key[6:]
	case 12:
		return key[:6] + "-" + key[6:8] + "-" + key[8:]
	case 13:
		return key[:6] + "-" + key[6:9] + "-" + key[9:]
	}
	return key
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}

// CleanUID drops whitespace, slashes and hyphens from a legacy UID and
// upper-cases it. The result is the local part of the student's email.
func CleanUID(uid string) string {
	return strings.ToUpper(uidNoise.ReplaceAllString(uid, ""))
}

// CleanText trims, collapses inner whitespace and upper-cases a free-text cell.
func CleanText(value string) string {
	return strings.ToUpper(whitespaceRun.ReplaceAllString(strings.TrimSpace(value), " "))
}

// CleanIdentifier is CleanText with the tilde spreadsheets leave behind removed.
func CleanIdentifier(value string) string {
	return CleanText(strings.ReplaceAll(value, "~", ""))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
