package errors

import (
	"strings"
	"unicode"
)

// maxNodeIDLength bounds node identifiers accepted from collaborators.
const maxNodeIDLength = 256

// ValidateNodeID validates a node identifier supplied by a collaborator
// (selection layer, HTTP client, CLI flag).
//
// Validation rules:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//
// Whether the node exists in the current tree is checked separately.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidateFormat checks an output format against the supported set.
// Comparison is case-sensitive.
func ValidateFormat(format string, supported []string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of %s)", format, strings.Join(supported, ", "))
}

// ValidateFormats checks every format in formats. An empty list is valid.
func ValidateFormats(formats, supported []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f, supported); err != nil {
			return err
		}
	}
	return nil
}
