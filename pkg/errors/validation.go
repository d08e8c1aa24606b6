package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds model names used as export file stems and store keys.
const maxNameLength = 200

// modelNameRegex matches names safe to use as a file stem.
var modelNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateModelName validates a model name before it is used to build an
// export path ("<name>.json") or a store key.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 200 characters
func ValidateModelName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "model name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "model name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "model name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "model name contains invalid characters: %q", pattern)
		}
	}

	if !modelNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid model name: %q", name)
	}

	return nil
}
