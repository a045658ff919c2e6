package errors

import (
	"strings"
	"unicode"
)

// maxProjectIDLength bounds project identifiers before they become file names.
const maxProjectIDLength = 256

// ValidateProjectID validates a project identifier for safety.
// Project ids end up as output file names, so the rules reject anything that
// could escape the output directory:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateProjectID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "project id cannot be empty")
	}

	if len(id) > maxProjectIDLength {
		return New(ErrCodeInvalidInput, "project id too long (max %d characters)", maxProjectIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "project id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "project id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
