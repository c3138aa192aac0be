package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateToken validates an asset token for safety and correctness.
// It rejects tokens that could be used for path traversal or injection
// attacks when tokens end up in URLs or cache file names.
//
// The validation rules are intentionally conservative:
//   - No empty tokens
//   - No control characters
//   - No path traversal sequences (.., //)
//   - No null bytes or backslashes
//   - Maximum length of 512 characters
func ValidateToken(token string) error {
	if token == "" {
		return New(ErrCodeInvalidToken, "asset token cannot be empty")
	}

	if len(token) > 512 {
		return New(ErrCodeInvalidToken, "asset token too long (max 512 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range token {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidToken, "asset token contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(token, pattern) {
			return New(ErrCodeInvalidToken, "asset token contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// viewIDRegex matches valid view identifiers: the stable keys that view
// state is persisted under and API routes are built from.
var viewIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateViewID validates a stable view identifier.
// View IDs appear in URLs, state store keys, and snapshot file names, so
// they must be simple single-segment names.
func ValidateViewID(viewID string) error {
	if viewID == "" {
		return New(ErrCodeInvalidViewID, "view ID cannot be empty")
	}

	if len(viewID) > 256 {
		return New(ErrCodeInvalidViewID, "view ID too long (max 256 characters)")
	}

	if !viewIDRegex.MatchString(viewID) {
		return New(ErrCodeInvalidViewID, "invalid view ID: %q", viewID)
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
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
