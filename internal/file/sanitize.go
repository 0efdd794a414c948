package file

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxFilenameLength bounds the sanitized display name.
const MaxFilenameLength = 255

var (
	// allowedFilename is the full allow-list: letters, digits, dot,
	// underscore, hyphen, whitespace and parentheses.
	allowedFilename = regexp.MustCompile(`^[a-zA-Z0-9._\-\s()]+$`)

	// forbiddenChars catches control characters and shell/markup-special
	// characters before the allow-list check so they get a precise error.
	forbiddenChars = regexp.MustCompile("[<>\"'`\n\r\t\x00]")
)

// SanitizeFilename normalizes a client-supplied filename into a name safe for
// storage-key construction and display.
//
// Empty or whitespace-only input yields a timestamped placeholder instead of
// an error. Any path prefix (forward- or backslash-delimited) is stripped;
// what remains must pass the allow-list and contain no traversal token.
func SanitizeFilename(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return fmt.Sprintf("untitled_%s", time.Now().Format("20060102_150405")), nil
	}

	// Keep only the final path component, honoring both separator styles.
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}

	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: path traversal sequence", ErrInvalidFilename)
	}
	if forbiddenChars.MatchString(name) {
		return "", fmt.Errorf("%w: forbidden character", ErrInvalidFilename)
	}
	if !allowedFilename.MatchString(name) {
		return "", fmt.Errorf("%w: character outside allowed set", ErrInvalidFilename)
	}
	if len(name) > MaxFilenameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidFilename, MaxFilenameLength)
	}

	return name, nil
}
