package service

import (
	"fmt"
	"regexp"
	"strings"

	"docuvault/internal/config"
	"docuvault/internal/domain"
)

// Allow alphanumeric, spaces, dots, hyphens and underscores in path segments
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\s._\-]*$`)

// NormalizePath canonicalizes a logical path: trims whitespace, strips
// leading and trailing slashes and validates every segment. The empty string
// denotes the root. All lookups are case-sensitive and exact.
func NormalizePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	if path == "" {
		return "", nil
	}

	if len(path) > config.MaxPathLength {
		return "", fmt.Errorf("%w: path exceeds maximum length of %d characters", domain.ErrValidation, config.MaxPathLength)
	}
	if strings.Contains(path, "//") {
		return "", fmt.Errorf("%w: path cannot contain consecutive slashes", domain.ErrValidation)
	}

	segments := strings.Split(path, "/")
	if len(segments) > config.MaxPathDepth {
		return "", fmt.Errorf("%w: path exceeds maximum depth of %d", domain.ErrValidation, config.MaxPathDepth)
	}
	for _, segment := range segments {
		if err := validateSegment(segment); err != nil {
			return "", err
		}
	}

	return strings.Join(segments, "/"), nil
}

// SplitPath separates a path into its parent path and final segment.
// The parent of a top-level path is the empty string (root).
func SplitPath(path string) (parent, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// JoinPath appends a segment to a parent path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func validateSegment(segment string) error {
	if strings.TrimSpace(segment) == "" {
		return fmt.Errorf("%w: path cannot contain empty segments", domain.ErrValidation)
	}
	if segment == "." || segment == ".." {
		return fmt.Errorf("%w: path cannot contain relative segments", domain.ErrValidation)
	}
	if len(segment) > config.MaxDirectoryNameLength {
		return fmt.Errorf("%w: path segment exceeds maximum length of %d characters", domain.ErrValidation, config.MaxDirectoryNameLength)
	}
	if !segmentRegex.MatchString(segment) {
		return fmt.Errorf("%w: path segment %q contains invalid characters", domain.ErrValidation, segment)
	}
	return nil
}
