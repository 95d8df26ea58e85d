package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// repoNameRegex matches a single GitHub owner or repository segment.
var repoNameRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9_])?$`)

// ValidateRepoRef validates an "owner/name" repository reference.
// It rejects references that are empty, contain path traversal sequences,
// or do not consist of exactly two valid segments.
func ValidateRepoRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidRepo, "repository reference cannot be empty")
	}

	if len(ref) > 256 {
		return New(ErrCodeInvalidRepo, "repository reference too long (max 256 characters)")
	}

	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidRepo, "repository reference contains invalid characters: %q", ref)
		}
	}

	if strings.Contains(ref, "..") || strings.Contains(ref, "\\") {
		return New(ErrCodeInvalidRepo, "repository reference contains invalid sequences: %q", ref)
	}

	parts := strings.Split(ref, "/")
	if len(parts) != 2 {
		return New(ErrCodeInvalidRepo, "repository reference must be owner/name: %q", ref)
	}
	for _, part := range parts {
		if !repoNameRegex.MatchString(part) {
			return New(ErrCodeInvalidRepo, "invalid repository segment: %q", part)
		}
	}

	return nil
}

// ValidateSubdir validates an optional subdirectory path within a repository.
// It prevents path traversal and absolute paths.
func ValidateSubdir(path string) error {
	if path == "" {
		return nil
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidRepo, "subdir too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidRepo, "subdir contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidRepo, "subdir must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidRepo, "subdir cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidRepo, "subdir cannot contain backslashes")
	}

	return nil
}
