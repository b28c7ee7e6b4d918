package middleware

import (
	"fmt"
	"regexp"
	"strings"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// Input validation and sanitization utilities

var analysisIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateAnalysisID checks the path id before it reaches a repository.
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if !analysisIDPattern.MatchString(id) {
		return fmt.Errorf("invalid analysis ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateCategory accepts a category case-insensitively.
func ValidateCategory(raw string) (domain.Category, error) {
	c := domain.Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid category: %s (allowed: logical, physical, electronic)", raw)
	}
	return c, nil
}

const maxQueryLen = 256

// ValidateQuery caps the search text length
func ValidateQuery(q string) error {
	if len(q) > maxQueryLen {
		return fmt.Errorf("search query too long (max %d bytes)", maxQueryLen)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return result.String()
}
