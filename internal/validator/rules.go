package validator

import (
	"regexp"
	"unicode/utf8"
)

const (
	slugRegex       = "^[a-z0-9]+(?:-[a-z0-9]+)*$"
	langRegex       = "^[a-z]{2,3}(?:-[a-z0-9]{2,5})?$"
	permissionRegex = "^[a-z]+(?::[a-z_]+)+$"
)

var (
	// SlugRgx matches URL-safe category slugs: lowercase alphanumerics
	// separated by single hyphens.
	SlugRgx = regexp.MustCompile(slugRegex)

	// LangRgx matches lowercase language codes like "en" or "pt-br".
	LangRgx = regexp.MustCompile(langRegex)

	// PermissionRgx matches permission names like "categories:create".
	// Permissions travel space-delimited inside a token scope, so the
	// shape rules out whitespace and empty segments.
	PermissionRgx = regexp.MustCompile(permissionRegex)
)

// MaxRunes returns true if a string is less than or equal to a maximum number of n
func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

// NoDuplicates returns true if all the values in a slice are unique.
func NoDuplicates[T comparable](values []T) bool {
	uniqueValues := make(map[T]bool)

	for _, value := range values {
		uniqueValues[value] = true
	}

	return len(values) == len(uniqueValues)
}

// IsSlug returns true if a string is a URL-safe slug.
func IsSlug(value string) bool {
	return SlugRgx.MatchString(value)
}

// IsLanguageCode returns true if a string looks like a lowercase
// language code.
func IsLanguageCode(value string) bool {
	return LangRgx.MatchString(value)
}

// IsPermission returns true if a string is a well-formed permission name.
func IsPermission(value string) bool {
	return PermissionRgx.MatchString(value)
}
