package utils

import "github.com/microcosm-cc/bluemonday"

// Plate names, descriptions, reviews and comments are plain text; the strict
// policy strips all markup instead of allowing a user-generated-content subset.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML from user-submitted text.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
