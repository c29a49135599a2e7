package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Free-text fields go through a strict HTML strip before hitting storage.
var sanitizer = bluemonday.StrictPolicy()

func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitize(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
