package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user supplied text. Post bodies keep safe formatting
// markup; every other field is reduced to plain text.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		rich:  bluemonday.UGCPolicy(),
		plain: bluemonday.StrictPolicy(),
	}
}

// HTML removes scripts, handlers and other unsafe markup from s.
func (s *Sanitizer) HTML(input string) string {
	return s.rich.Sanitize(input)
}

// PlainText strips all markup and returns the remaining text unescaped.
func (s *Sanitizer) PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(input)))
}

// Excerpt returns the first limit characters of the text in content,
// followed by "..." when anything was cut.
func (s *Sanitizer) Excerpt(content string, limit int) string {
	text := strings.Join(strings.Fields(s.PlainText(content)), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
