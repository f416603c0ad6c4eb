package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	t.Run("html keeps formatting and drops scripts", func(t *testing.T) {
		out := s.HTML(`<p onclick="x()">Hi <strong>there</strong></p><script>steal()</script>`)
		assert.Equal(t, "<p>Hi <strong>there</strong></p>", out)
	})

	t.Run("plain text strips markup and unescapes", func(t *testing.T) {
		assert.Equal(t, "Tom & Jerry", s.PlainText("  <em>Tom</em> &amp; Jerry "))
		assert.Equal(t, "", s.PlainText("<script>x</script>"))
	})

	t.Run("excerpt", func(t *testing.T) {
		assert.Equal(t, "short text", s.Excerpt("<p>short\n\n text</p>", 200))
		assert.Equal(t, "héllo...", s.Excerpt("héllo wörld", 5))
		long := strings.Repeat("abcd", 100)
		assert.Equal(t, 200+len("..."), len([]rune(s.Excerpt(long, 200))))
	})
}
