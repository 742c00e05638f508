package markup

import (
	"regexp"
	"strings"
)

var (
	inlineLiteralRe = regexp.MustCompile("``([^`]+)``")
	interpretedRe   = regexp.MustCompile("(?::[\\w.+:-]+:)?`([^`]+)`(?:__?|:[\\w.+:-]+:)?")
	targetSuffixRe  = regexp.MustCompile(`^(.*?)\s*<([^<>]*)>$`)
	strongRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emphasisRe      = regexp.MustCompile(`\*([^*\s][^*]*)\*`)
	escapeRe        = regexp.MustCompile("\\\\([*`\\\\_|])")
)

// stripInline reduces reStructuredText inline markup to its text:
// ``literal``, :role:`text <target>`, `link <url>`_, **strong** and *emphasis*.
func stripInline(s string) string {
	if !strings.ContainsAny(s, "`*\\") {
		return strings.TrimSpace(s)
	}

	s = inlineLiteralRe.ReplaceAllString(s, "$1")
	s = interpretedRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := interpretedRe.FindStringSubmatch(m)[1]
		if t := targetSuffixRe.FindStringSubmatch(inner); t != nil {
			if strings.TrimSpace(t[1]) != "" {
				return t[1]
			}
			return t[2]
		}
		return strings.TrimLeft(inner, "~!")
	})
	s = strongRe.ReplaceAllString(s, "$1")
	s = emphasisRe.ReplaceAllString(s, "$1")
	s = escapeRe.ReplaceAllString(s, "$1")

	return strings.TrimSpace(s)
}
