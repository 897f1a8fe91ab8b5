package sqlgate

import (
	"regexp"
	"strings"
)

// Sentinels the generator is told to use.
const (
	OpenMarker  = "<SQL>"
	CloseMarker = "</SQL>"
	NonSelect   = "NON_SELECT"
)

var (
	fenceRe     = regexp.MustCompile("(?i)```(?:sql|postgresql|postgres|sqlite|duckdb)?")
	openRe      = regexp.MustCompile(`(?i)<sql>`)
	closeRe     = regexp.MustCompile(`(?i)</sql>`)
	forbiddenRe = regexp.MustCompile(`(?i)\b(insert|update|delete|create|drop|alter|truncate|grant|revoke)\b`)
	selectRe    = regexp.MustCompile(`(?i)\bselect\b`)
	leadingRe   = regexp.MustCompile(`(?i)^\s*select\b`)
)

// stripFences removes markdown code fence decoration.
func stripFences(s string) string {
	return fenceRe.ReplaceAllString(s, "")
}

// between returns the text bounded by the SQL markers. A lone open marker
// bounds from the left, a lone close marker from the right.
func between(s string) string {
	if loc := openRe.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	if loc := closeRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}

func declined(s string) bool {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	return strings.EqualFold(s, NonSelect)
}

// forbiddenKeyword returns the first data-modification or definition keyword in s.
func forbiddenKeyword(s string) string {
	return strings.ToUpper(forbiddenRe.FindString(s))
}

// firstStatement returns the text from the first SELECT keyword up to the first
// semicolon outside a quoted string or identifier, without the semicolon.
func firstStatement(s string) (string, bool) {
	loc := selectRe.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	s = s[loc[0]:]

	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0 // a doubled quote closes and reopens, which is equivalent
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ';':
			return strings.TrimSpace(s[:i]), true
		}
	}
	return strings.TrimSpace(s), true
}

func startsWithSelect(s string) bool {
	return leadingRe.MatchString(s)
}
