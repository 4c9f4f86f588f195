package limits

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputLength bounds raw expressions, counted in characters after trimming.
const MaxInputLength = 500

// Marker replaces every denylisted token. It contains no word characters, so it
// can never itself be matched.
const Marker = "[?]"

// denylist matches dunder names and words that only make sense as an attempt to
// reach the host environment. It is a denylist, not a grammar: the parser is the
// real gate, and this only turns obvious injection attempts into parse failures.
var denylist = regexp.MustCompile(`(?i)__\w+__|\b(?:import|exec|eval|open|file|compile|globals|locals|getattr|setattr|delattr|vars|dir|input|os|sys|subprocess|system|popen|process|lambda|builtins|breakpoint)\b`)

// Sanitize trims raw, enforces MaxInputLength and replaces denylisted tokens with
// Marker. Sanitize is idempotent.
func Sanitize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(s); n > MaxInputLength {
		return "", fmt.Errorf("%w: %d characters, limit is %d", ErrInputTooLong, n, MaxInputLength)
	}
	// Replacing a dunder can expose a neighbouring word at a new boundary, so
	// repeat until nothing matches.
	for {
		next := denylist.ReplaceAllString(s, Marker)
		if next == s {
			break
		}
		s = next
	}
	if n := utf8.RuneCountInString(s); n > MaxInputLength {
		return "", fmt.Errorf("%w: %d characters after sanitization, limit is %d", ErrInputTooLong, n, MaxInputLength)
	}
	return s, nil
}
