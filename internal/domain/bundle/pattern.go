package bundle

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vidclass/internal/domain"
)

const (
	wordClass    = `\p{L}\p{N}_`
	digitClass   = `\p{Nd}`
	nonDigitText = `\P{Nd}`
	// spaceClass is the Unicode whitespace set of the trainer's regex
	// dialect: ASCII controls \t-\r, the separators \x1c-\x1f, NEL and
	// every Z category code point.
	spaceClass = `\x{9}-\x{d}\x{1c}-\x{1f}\x{85}\p{Z}`
)

// wordAtomRe matches a \w atom with an optional greedy quantifier at the
// end of a pattern.
var wordAtomRe = regexp.MustCompile(`\\w(\+|\*|\?|\{(\d+)(,(\d*))?\})?$`)

// TranslatePattern rewrites a trainer token pattern into RE2 syntax.
//
// The trainer's regex dialect treats \w, \d and \s as Unicode classes, while
// RE2 limits them to ASCII, so they are expanded to explicit Unicode classes.
// The (?u) flag is dropped.
//
// RE2 only knows ASCII word boundaries. A \b is accepted at the start or the
// end of the pattern when leftmost-first matching yields the same tokens
// without it: the pattern (or, for a trailing \b, its tail) is a run of \w
// atoms ending in an unbounded greedy one, as in the default (?u)\b\w\w+\b.
// Any other \b or \B, and \W or \S inside a bracket expression, cannot be
// expressed and fail with domain.ErrUnsupportedConfiguration.
func TranslatePattern(pattern string) (string, error) {
	pattern = strings.ReplaceAll(pattern, "(?u)", "")

	body, err := stripBoundaries(pattern)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(body) + 32)
	inClass := false

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			next := body[i]
			switch {
			case next == 'w' && inClass:
				b.WriteString(wordClass)
			case next == 'w':
				b.WriteString("[" + wordClass + "]")
			case next == 'W' && !inClass:
				b.WriteString("[^" + wordClass + "]")
			case next == 's' && inClass:
				b.WriteString(spaceClass)
			case next == 's':
				b.WriteString("[" + spaceClass + "]")
			case next == 'S' && !inClass:
				b.WriteString("[^" + spaceClass + "]")
			case (next == 'W' || next == 'S') && inClass:
				return "", unsupportedPattern(pattern, `\%c inside a bracket expression`, next)
			case next == 'd':
				b.WriteString(digitClass)
			case next == 'D':
				b.WriteString(nonDigitText)
			case next == 'b' && inClass:
				// backspace
				b.WriteString(`\x08`)
			case next == 'b' || next == 'B':
				return "", unsupportedPattern(pattern, `\%c is only supported around a run of \w atoms`, next)
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			continue
		}

		switch {
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			// A leading ^ and a leading ] are part of the class, not its end.
			if i+1 < len(body) && body[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
			if i+1 < len(body) && body[i+1] == ']' {
				i++
				b.WriteString(`\]`)
			}
			continue
		case c == ']' && inClass:
			inClass = false
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// stripBoundaries removes a leading and a trailing \b when they are
// redundant under leftmost-first matching.
func stripBoundaries(pattern string) (string, error) {
	body := pattern
	leading := strings.HasPrefix(body, `\b`)
	if leading {
		body = body[2:]
	}
	trailing := strings.HasSuffix(body, `\b`) && isEscape(body, len(body)-2)
	if trailing {
		body = body[:len(body)-2]
	}
	if !leading && !trailing {
		return body, nil
	}

	rest, ok := wordRunTail(body)
	if !ok || (leading && rest != "") {
		return "", unsupportedPattern(pattern,
			`\b is only supported around a run of \w atoms ending in +, * or {n,}`)
	}
	return body, nil
}

// wordRunTail strips the trailing run of \w atoms from s and returns what
// precedes it. ok is false unless the run matches at least one character
// and its last atom is unbounded.
func wordRunTail(s string) (rest string, ok bool) {
	minLen, atoms, unbounded := 0, 0, false
	for {
		m := wordAtomRe.FindStringSubmatchIndex(s)
		if m == nil || !isEscape(s, m[0]) {
			break
		}
		quant := ""
		if m[2] >= 0 {
			quant = s[m[2]:m[3]]
		}
		lo, open := atomBounds(quant, s, m)
		if atoms == 0 {
			unbounded = open
		}
		minLen += lo
		atoms++
		s = s[:m[0]]
	}
	return s, atoms > 0 && unbounded && minLen > 0
}

// atomBounds returns the minimum repetitions of a quantified atom and whether
// it is unbounded.
func atomBounds(quant, s string, m []int) (int, bool) {
	switch quant {
	case "":
		return 1, false
	case "+":
		return 1, true
	case "*":
		return 0, true
	case "?":
		return 0, false
	}
	lo, _ := strconv.Atoi(s[m[4]:m[5]])
	hasComma := m[6] >= 0
	hasMax := hasComma && m[9] > m[8]
	return lo, hasComma && !hasMax
}

// isEscape reports whether the backslash at s[i] starts an escape, i.e. is
// not itself escaped.
func isEscape(s string, i int) bool {
	if i < 0 || i >= len(s) || s[i] != '\\' {
		return false
	}
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 0
}

func unsupportedPattern(pattern, format string, args ...any) error {
	return domain.NewBundleError(domain.ErrUnsupportedConfiguration,
		"token_pattern", "%q: "+format, append([]any{pattern}, args...)...)
}

// compilePattern translates and compiles a token pattern. The returned group
// is the submatch index holding the token: 0 for the whole match, 1 when the
// pattern has a single capturing group.
func compilePattern(pattern string) (*regexp.Regexp, int, error) {
	translated, err := TranslatePattern(pattern)
	if err != nil {
		return nil, 0, err
	}
	re, err := regexp.Compile(translated)
	if err != nil {
		return nil, 0, domain.NewBundleError(domain.ErrInvalidConfiguration,
			"token_pattern", "compile %q: %v", pattern, err)
	}
	switch n := re.NumSubexp(); n {
	case 0:
		return re, 0, nil
	case 1:
		return re, 1, nil
	default:
		return nil, 0, domain.NewBundleError(domain.ErrInvalidConfiguration,
			"token_pattern", "%q has %d capturing groups, at most one is allowed", pattern, n)
	}
}
