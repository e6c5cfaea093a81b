package vectorizer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// stripAccentsUnicode decomposes s (NFKD) and drops every code point with a
// non-zero canonical combining class.
func stripAccentsUnicode(s string) string {
	if isASCII(s) {
		return s
	}
	d := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(d))
	for i := 0; i < len(d); {
		p := norm.NFKD.PropertiesString(d[i:])
		size := p.Size()
		if size == 0 {
			_, size = utf8.DecodeRuneInString(d[i:])
		}
		if p.CCC() == 0 {
			b.WriteString(d[i : i+size])
		}
		i += size
	}
	return b.String()
}

// stripAccentsASCII decomposes s (NFKD) and drops every non-ASCII code point.
func stripAccentsASCII(s string) string {
	if isASCII(s) {
		return s
	}
	d := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(d))
	for i := 0; i < len(d); i++ {
		if d[i] < utf8.RuneSelf {
			b.WriteByte(d[i])
		}
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
