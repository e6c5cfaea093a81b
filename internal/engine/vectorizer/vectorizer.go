// Package vectorizer turns raw text into TF-IDF feature vectors over the
// fixed vocabulary of a bundle, reproducing the trainer's arithmetic.
package vectorizer

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/vidclass/internal/domain"
	"github.com/kailas-cloud/vidclass/internal/domain/bundle"
	"github.com/kailas-cloud/vidclass/internal/domain/features"
)

// Vectorize maps text to a feature vector over the bundle vocabulary.
//
// Out-of-vocabulary terms are dropped. A document with no known terms yields
// the empty vector, which is returned without normalization.
func Vectorize(text string, b *bundle.Bundle) (features.Vector, error) {
	terms, err := Analyze(text, b)
	if err != nil {
		return features.Vector{}, err
	}
	return weigh(terms, b), nil
}

// Analyze returns the n-gram sequence of text before counting:
// case folding, accent stripping, tokenization, stop-word filtering and
// n-gram expansion.
func Analyze(text string, b *bundle.Bundle) ([]string, error) {
	if !b.Validated() {
		return nil, domain.NewBundleError(domain.ErrInvalidConfiguration,
			"token_pattern", "bundle was not validated")
	}

	doc := preprocess(text, b.Lowercase(), b.StripAccents())
	re, group := b.Matcher()
	tokens := tokenize(doc, re, group)

	kept := tokens[:0]
	for _, t := range tokens {
		if !b.IsStopWord(t) {
			kept = append(kept, t)
		}
	}

	minN, maxN := b.NGramRange()
	return ngrams(kept, minN, maxN), nil
}

func preprocess(text string, lower bool, accents bundle.Accents) string {
	if lower {
		// Casers keep state between calls, so each call gets its own.
		text = cases.Lower(language.Und).String(text)
	}
	switch accents {
	case bundle.AccentsUnicode:
		text = stripAccentsUnicode(text)
	case bundle.AccentsASCII:
		text = stripAccentsASCII(text)
	}
	return text
}

func tokenize(doc string, re *regexp.Regexp, group int) []string {
	if group == 0 {
		return re.FindAllString(doc, -1)
	}
	matches := re.FindAllStringSubmatch(doc, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[group])
	}
	return tokens
}

// ngrams emits every contiguous run of n tokens for n in [minN, maxN],
// grouped by n and then by position.
func ngrams(tokens []string, minN, maxN int) []string {
	if maxN == 1 {
		return tokens
	}

	maxN = min(maxN, len(tokens))
	size := 0
	for n := minN; n <= maxN; n++ {
		size += len(tokens) - n + 1
	}
	out := make([]string, 0, size)

	for n := minN; n <= maxN; n++ {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// weigh counts in-vocabulary terms, applies tf variants, IDF and the norm.
func weigh(terms []string, b *bundle.Bundle) features.Vector {
	counts := make(map[int]int, len(terms))
	for _, t := range terms {
		if idx, ok := b.Lookup(t); ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return features.Vector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	slices.Sort(indices)

	idf := b.IDF()
	useIDF := b.UseIDF()
	sublinear := b.SublinearTF()
	values := make([]float64, len(indices))
	for i, idx := range indices {
		tf := float64(counts[idx])
		if sublinear {
			tf = 1 + math.Log(tf)
		}
		if useIDF {
			tf *= idf[idx]
		}
		values[i] = tf
	}

	v := features.Vector{Indices: indices, Values: values}
	normalize(v, b.Norm())
	return v
}

func normalize(v features.Vector, norm bundle.Normalization) {
	if v.IsZero() {
		return
	}
	switch norm {
	case bundle.NormL2:
		v.Scale(v.L2Norm())
	case bundle.NormL1:
		v.Scale(v.L1Norm())
	case bundle.NormNone:
	}
}
