// Package bundle holds the in-memory Parameter Bundle: the trained
// vectorizer and linear classifier state consumed by the inference engine.
//
// A Bundle is validated once by New and is read-only afterwards, so a single
// instance can be shared by any number of concurrent classification calls.
package bundle

import (
	"encoding/json"
	"math"
	"regexp"
	"slices"

	"github.com/samber/lo"

	"github.com/kailas-cloud/vidclass/internal/domain"
)

// TrainerMeta carries exporter fields that inference ignores but that must
// survive a re-export unchanged.
type TrainerMeta struct {
	MaxDF json.RawMessage
	MinDF json.RawMessage
	// Labels is the informational label list as it was serialized.
	Labels json.RawMessage
}

// Params is the raw material of a Bundle.
//
// New takes ownership of every slice and map in Params: callers must not
// modify them after the call.
type Params struct {
	Vocabulary   map[string]int
	IDF          []float64
	Tokenization Tokenization
	Norm         Normalization
	UseIDF       bool
	SmoothIDF    bool
	SublinearTF  bool
	Weights      [][]float64
	Biases       []float64
	Classes      []string
	Meta         TrainerMeta
	// Fingerprint identifies the serialized form the params came from.
	Fingerprint string
}

// Bundle is an immutable, validated Parameter Bundle.
type Bundle struct {
	vocab     map[string]int
	terms     []string
	idf       []float64
	tok       Tokenization
	stopWords map[string]struct{}
	matcher   *regexp.Regexp
	group     int
	norm      Normalization
	useIDF    bool
	smoothIDF bool
	sublinear bool
	weights   [][]float64
	biases    []float64
	classes   []string
	meta      TrainerMeta

	fingerprint string
	validated   bool
}

// New validates p and builds a Bundle. The token pattern is compiled here,
// once, and owned by the bundle.
func New(p Params) (*Bundle, error) {
	b := &Bundle{
		vocab:       p.Vocabulary,
		idf:         p.IDF,
		tok:         p.Tokenization,
		norm:        p.Norm,
		useIDF:      p.UseIDF,
		smoothIDF:   p.SmoothIDF,
		sublinear:   p.SublinearTF,
		weights:     p.Weights,
		biases:      p.Biases,
		classes:     p.Classes,
		meta:        p.Meta,
		fingerprint: p.Fingerprint,
	}

	if err := b.validateClasses(); err != nil {
		return nil, err
	}
	if err := b.validateTokenization(); err != nil {
		return nil, err
	}
	if !b.norm.IsValid() {
		return nil, domain.NewBundleError(domain.ErrUnsupportedConfiguration,
			"norm", "unknown normalization %q", string(b.norm))
	}
	if err := b.validateVocabulary(); err != nil {
		return nil, err
	}
	if err := b.validateIDF(); err != nil {
		return nil, err
	}
	if err := b.validateModel(); err != nil {
		return nil, err
	}

	b.validated = true
	return b, nil
}

func (b *Bundle) validateClasses() error {
	if len(b.classes) == 0 {
		return domain.NewBundleError(domain.ErrEmptyModel, "classes", "no classes")
	}
	if dups := lo.FindDuplicates(b.classes); len(dups) > 0 {
		return domain.NewBundleError(domain.ErrMalformedBundle, "classes", "duplicate labels %q", dups)
	}
	return nil
}

func (b *Bundle) validateTokenization() error {
	t := b.tok
	if t.Analyzer != AnalyzerWord {
		return domain.NewBundleError(domain.ErrUnsupportedConfiguration,
			"analyzer", "%q is not supported, only %q", t.Analyzer, AnalyzerWord)
	}
	if !t.StripAccents.IsValid() {
		return domain.NewBundleError(domain.ErrUnsupportedConfiguration,
			"strip_accents", "unknown mode %q", string(t.StripAccents))
	}
	if t.NGramMin < 1 || t.NGramMin > t.NGramMax {
		return domain.NewBundleError(domain.ErrInvalidConfiguration,
			"ngram_range", "invalid range (%d, %d)", t.NGramMin, t.NGramMax)
	}

	re, group, err := compilePattern(t.TokenPattern)
	if err != nil {
		return err
	}
	b.matcher = re
	b.group = group

	if t.StopWords != nil {
		b.stopWords = make(map[string]struct{}, len(t.StopWords))
		for _, w := range t.StopWords {
			b.stopWords[w] = struct{}{}
		}
	}
	return nil
}

// validateVocabulary checks that indices are a permutation of 0..n-1 and
// builds the reverse index.
func (b *Bundle) validateVocabulary() error {
	if b.vocab == nil {
		return domain.NewBundleError(domain.ErrMalformedBundle, "vocabulary", "missing")
	}
	n := len(b.vocab)
	terms := make([]string, n)
	seen := make([]bool, n)
	for term, idx := range b.vocab {
		if idx < 0 || idx >= n {
			return domain.NewBundleError(domain.ErrMalformedBundle,
				"vocabulary", "index %d of %q outside [0, %d)", idx, term, n)
		}
		if seen[idx] {
			return domain.NewBundleError(domain.ErrMalformedBundle,
				"vocabulary", "index %d assigned to %q and %q", idx, terms[idx], term)
		}
		seen[idx] = true
		terms[idx] = term
	}
	b.terms = terms
	return nil
}

func (b *Bundle) validateIDF() error {
	if !b.useIDF && b.idf == nil {
		return nil
	}
	if b.useIDF && b.idf == nil {
		return domain.NewBundleError(domain.ErrMalformedBundle, "idf", "required when use_idf is set")
	}
	if len(b.idf) != len(b.terms) {
		return domain.NewBundleError(domain.ErrMalformedBundle,
			"idf", "length %d, vocabulary size %d", len(b.idf), len(b.terms))
	}
	if !b.useIDF {
		return nil
	}
	for i, w := range b.idf {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return domain.NewBundleError(domain.ErrMalformedBundle,
				"idf", "weight %d is %v, want finite and non-negative", i, w)
		}
	}
	return nil
}

func (b *Bundle) validateModel() error {
	if !b.Binary() && len(b.weights) != len(b.classes) {
		return domain.NewBundleError(domain.ErrMalformedBundle,
			"weights", "%d rows for %d classes", len(b.weights), len(b.classes))
	}
	if len(b.biases) != len(b.weights) {
		return domain.NewBundleError(domain.ErrMalformedBundle,
			"biases", "%d biases for %d weight rows", len(b.biases), len(b.weights))
	}
	if err := b.checkDimensions(); err != nil {
		return err
	}
	for k, row := range b.weights {
		for i, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return domain.NewBundleError(domain.ErrMalformedBundle,
					"weights", "row %d entry %d is %v", k, i, w)
			}
		}
	}
	for k, v := range b.biases {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NewBundleError(domain.ErrMalformedBundle, "biases", "entry %d is %v", k, v)
		}
	}
	return nil
}

func (b *Bundle) checkDimensions() error {
	for k, row := range b.weights {
		if len(row) != len(b.vocab) {
			return domain.NewBundleError(domain.ErrDimensionMismatch,
				"weights", "row %d has %d entries, vocabulary size %d", k, len(row), len(b.vocab))
		}
	}
	return nil
}

// Validated reports whether the bundle was built by New.
func (b *Bundle) Validated() bool { return b.validated }

// Check re-runs the structural checks the linear classifier depends on.
// It only matters for bundles that bypassed New, such as the zero value.
func (b *Bundle) Check() error {
	if len(b.classes) == 0 {
		return domain.NewBundleError(domain.ErrEmptyModel, "classes", "no classes")
	}
	rowsOK := len(b.weights) == len(b.classes) || (len(b.weights) == 1 && len(b.classes) == 2)
	if !rowsOK || len(b.biases) != len(b.weights) {
		return domain.NewBundleError(domain.ErrDimensionMismatch,
			"weights", "%d rows and %d biases for %d classes", len(b.weights), len(b.biases), len(b.classes))
	}
	return b.checkDimensions()
}

// Lookup returns the vocabulary index of term.
func (b *Bundle) Lookup(term string) (int, bool) {
	idx, ok := b.vocab[term]
	return idx, ok
}

// Term returns the vocabulary entry at index i.
func (b *Bundle) Term(i int) string { return b.terms[i] }

// VocabularySize returns the number of features.
func (b *Bundle) VocabularySize() int { return len(b.vocab) }

// Vocabulary returns a copy of the term to index mapping.
func (b *Bundle) Vocabulary() map[string]int {
	out := make(map[string]int, len(b.vocab))
	for k, v := range b.vocab {
		out[k] = v
	}
	return out
}

// IDF returns the inverse document frequency weights. The slice is shared and must not be modified.
func (b *Bundle) IDF() []float64 { return b.idf }

// Tokenization returns the analysis settings.
func (b *Bundle) Tokenization() Tokenization {
	t := b.tok
	t.StopWords = slices.Clone(t.StopWords)
	return t
}

// Lowercase reports whether text is case folded before tokenization.
func (b *Bundle) Lowercase() bool { return b.tok.Lowercase }

// StripAccents returns the accent stripping mode.
func (b *Bundle) StripAccents() Accents { return b.tok.StripAccents }

// NGramRange returns the inclusive n-gram length bounds.
func (b *Bundle) NGramRange() (minN, maxN int) { return b.tok.NGramMin, b.tok.NGramMax }

// IsStopWord reports whether token is filtered before n-gram expansion.
func (b *Bundle) IsStopWord(token string) bool {
	if b.stopWords == nil {
		return false
	}
	_, ok := b.stopWords[token]
	return ok
}

// Matcher returns the compiled token pattern and the submatch group holding the token.
func (b *Bundle) Matcher() (*regexp.Regexp, int) { return b.matcher, b.group }

// Norm returns the configured normalization.
func (b *Bundle) Norm() Normalization { return b.norm }

// UseIDF reports whether term frequencies are multiplied by IDF weights.
func (b *Bundle) UseIDF() bool { return b.useIDF }

// SmoothIDF reports the trainer's smoothing flag. The exported weights
// already include smoothing; inference never applies it again.
func (b *Bundle) SmoothIDF() bool { return b.smoothIDF }

// SublinearTF reports whether raw counts are replaced by 1 + ln(count).
func (b *Bundle) SublinearTF() bool { return b.sublinear }

// Binary reports whether the model uses the single-row two-class layout.
func (b *Bundle) Binary() bool { return len(b.weights) == 1 && len(b.classes) == 2 }

// NumClasses returns the number of classes.
func (b *Bundle) NumClasses() int { return len(b.classes) }

// Classes returns a copy of the class labels in decision order.
func (b *Bundle) Classes() []string { return slices.Clone(b.classes) }

// Class returns the label at index k.
func (b *Bundle) Class(k int) string { return b.classes[k] }

// NumRows returns the number of weight rows.
func (b *Bundle) NumRows() int { return len(b.weights) }

// Row returns weight row k. The slice is shared and must not be modified.
func (b *Bundle) Row(k int) []float64 { return b.weights[k] }

// Bias returns the intercept of weight row k.
func (b *Bundle) Bias(k int) float64 { return b.biases[k] }

// Meta returns the trainer metadata carried for re-export.
func (b *Bundle) Meta() TrainerMeta {
	m := b.meta
	m.Labels = slices.Clone(m.Labels)
	return m
}

// Fingerprint identifies the serialized form the bundle was loaded from.
// Empty for bundles built in memory.
func (b *Bundle) Fingerprint() string { return b.fingerprint }
