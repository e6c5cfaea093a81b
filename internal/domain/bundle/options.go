package bundle

// Normalization is the vector norm applied after weighting.
type Normalization string

// Normalization constants.
const (
	NormL2   Normalization = "l2"
	NormL1   Normalization = "l1"
	NormNone Normalization = "none"
)

// IsValid checks if the normalization is one of the supported values.
func (n Normalization) IsValid() bool {
	return n == NormL2 || n == NormL1 || n == NormNone
}

// Accents selects the accent stripping applied after case folding.
type Accents string

// Accent stripping modes.
const (
	// AccentsNone leaves the text untouched.
	AccentsNone Accents = ""
	// AccentsASCII decomposes (NFKD) and drops every non-ASCII code point.
	AccentsASCII Accents = "ascii"
	// AccentsUnicode decomposes (NFKD) and drops combining marks.
	AccentsUnicode Accents = "unicode"
)

// IsValid checks if the accent mode is one of the supported values.
func (a Accents) IsValid() bool {
	return a == AccentsNone || a == AccentsASCII || a == AccentsUnicode
}

// AnalyzerWord is the only supported analyzer: word n-grams.
const AnalyzerWord = "word"

// DefaultTokenPattern matches runs of two or more word characters.
const DefaultTokenPattern = `(?u)\b\w\w+\b`

// Tokenization holds the text analysis settings the trainer used.
type Tokenization struct {
	Lowercase    bool
	NGramMin     int
	NGramMax     int
	StopWords    []string // nil disables filtering
	Analyzer     string
	TokenPattern string
	StripAccents Accents
}

// DefaultTokenization returns the trainer's default analysis settings.
func DefaultTokenization() Tokenization {
	return Tokenization{
		Lowercase:    true,
		NGramMin:     1,
		NGramMax:     1,
		Analyzer:     AnalyzerWord,
		TokenPattern: DefaultTokenPattern,
	}
}
