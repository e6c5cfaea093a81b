package bundle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vidclass/internal/domain"
	dombundle "github.com/kailas-cloud/vidclass/internal/domain/bundle"
)

var jsonNull = []byte("null")

// Decode parses a serialized Parameter Bundle and validates it.
//
// Missing configuration fields take the trainer's defaults; the vocabulary,
// IDF weights (when use_idf is set), coefficients, intercepts and classes are
// required. Errors wrap the domain bundle sentinels.
func Decode(raw []byte) (*dombundle.Bundle, error) {
	var doc exportDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, decodeError(err)
	}
	if doc.TFIDF == nil {
		return nil, domain.NewBundleError(domain.ErrMalformedBundle, "tfidf_params", "missing")
	}
	if doc.SVM == nil {
		return nil, domain.NewBundleError(domain.ErrMalformedBundle, "svm_params", "missing")
	}

	params, err := toParams(doc)
	if err != nil {
		return nil, err
	}
	params.Fingerprint = Fingerprint(raw)

	b, err := dombundle.New(params)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Fingerprint returns the hex SHA-256 of a serialized bundle.
func Fingerprint(raw []byte) string {
	h := sha256.Sum256(raw)
	return hex.EncodeToString(h[:])
}

func toParams(doc exportDoc) (dombundle.Params, error) {
	t, s := doc.TFIDF, doc.SVM

	if t.Vocabulary == nil {
		return dombundle.Params{}, domain.NewBundleError(domain.ErrMalformedBundle, "tfidf_params.vocabulary_", "missing")
	}
	if s.Coef == nil {
		return dombundle.Params{}, domain.NewBundleError(domain.ErrMalformedBundle, "svm_params.coef_", "missing")
	}
	if s.Intercept == nil {
		return dombundle.Params{}, domain.NewBundleError(domain.ErrMalformedBundle, "svm_params.intercept_", "missing")
	}
	if s.Classes == nil {
		return dombundle.Params{}, domain.NewBundleError(domain.ErrMalformedBundle, "svm_params.classes_", "missing")
	}

	tok := dombundle.DefaultTokenization()
	if t.Lowercase != nil {
		tok.Lowercase = *t.Lowercase
	}
	if t.TokenPattern != nil {
		tok.TokenPattern = *t.TokenPattern
	}
	if t.Analyzer != nil {
		tok.Analyzer = *t.Analyzer
	}
	if t.NGramRange != nil {
		if len(t.NGramRange) != 2 {
			return dombundle.Params{}, domain.NewBundleError(domain.ErrMalformedBundle,
				"tfidf_params.ngram_range", "expected 2 integers, got %d", len(t.NGramRange))
		}
		tok.NGramMin, tok.NGramMax = t.NGramRange[0], t.NGramRange[1]
	}

	stopWords, err := decodeStopWords(t.StopWords)
	if err != nil {
		return dombundle.Params{}, err
	}
	tok.StopWords = stopWords

	accents, err := decodeOptionalString(t.StripAccents, "tfidf_params.strip_accents")
	if err != nil {
		return dombundle.Params{}, err
	}
	tok.StripAccents = dombundle.Accents(accents)

	norm, err := decodeNorm(t.Norm)
	if err != nil {
		return dombundle.Params{}, err
	}

	if !isNull(doc.Labels) {
		var labels labelList
		if err := json.Unmarshal(doc.Labels, &labels); err != nil {
			return dombundle.Params{}, domain.NewBundleError(domain.ErrMalformedBundle, "labels", "%v", err)
		}
	}

	return dombundle.Params{
		Vocabulary:   t.Vocabulary,
		IDF:          t.IDF,
		Tokenization: tok,
		Norm:         norm,
		UseIDF:       boolOr(t.UseIDF, true),
		SmoothIDF:    boolOr(t.SmoothIDF, true),
		SublinearTF:  boolOr(t.SublinearTF, false),
		Weights:      s.Coef,
		Biases:       s.Intercept,
		Classes:      s.Classes,
		Meta: dombundle.TrainerMeta{
			MaxDF:  t.MaxDF,
			MinDF:  t.MinDF,
			Labels: doc.Labels,
		},
	}, nil
}

// decodeStopWords accepts null or a list of strings. A string names a
// built-in list of the trainer, which is not shipped here.
func decodeStopWords(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return nil, domain.NewBundleError(domain.ErrUnsupportedConfiguration,
			"tfidf_params.stop_words", "built-in list %q is not available, export the words instead", name)
	}
	words := []string{}
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, domain.NewBundleError(domain.ErrMalformedBundle,
			"tfidf_params.stop_words", "expected null or a list of strings")
	}
	return words, nil
}

// decodeNorm maps null to "none"; an absent field means l2.
func decodeNorm(raw json.RawMessage) (dombundle.Normalization, error) {
	if raw == nil {
		return dombundle.NormL2, nil
	}
	if isNull(raw) {
		return dombundle.NormNone, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", domain.NewBundleError(domain.ErrMalformedBundle, "tfidf_params.norm", "expected a string or null")
	}
	return dombundle.Normalization(s), nil
}

func decodeOptionalString(raw json.RawMessage, field string) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", domain.NewBundleError(domain.ErrMalformedBundle, field, "expected a string or null")
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return raw == nil || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return domain.NewBundleError(domain.ErrMalformedBundle, typeErr.Field,
			"cannot use JSON %s as %v", typeErr.Value, typeErr.Type)
	}
	return domain.NewBundleError(domain.ErrMalformedBundle, "", "parse: %v", err)
}

// Encode serializes b in the trainer's export layout. Decode(Encode(b))
// yields a bundle with the same vocabulary, weights, biases, classes and
// configuration.
func Encode(b *dombundle.Bundle) ([]byte, error) {
	tok := b.Tokenization()
	useIDF, smoothIDF, sublinear := b.UseIDF(), b.SmoothIDF(), b.SublinearTF()
	lowercase := tok.Lowercase
	pattern, analyzer := tok.TokenPattern, tok.Analyzer

	stopWords := jsonNull
	if tok.StopWords != nil {
		data, err := json.Marshal(tok.StopWords)
		if err != nil {
			return nil, fmt.Errorf("marshal stop words: %w", err)
		}
		stopWords = data
	}

	norm := jsonNull
	if b.Norm() != dombundle.NormNone {
		norm = []byte(`"` + string(b.Norm()) + `"`)
	}

	var accents json.RawMessage
	if tok.StripAccents != dombundle.AccentsNone {
		accents = []byte(`"` + string(tok.StripAccents) + `"`)
	}

	meta := b.Meta()
	maxDF, minDF := meta.MaxDF, meta.MinDF
	if maxDF == nil {
		maxDF = jsonNull
	}
	if minDF == nil {
		minDF = jsonNull
	}

	coef := make([][]float64, b.NumRows())
	intercept := make([]float64, b.NumRows())
	for k := range coef {
		coef[k] = b.Row(k)
		intercept[k] = b.Bias(k)
	}

	labels := meta.Labels
	if labels == nil {
		data, err := json.Marshal(b.Classes())
		if err != nil {
			return nil, fmt.Errorf("marshal labels: %w", err)
		}
		labels = data
	}

	doc := exportDoc{
		TFIDF: &tfidfParams{
			Vocabulary:   b.Vocabulary(),
			IDF:          b.IDF(),
			StopWords:    stopWords,
			Lowercase:    &lowercase,
			MaxDF:        maxDF,
			MinDF:        minDF,
			NGramRange:   []int{tok.NGramMin, tok.NGramMax},
			TokenPattern: &pattern,
			Analyzer:     &analyzer,
			UseIDF:       &useIDF,
			SmoothIDF:    &smoothIDF,
			SublinearTF:  &sublinear,
			Norm:         norm,
			StripAccents: accents,
		},
		SVM: &svmParams{
			Coef:      coef,
			Intercept: intercept,
			Classes:   b.Classes(),
		},
		Labels: labels,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	return data, nil
}
