package bundle

import (
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/vidclass/internal/domain"
	dombundle "github.com/kailas-cloud/vidclass/internal/domain/bundle"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/basic.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

// mutate decodes the fixture into a generic map, applies fn and re-encodes it.
func mutate(t *testing.T, fn func(doc map[string]any)) []byte {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(readFixture(t), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	fn(doc)
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func tfidf(doc map[string]any) map[string]any { return doc["tfidf_params"].(map[string]any) }
func svm(doc map[string]any) map[string]any   { return doc["svm_params"].(map[string]any) }

func TestDecode_Fixture(t *testing.T) {
	raw := readFixture(t)
	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.VocabularySize() != 2 {
		t.Errorf("vocabulary size = %d, want 2", b.VocabularySize())
	}
	if got := b.Classes(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("classes = %v", got)
	}
	if b.Norm() != dombundle.NormL2 {
		t.Errorf("norm = %q, want l2", b.Norm())
	}
	if !b.UseIDF() || !b.SmoothIDF() || b.SublinearTF() {
		t.Errorf("flags = use_idf %v smooth %v sublinear %v", b.UseIDF(), b.SmoothIDF(), b.SublinearTF())
	}
	if b.Fingerprint() != Fingerprint(raw) || len(b.Fingerprint()) != 64 {
		t.Errorf("fingerprint = %q", b.Fingerprint())
	}
}

func TestDecode_Defaults(t *testing.T) {
	raw := mutate(t, func(doc map[string]any) {
		p := tfidf(doc)
		for _, k := range []string{"stop_words", "lowercase", "max_df", "min_df", "ngram_range",
			"token_pattern", "analyzer", "use_idf", "smooth_idf", "sublinear_tf", "norm"} {
			delete(p, k)
		}
		delete(doc, "labels")
	})

	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Lowercase() {
		t.Error("lowercase should default to true")
	}
	if b.Norm() != dombundle.NormL2 {
		t.Errorf("absent norm = %q, want l2", b.Norm())
	}
	if minN, maxN := b.NGramRange(); minN != 1 || maxN != 1 {
		t.Errorf("ngram range = (%d, %d), want (1, 1)", minN, maxN)
	}
	if b.Tokenization().TokenPattern != dombundle.DefaultTokenPattern {
		t.Errorf("token pattern = %q", b.Tokenization().TokenPattern)
	}
	if !b.UseIDF() {
		t.Error("use_idf should default to true")
	}
}

func TestDecode_NullNormMeansNone(t *testing.T) {
	raw := mutate(t, func(doc map[string]any) { tfidf(doc)["norm"] = nil })
	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Norm() != dombundle.NormNone {
		t.Errorf("norm = %q, want none", b.Norm())
	}
}

func TestDecode_NumericClasses(t *testing.T) {
	raw := mutate(t, func(doc map[string]any) { svm(doc)["classes_"] = []any{0, 1} })
	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.Classes(); !reflect.DeepEqual(got, []string{"0", "1"}) {
		t.Errorf("classes = %v, want [0 1]", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		want  error
		field string
	}{
		{
			name: "not json",
			raw:  []byte("{"),
			want: domain.ErrMalformedBundle,
		},
		{
			name:  "missing tfidf_params",
			raw:   mutate(t, func(doc map[string]any) { delete(doc, "tfidf_params") }),
			want:  domain.ErrMalformedBundle,
			field: "tfidf_params",
		},
		{
			name:  "missing svm_params",
			raw:   mutate(t, func(doc map[string]any) { delete(doc, "svm_params") }),
			want:  domain.ErrMalformedBundle,
			field: "svm_params",
		},
		{
			name:  "missing vocabulary",
			raw:   mutate(t, func(doc map[string]any) { delete(tfidf(doc), "vocabulary_") }),
			want:  domain.ErrMalformedBundle,
			field: "tfidf_params.vocabulary_",
		},
		{
			name:  "missing coef",
			raw:   mutate(t, func(doc map[string]any) { delete(svm(doc), "coef_") }),
			want:  domain.ErrMalformedBundle,
			field: "svm_params.coef_",
		},
		{
			name:  "missing intercept",
			raw:   mutate(t, func(doc map[string]any) { delete(svm(doc), "intercept_") }),
			want:  domain.ErrMalformedBundle,
			field: "svm_params.intercept_",
		},
		{
			name:  "missing classes",
			raw:   mutate(t, func(doc map[string]any) { delete(svm(doc), "classes_") }),
			want:  domain.ErrMalformedBundle,
			field: "svm_params.classes_",
		},
		{
			name: "inconsistent coef rows",
			raw: mutate(t, func(doc map[string]any) {
				svm(doc)["coef_"] = []any{[]any{1.0, 0.0}, []any{0.0}}
			}),
			want:  domain.ErrDimensionMismatch,
			field: "weights",
		},
		{
			name:  "char analyzer",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["analyzer"] = "char" }),
			want:  domain.ErrUnsupportedConfiguration,
			field: "analyzer",
		},
		{
			name:  "builtin stop word list",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["stop_words"] = "english" }),
			want:  domain.ErrUnsupportedConfiguration,
			field: "tfidf_params.stop_words",
		},
		{
			name:  "unknown norm",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["norm"] = "max" }),
			want:  domain.ErrUnsupportedConfiguration,
			field: "norm",
		},
		{
			name:  "bad ngram range length",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["ngram_range"] = []any{1} }),
			want:  domain.ErrMalformedBundle,
			field: "tfidf_params.ngram_range",
		},
		{
			name:  "inverted ngram range",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["ngram_range"] = []any{2, 1} }),
			want:  domain.ErrInvalidConfiguration,
			field: "ngram_range",
		},
		{
			name:  "bad token pattern",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["token_pattern"] = "(" }),
			want:  domain.ErrInvalidConfiguration,
			field: "token_pattern",
		},
		{
			name: "untranslatable token pattern",
			raw: mutate(t, func(doc map[string]any) {
				tfidf(doc)["token_pattern"] = `(?u)[^\W\d]{2,}`
			}),
			want:  domain.ErrUnsupportedConfiguration,
			field: "token_pattern",
		},
		{
			name:  "idf length",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["idf_"] = []any{1.0} }),
			want:  domain.ErrMalformedBundle,
			field: "idf",
		},
		{
			name:  "empty classes",
			raw:   mutate(t, func(doc map[string]any) { svm(doc)["classes_"] = []any{} }),
			want:  domain.ErrEmptyModel,
			field: "classes",
		},
		{
			name:  "labels not a list",
			raw:   mutate(t, func(doc map[string]any) { doc["labels"] = "A,B" }),
			want:  domain.ErrMalformedBundle,
			field: "labels",
		},
		{
			name:  "wrong type",
			raw:   mutate(t, func(doc map[string]any) { tfidf(doc)["lowercase"] = "yes" }),
			want:  domain.ErrMalformedBundle,
			field: "tfidf_params.lowercase",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.field == "" {
				return
			}
			var be *domain.BundleError
			if !errors.As(err, &be) {
				t.Fatalf("expected BundleError, got %T", err)
			}
			if be.Field != tc.field {
				t.Errorf("field = %q, want %q", be.Field, tc.field)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	raw := mutate(t, func(doc map[string]any) {
		p := tfidf(doc)
		p["ngram_range"] = []any{1, 2}
		p["stop_words"] = []any{"the", "a"}
		p["sublinear_tf"] = true
		p["norm"] = nil
		p["strip_accents"] = "unicode"
		p["vocabulary_"] = map[string]any{"great": 0, "video": 1, "great video": 2}
		p["idf_"] = []any{1.0, 2.0, 3.5}
		svm(doc)["coef_"] = []any{[]any{1.0, 0.0, 0.25}, []any{0.0, 1.0, -0.5}}
	})

	first, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := Encode(first)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := Decode(out)
	if err != nil {
		t.Fatalf("decode re-encoded: %v", err)
	}

	if !reflect.DeepEqual(first.Vocabulary(), second.Vocabulary()) {
		t.Error("vocabulary differs")
	}
	if !reflect.DeepEqual(first.IDF(), second.IDF()) {
		t.Error("idf differs")
	}
	if !reflect.DeepEqual(first.Classes(), second.Classes()) {
		t.Error("classes differ")
	}
	if !reflect.DeepEqual(first.Tokenization(), second.Tokenization()) {
		t.Errorf("tokenization differs: %+v vs %+v", first.Tokenization(), second.Tokenization())
	}
	if first.Norm() != second.Norm() || first.SublinearTF() != second.SublinearTF() {
		t.Error("weighting configuration differs")
	}
	for k := 0; k < first.NumRows(); k++ {
		if !reflect.DeepEqual(first.Row(k), second.Row(k)) || first.Bias(k) != second.Bias(k) {
			t.Errorf("row %d differs", k)
		}
	}
	if string(first.Meta().MaxDF) != string(second.Meta().MaxDF) {
		t.Errorf("max_df = %s, want %s", second.Meta().MaxDF, first.Meta().MaxDF)
	}
}

func TestEncode_NullNorm(t *testing.T) {
	raw := mutate(t, func(doc map[string]any) { tfidf(doc)["norm"] = nil })
	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := Encode(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(out), `"norm": null`) {
		t.Errorf("expected null norm in %s", out)
	}
}

func TestEncode_LabelsKeepSerializedForm(t *testing.T) {
	tests := []struct {
		name   string
		labels any
		want   []any
	}{
		{name: "empty list", labels: []any{}, want: []any{}},
		{name: "numeric", labels: []any{0, 1}, want: []any{0.0, 1.0}},
		{name: "absent", want: []any{"A", "B"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := mutate(t, func(doc map[string]any) {
				if tc.labels == nil {
					delete(doc, "labels")
					return
				}
				doc["labels"] = tc.labels
			})
			b, err := Decode(raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			out, err := Encode(b)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			var doc map[string]any
			if err := json.Unmarshal(out, &doc); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(doc["labels"], tc.want) {
				t.Errorf("labels = %#v, want %#v", doc["labels"], tc.want)
			}
		})
	}
}
