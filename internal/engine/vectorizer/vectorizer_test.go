package vectorizer

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/vidclass/internal/domain"
	"github.com/kailas-cloud/vidclass/internal/domain/bundle"
)

const tolerance = 1e-6

func newBundle(t *testing.T, vocab map[string]int, idf []float64, modify func(p *bundle.Params)) *bundle.Bundle {
	t.Helper()
	weights := make([][]float64, 2)
	for k := range weights {
		weights[k] = make([]float64, len(vocab))
	}
	p := bundle.Params{
		Vocabulary:   vocab,
		IDF:          idf,
		Tokenization: bundle.DefaultTokenization(),
		Norm:         bundle.NormL2,
		UseIDF:       true,
		SmoothIDF:    true,
		Weights:      weights,
		Biases:       []float64{0, 0},
		Classes:      []string{"A", "B"},
	}
	if modify != nil {
		modify(&p)
	}
	b, err := bundle.New(p)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}
	return b
}

func assertDense(t *testing.T, b *bundle.Bundle, text string, want []float64) {
	t.Helper()
	v, err := Vectorize(text, b)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	got := v.Dense(b.VocabularySize())
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Fatalf("Vectorize(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestVectorize_WorkedExample(t *testing.T) {
	b := newBundle(t, map[string]int{"great": 0, "video": 1}, []float64{1, 2}, nil)
	assertDense(t, b, "great video great", []float64{math.Sqrt2 / 2, math.Sqrt2 / 2})
}

func TestVectorize_Deterministic(t *testing.T) {
	b := newBundle(t, map[string]int{"great": 0, "video": 1, "cat": 2}, []float64{1, 2, 1.5}, nil)
	text := "Great cat VIDEO, great cat!"
	first, err := Vectorize(text, b)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	for range 10 {
		again, err := Vectorize(text, b)
		if err != nil {
			t.Fatalf("Vectorize: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("vectors differ: %v vs %v", first, again)
		}
	}
}

func TestVectorize_OutOfVocabulary(t *testing.T) {
	b := newBundle(t, map[string]int{"great": 0, "video": 1}, []float64{1, 2}, nil)
	for _, text := range []string{"", "unknown words only", "a b c"} {
		v, err := Vectorize(text, b)
		if err != nil {
			t.Fatalf("Vectorize(%q): %v", text, err)
		}
		if v.Len() != 0 {
			t.Errorf("Vectorize(%q) = %v, want zero vector", text, v)
		}
	}
}

func TestVectorize_IndicesSorted(t *testing.T) {
	b := newBundle(t, map[string]int{"alpha": 2, "beta": 0, "gamma": 1}, []float64{1, 1, 1}, nil)
	v, err := Vectorize("alpha gamma beta", b)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if !reflect.DeepEqual(v.Indices, []int{0, 1, 2}) {
		t.Errorf("indices = %v, want ascending", v.Indices)
	}
}

func TestVectorize_Sublinear(t *testing.T) {
	b := newBundle(t, map[string]int{"great": 0, "video": 1}, []float64{1, 1}, func(p *bundle.Params) {
		p.SublinearTF = true
		p.Norm = bundle.NormNone
	})
	// great x3 -> 1 + ln 3, video x1 -> 1
	assertDense(t, b, "great great great video", []float64{1 + math.Log(3), 1})
}

func TestVectorize_L1AndNone(t *testing.T) {
	vocab := map[string]int{"great": 0, "video": 1}
	l1 := newBundle(t, vocab, []float64{1, 2}, func(p *bundle.Params) { p.Norm = bundle.NormL1 })
	assertDense(t, l1, "great great video", []float64{0.5, 0.5})

	none := newBundle(t, vocab, []float64{1, 2}, func(p *bundle.Params) { p.Norm = bundle.NormNone })
	assertDense(t, none, "great great video", []float64{2, 2})
}

func TestVectorize_NoIDF(t *testing.T) {
	b := newBundle(t, map[string]int{"great": 0, "video": 1}, nil, func(p *bundle.Params) {
		p.UseIDF = false
		p.Norm = bundle.NormNone
	})
	assertDense(t, b, "great video video", []float64{1, 2})
}

func TestAnalyze_NGrams(t *testing.T) {
	b := newBundle(t, map[string]int{"x": 0}, []float64{1}, func(p *bundle.Params) {
		p.Tokenization.NGramMin = 1
		p.Tokenization.NGramMax = 3
	})
	got, err := Analyze("one two three", b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []string{"one", "two", "three", "one two", "two three", "one two three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %q, want %q", got, want)
	}
}

func TestAnalyze_BigramsOnly(t *testing.T) {
	b := newBundle(t, map[string]int{"x": 0}, []float64{1}, func(p *bundle.Params) {
		p.Tokenization.NGramMin = 2
		p.Tokenization.NGramMax = 2
	})
	got, err := Analyze("solo", b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Analyze = %q, want nothing for a single token", got)
	}
}

func TestAnalyze_StopWordsBeforeNGrams(t *testing.T) {
	b := newBundle(t, map[string]int{"x": 0}, []float64{1}, func(p *bundle.Params) {
		p.Tokenization.NGramMax = 2
		p.Tokenization.StopWords = []string{"the"}
	})
	got, err := Analyze("cats the dogs", b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []string{"cats", "dogs", "cats dogs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %q, want %q", got, want)
	}
}

func TestAnalyze_Lowercase(t *testing.T) {
	b := newBundle(t, map[string]int{"x": 0}, []float64{1}, nil)
	got, err := Analyze("ÉCOLE Straße", b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []string{"école", "straße"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %q, want %q", got, want)
	}

	keep := newBundle(t, map[string]int{"x": 0}, []float64{1}, func(p *bundle.Params) { p.Tokenization.Lowercase = false })
	got, err = Analyze("Hello World", keep)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Hello", "World"}) {
		t.Errorf("Analyze = %q, case should be kept", got)
	}
}

func TestAnalyze_StripAccents(t *testing.T) {
	tests := []struct {
		mode bundle.Accents
		in   string
		want []string
	}{
		{bundle.AccentsUnicode, "café naïve", []string{"cafe", "naive"}},
		{bundle.AccentsASCII, "café naïve", []string{"cafe", "naive"}},
		{bundle.AccentsUnicode, "привет", []string{"привет"}},
		{bundle.AccentsASCII, "привет ok", []string{"ok"}},
		{bundle.AccentsNone, "café", []string{"café"}},
	}
	for _, tc := range tests {
		b := newBundle(t, map[string]int{"x": 0}, []float64{1}, func(p *bundle.Params) {
			p.Tokenization.StripAccents = tc.mode
		})
		got, err := Analyze(tc.in, b)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("mode %q: Analyze(%q) = %q, want %q", tc.mode, tc.in, got, tc.want)
		}
	}
}

func TestAnalyze_CaptureGroup(t *testing.T) {
	b := newBundle(t, map[string]int{"x": 0}, []float64{1}, func(p *bundle.Params) {
		p.Tokenization.TokenPattern = `#(\w+)`
	})
	got, err := Analyze("watch #gaming and #music now", b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"gaming", "music"}) {
		t.Errorf("Analyze = %q", got)
	}
}

func TestAnalyze_UnvalidatedBundle(t *testing.T) {
	_, err := Analyze("text", &bundle.Bundle{})
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}
