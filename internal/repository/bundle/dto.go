package bundle

import (
	"encoding/json"
	"fmt"
)

// exportDoc is the serialized Parameter Bundle written by the trainer.
type exportDoc struct {
	TFIDF  *tfidfParams    `json:"tfidf_params"`
	SVM    *svmParams      `json:"svm_params"`
	Labels json.RawMessage `json:"labels,omitempty"`
}

// tfidfParams mirrors the fitted vectorizer attributes. Pointer and raw
// fields distinguish "absent" from zero values.
type tfidfParams struct {
	Vocabulary   map[string]int  `json:"vocabulary_"`
	IDF          []float64       `json:"idf_"`
	StopWords    json.RawMessage `json:"stop_words"`
	Lowercase    *bool           `json:"lowercase"`
	MaxDF        json.RawMessage `json:"max_df"`
	MinDF        json.RawMessage `json:"min_df"`
	NGramRange   []int           `json:"ngram_range"`
	TokenPattern *string         `json:"token_pattern"`
	Analyzer     *string         `json:"analyzer"`
	UseIDF       *bool           `json:"use_idf"`
	SmoothIDF    *bool           `json:"smooth_idf"`
	SublinearTF  *bool           `json:"sublinear_tf"`
	Norm         json.RawMessage `json:"norm"`
	StripAccents json.RawMessage `json:"strip_accents,omitempty"`
}

// svmParams mirrors the fitted linear classifier attributes.
type svmParams struct {
	Coef      [][]float64 `json:"coef_"`
	Intercept []float64   `json:"intercept_"`
	Classes   labelList   `json:"classes_"`
}

// labelList accepts class labels serialized as strings or numbers.
// Numbers keep their JSON text.
type labelList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *labelList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("labels must be a list: %w", err)
	}
	out := make(labelList, 0, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(r, &n); err == nil {
			out = append(out, n.String())
			continue
		}
		return fmt.Errorf("label %d must be a string or a number, got %s", i, string(r))
	}
	*l = out
	return nil
}
