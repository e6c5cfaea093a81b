package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/samber/lo"

	dombundle "github.com/kailas-cloud/vidclass/internal/domain/bundle"
)

type inspectFlags struct {
	commonFlags
	top int
}

func inspectCmd() *commander.Command {
	f := &inspectFlags{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runInspect(f)
		},
		UsageLine: "inspect [options]",
		Short:     "print the bundle configuration and per-class weights",
		Long: `
print the bundle configuration and, for every weight row, the bias, the
number of non-zero weights and the strongest terms

	$ vidclass inspect -bundle model.json -top 5
`,
		Flag: *flag.NewFlagSet("inspect", flag.ExitOnError),
	}
	addCommonFlags(cmd, &f.commonFlags)
	cmd.Flag.IntVar(&f.top, "top", 5, "number of top terms shown per class")
	return cmd
}

func runInspect(f *inspectFlags) error {
	ctx := context.Background()
	a, err := newApp(ctx, f.commonFlags)
	if err != nil {
		return err
	}
	defer a.close()

	b, err := a.loadBundle(ctx)
	if err != nil {
		return err
	}

	tok := b.Tokenization()
	minN, maxN := b.NGramRange()
	stopWords := "none"
	if tok.StopWords != nil {
		stopWords = strconv.Itoa(len(tok.StopWords)) + " words"
	}
	accents := string(tok.StripAccents)
	if accents == "" {
		accents = "none"
	}

	cfg := newTable(os.Stdout, "Setting", "Value")
	cfg.AppendBulk([][]string{
		{"fingerprint", b.Fingerprint()},
		{"vocabulary", strconv.Itoa(b.VocabularySize())},
		{"classes", strconv.Itoa(b.NumClasses())},
		{"layout", layoutName(b)},
		{"lowercase", strconv.FormatBool(tok.Lowercase)},
		{"strip_accents", accents},
		{"token_pattern", tok.TokenPattern},
		{"ngram_range", fmt.Sprintf("(%d, %d)", minN, maxN)},
		{"stop_words", stopWords},
		{"norm", string(b.Norm())},
		{"use_idf", strconv.FormatBool(b.UseIDF())},
		{"smooth_idf", strconv.FormatBool(b.SmoothIDF())},
		{"sublinear_tf", strconv.FormatBool(b.SublinearTF())},
	})
	cfg.Render()
	fmt.Println()

	rows := newTable(os.Stdout, "Row", "Class", "Bias", "Non-zero", "Top terms")
	for k := 0; k < b.NumRows(); k++ {
		label := b.Class(k)
		if b.Binary() {
			label = b.Class(1)
		}
		row := b.Row(k)
		nonZero := lo.CountBy(row, func(w float64) bool { return w != 0 })
		rows.Append([]string{
			strconv.Itoa(k),
			label,
			strconv.FormatFloat(b.Bias(k), 'f', 4, 64),
			strconv.Itoa(nonZero),
			strings.Join(topTerms(b, row, f.top), ", "),
		})
	}
	rows.Render()
	return nil
}

func layoutName(b *dombundle.Bundle) string {
	if b.Binary() {
		return "binary (single row)"
	}
	return "one-vs-rest"
}

// topTerms returns the n terms with the largest positive weights in row.
func topTerms(b *dombundle.Bundle, row []float64, n int) []string {
	idx := lo.Filter(lo.Range(len(row)), func(i int, _ int) bool { return row[i] > 0 })
	slices.SortStableFunc(idx, func(i, j int) int {
		switch {
		case row[i] > row[j]:
			return -1
		case row[i] < row[j]:
			return 1
		default:
			return 0
		}
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return lo.Map(idx, func(i int, _ int) string {
		return fmt.Sprintf("%s (%.3f)", b.Term(i), row[i])
	})
}
