package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

type explainFlags struct {
	commonFlags
	title       string
	description string
	json        bool
}

func explainCmd() *commander.Command {
	f := &explainFlags{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runExplain(f, args)
		},
		UsageLine: "explain [options] [text...]",
		Short:     "show the terms, features and scores behind a prediction",
		Long: `
show how a text is analyzed, weighted and scored

	$ vidclass explain -title "Guitar lesson" -description "learn three chords"
`,
		Flag: *flag.NewFlagSet("explain", flag.ExitOnError),
	}
	addCommonFlags(cmd, &f.commonFlags)
	cmd.Flag.StringVar(&f.title, "title", "", "video title")
	cmd.Flag.StringVar(&f.description, "description", "", "video description")
	cmd.Flag.BoolVar(&f.json, "json", false, "print the explanation as JSON")
	return cmd
}

func runExplain(f *explainFlags, args []string) error {
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
	ex, err := a.newService(b).Explain(ctx, inputText(f.title, f.description, args))
	if err != nil {
		return fmt.Errorf("explain: %w", err)
	}
	if f.json {
		return printJSON(ex, true)
	}

	fmt.Printf("terms: %s\n\n", strings.Join(ex.Terms, " | "))

	feats := newTable(os.Stdout, "Index", "Term", "Weight")
	for _, ft := range ex.Features {
		feats.Append([]string{
			strconv.Itoa(ft.Index),
			ft.Term,
			strconv.FormatFloat(ft.Weight, 'f', 6, 64),
		})
	}
	feats.Render()
	fmt.Println()

	scores := newTable(os.Stdout, "Rank", "Class", "Score")
	for i, s := range ex.Prediction.Ranked() {
		scores.Append([]string{
			strconv.Itoa(i + 1),
			s.Label,
			strconv.FormatFloat(s.Score, 'f', 6, 64),
		})
	}
	scores.Render()

	fmt.Printf("\nlabel: %s  confidence: %.2f\n", ex.Prediction.Label, ex.Prediction.Confidence)
	return nil
}
