package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/kailas-cloud/vidclass/internal/domain"
)

type classifyFlags struct {
	commonFlags
	title       string
	description string
	pretty      bool
}

func classifyCmd() *commander.Command {
	f := &classifyFlags{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runClassify(f, args)
		},
		UsageLine: "classify [options] [text...]",
		Short:     "classify one video and print the prediction as JSON",
		Long: `
classify one video and print the prediction as JSON

	$ vidclass classify -title "Guitar lesson" -description "learn three chords"
	$ vidclass classify free text to classify
`,
		Flag: *flag.NewFlagSet("classify", flag.ExitOnError),
	}
	addCommonFlags(cmd, &f.commonFlags)
	cmd.Flag.StringVar(&f.title, "title", "", "video title")
	cmd.Flag.StringVar(&f.description, "description", "", "video description")
	cmd.Flag.BoolVar(&f.pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func runClassify(f *classifyFlags, args []string) error {
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
	c := a.buildClassifier(a.newService(b))

	var p domain.Prediction
	if f.title != "" || f.description != "" {
		p, err = c.ClassifyVideo(ctx, f.title, f.description)
	} else {
		p, err = c.Classify(ctx, strings.Join(args, " "))
	}
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	return printJSON(p, f.pretty)
}
