package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
)

var rootCmd = &commander.Command{
	UsageLine: "vidclass",
	Short:     "classify videos with an exported TF-IDF linear model",
	Long: `
vidclass loads a parameter bundle exported by the training pipeline and
predicts a category for video titles and descriptions.

	$ vidclass classify -title "Easy pasta" -description "weeknight dinner"
	$ vidclass batch < videos.ndjson > predictions.ndjson
`,
}

func init() {
	rootCmd.Subcommands = []*commander.Command{
		classifyCmd(),
		batchCmd(),
		inspectCmd(),
		explainCmd(),
		exportCmd(),
		publishCmd(),
		versionCmd(),
	}
}

func main() {
	if err := rootCmd.Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "vidclass: %v\n", err)
		os.Exit(1)
	}
}
