package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"

	bundlerepo "github.com/kailas-cloud/vidclass/internal/repository/bundle"
)

type exportFlags struct {
	commonFlags
	out string
}

func exportCmd() *commander.Command {
	f := &exportFlags{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runExport(f)
		},
		UsageLine: "export [options]",
		Short:     "validate a bundle and write it back in the export layout",
		Long: `
load and validate a bundle, then serialize it again in the trainer's
export layout. Missing optional fields are written with their defaults.

	$ vidclass export -bundle redis://prod -out model.json
`,
		Flag: *flag.NewFlagSet("export", flag.ExitOnError),
	}
	addCommonFlags(cmd, &f.commonFlags)
	cmd.Flag.StringVar(&f.out, "out", "", "output file (default stdout)")
	return cmd
}

func runExport(f *exportFlags) error {
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
	data, err := bundlerepo.Encode(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	data = append(data, '\n')

	if f.out == "" || f.out == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(f.out, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	a.logger.Info("Bundle exported", zap.String("path", f.out), zap.String("fingerprint", bundlerepo.Fingerprint(data)))
	return nil
}
