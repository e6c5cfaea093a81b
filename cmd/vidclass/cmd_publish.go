package main

import (
	"context"
	"fmt"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"

	bundlerepo "github.com/kailas-cloud/vidclass/internal/repository/bundle"
)

type publishFlags struct {
	commonFlags
	key string
	in  string
}

func publishCmd() *commander.Command {
	f := &publishFlags{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runPublish(f)
		},
		UsageLine: "publish -key <name> -in <bundle.json>",
		Short:     "validate a bundle and store it in the database",
		Long: `
validate a bundle and store it under a key, so that workers can load it
with model.ref: redis://<key>

	$ vidclass publish -env prod -key prod -in model.json
`,
		Flag: *flag.NewFlagSet("publish", flag.ExitOnError),
	}
	addCommonFlags(cmd, &f.commonFlags)
	cmd.Flag.StringVar(&f.key, "key", "", "bundle key")
	cmd.Flag.StringVar(&f.in, "in", "", "bundle file or redis://<name> to copy from")
	return cmd
}

func runPublish(f *publishFlags) error {
	if f.key == "" || f.in == "" {
		return fmt.Errorf("publish: -key and -in are required")
	}
	// model.ref is not used by publish but must pass validation.
	if f.bundle == "" {
		f.bundle = f.in
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.commonFlags)
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return fmt.Errorf("publish: no database configured (database.addrs)")
	}

	raw, err := a.bundles.Fetch(ctx, f.in)
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}
	b, err := a.bundles.Publish(ctx, f.key, raw)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	a.logger.Info("Bundle published",
		zap.String("key", bundlerepo.Key(f.key)),
		zap.String("fingerprint", b.Fingerprint()),
		zap.Int("classes", b.NumClasses()),
	)
	fmt.Println(bundlerepo.RedisScheme + f.key)
	return nil
}
