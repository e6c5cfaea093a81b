package main

import (
	"fmt"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/kailas-cloud/vidclass/internal/version"
)

func versionCmd() *commander.Command {
	return &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			fmt.Printf("vidclass %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
			return nil
		},
		UsageLine: "version",
		Short:     "print build information",
		Flag:      *flag.NewFlagSet("version", flag.ExitOnError),
	}
}
