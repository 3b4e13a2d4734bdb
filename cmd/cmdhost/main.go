package main

import (
	"os"

	"github.com/kcaldas/cmdcore/cmd/cli"
	"github.com/kcaldas/cmdcore/pkg/version"
)

func main() {
	cli.RootCmd.SetVersionTemplate(version.GetInfo().String() + "\n")
	if err := cli.RootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with error code
		os.Exit(1)
	}
}
