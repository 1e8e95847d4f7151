package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version and commit are set at build time, e.g.:
//
//	go build -ldflags "-X main.version=v0.1.0 -X main.commit=$(git rev-parse HEAD)"
//
var (
	version = "dev"
	commit  = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version of this CLI",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version, commit)
	},
}
