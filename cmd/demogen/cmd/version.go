package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const defaultVersion = "devel"

// set by the builder using
// -ldflags='-X demogen/cmd/demogen/cmd.version=<version>'
var version = defaultVersion

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print demogen version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if bi, ok := debug.ReadBuildInfo(); ok && version == defaultVersion {
			version = bi.Main.Version
		}
		fmt.Printf("demogen version %v %s/%s\n",
			version,
			runtime.GOOS, runtime.GOARCH,
		)
	},
}
