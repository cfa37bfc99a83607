package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/params"
)

// Set via -ldflags "-X main.gitCommit=... -X main.gitDate=...".
var (
	gitCommit = ""
	gitDate   = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version numbers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Blobkit")
		fmt.Fprintln(w, "Version:", params.VersionWithCommit(gitCommit, gitDate))
		fmt.Fprintln(w, "Architecture:", runtime.GOARCH)
		fmt.Fprintln(w, "Go Version:", runtime.Version())
		fmt.Fprintln(w, "Operating System:", runtime.GOOS)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
