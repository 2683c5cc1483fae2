package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barisgit/fluxbuild/cmd"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "fluxbuild",
		Short:   "fluxbuild - frontend builds from a flux.yaml workspace",
		Long:    `fluxbuild resolves the build options of a workspace project and bundles it with esbuild.`,
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("🚀 fluxbuild v" + version)
			fmt.Println("Run 'fluxbuild --help' for available commands")
		},
	}

	rootCmd.AddCommand(cmd.BuildCmd())
	rootCmd.AddCommand(cmd.ConfigCmd())
	rootCmd.AddCommand(cmd.InitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
