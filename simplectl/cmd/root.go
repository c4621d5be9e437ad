// Package cmd provides the command-line interface for simple-controller.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "simplectl",
	Short: "Simplectl can perform common tasks related to developing applications with simple-controller.",
	Long: `Simplectl can perform common tasks related to developing applications with ` +
		`simple-controller. It currently provides controller scaffolding (controller-create), ` +
		`linting (controller-lint), and reading recorded transition traces (trace).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Flags set on the command line win over .env values.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
