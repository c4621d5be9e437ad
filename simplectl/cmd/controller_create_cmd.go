package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var controllerCreateCmd = &cobra.Command{
	Use:   "controller-create [path]",
	Short: "Generate boilerplate for a new controller package",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true
		path := args[0]

		if !inGitRepo() {
			log.Fatalf("Error: controller-create must be run inside a Git repository.")
		}

		if err := createControllerFolder(path); err != nil {
			log.Fatalf("Error creating controller: %v", err)
		}
		fmt.Printf("Controller '%s' created successfully!\n", path)

		if err := generateControllerFile(path); err != nil {
			log.Fatalf("Error generating controller file: %v", err)
		}
		fmt.Println("Controller file generated successfully!")

		if err := generateControllerTestFile(path); err != nil {
			log.Fatalf("Error generating controller test file: %v", err)
		}
		fmt.Println("Controller test file generated successfully!")
	},
}

func init() {
	rootCmd.AddCommand(controllerCreateCmd)
}
