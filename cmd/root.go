// Package cmd wires the Deco command line: the HTTP server and the
// relay actuator, one process each.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deco",
	Short: "Gesture-password storage compartment",
	Long: `Deco locks a shared storage compartment behind a gesture password:
three pose photographs enroll an item, and reproducing the same three
poses releases it. The serve command runs the HTTP backend; the actuate
command runs the relay poll loop on the lock controller.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
