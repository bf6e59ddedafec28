package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "authorsync",
		Short: "AuthorSync - Local companion for AI-assisted course authoring",
		Long: `AuthorSync tracks AI content-generation jobs running in the CMS.
It follows job progress over the real-time event stream, stores job history
locally, and lets authors review, approve, and reject the suggestions a
completed job produced.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
