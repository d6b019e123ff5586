package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"docanalyzer/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "docanalyzer",
	Short: "Document analyzer - extract and answer questions over procurement documents",
	Long: `Document analyzer processes PDF, DOCX, image and plain text files,
extracts their text using a hybrid OCR and vision pipeline, and answers a
configurable set of questions against the content using an LLM.

It is tuned for Colombian public procurement documents (pliegos, anexos,
contratos) but works with any Spanish or English document.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Document analyzer executed")

		fmt.Println("Welcome to Document Analyzer!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
