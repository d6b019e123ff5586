package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"docanalyzer/internal/chunk"
	"docanalyzer/internal/config"
	"docanalyzer/internal/logger"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Preview how a document would be split into analysis fragments",
	Long: `Extract a document's text and show the fragments the analyzer would send
to the LLM, with their word counts. Useful for tuning the chunking
configuration before running a full analysis.`,
	Example: `  # Show fragment boundaries for a tender document
  docanalyzer chunk pliego.pdf

  # Preview with a smaller fragment size
  MAX_CHUNK_WORDS=1000 docanalyzer chunk pliego.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)

	chunkCmd.Flags().Int("timeout", 600, "Processing timeout in seconds")
	chunkCmd.Flags().Int("preview", 200, "Characters of each fragment to print")
}

func runChunk(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("chunk")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	previewChars, _ := cmd.Flags().GetInt("preview")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	docs, err := loadDocuments(args[:1], log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	assembler := newAssembler(cfg)
	extracted, err := assembler.Assemble(ctx, docs[0])
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	fragments := chunk.Split(extracted.Text, chunk.Config{
		MaxWords:     cfg.MaxChunkWords,
		Overlap:      cfg.ChunkOverlap,
		MaxFragments: cfg.MaxChunks,
	})

	fmt.Printf("Documento: %s (%d caracteres, método %s)\n",
		extracted.Filename, extracted.CharCount, extracted.Method)
	fmt.Printf("Fragmentos: %d\n\n", len(fragments))

	for _, fragment := range fragments {
		preview := fragment.Text
		if len(preview) > previewChars {
			preview = preview[:previewChars] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Printf("[%d] %d palabras\n    %s\n\n", fragment.Index, fragment.WordCount, preview)
	}
	return nil
}
