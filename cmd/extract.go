package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"docanalyzer/internal/config"
	"docanalyzer/internal/extract"
	"docanalyzer/internal/llm"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/ratelimit"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract text from a single document",
	Long: `Extract the text content of a PDF, DOCX, image or plain text file and
print it to stdout or write it to a file.

PDF pages without a native text layer go through the OCR engine; pages the
heuristics flag as difficult (tables, dense numbers, legal keywords) also
get a vision pass when OPENAI_API_KEY is set.`,
	Example: `  # Print extracted text to stdout
  docanalyzer extract pliego.pdf

  # Save extraction with method metadata as JSON
  docanalyzer extract pliego.pdf --json -o extracted.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput is the JSON structure produced with the --json flag.
type ExtractOutput struct {
	FileName  string `json:"file_name"`
	Text      string `json:"text"`
	Method    string `json:"method"`
	CharCount int    `json:"char_count"`
	PageCount int    `json:"page_count,omitempty"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("json", false, "Output as JSON")
	extractCmd.Flags().Int("timeout", 600, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

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
		log.Error().Err(err).Str("file", docs[0].Filename).Msg("Extraction failed")
		return fmt.Errorf("extraction failed: %w", err)
	}

	log.Info().
		Str("file", extracted.Filename).
		Str("method", string(extracted.Method)).
		Int("chars", extracted.CharCount).
		Int("pages", extracted.PageCount).
		Msg("Extraction completed")

	var output []byte
	if jsonOutput {
		output, err = json.MarshalIndent(ExtractOutput{
			FileName:  extracted.Filename,
			Text:      extracted.Text,
			Method:    string(extracted.Method),
			CharCount: extracted.CharCount,
			PageCount: extracted.PageCount,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		output = []byte(extracted.Text)
	}

	if outputPath == "" {
		fmt.Println(string(output))
		return nil
	}
	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("Extracted text written to %s\n", outputPath)
	return nil
}

// newAssembler builds the extraction stack. The vision pass is only
// wired when an API key is configured.
func newAssembler(cfg *config.Config) *extract.Assembler {
	engine := extract.NewTesseractEngine(cfg.OCRLanguages)

	var vision extract.VisionTextExtractor
	if cfg.VisionEnabled() {
		client := openai.NewClient(cfg.OpenAIAPIKey)
		tracker := ratelimit.NewTracker(ratelimit.DefaultLimits())
		callerCfg := llm.DefaultCallerConfig()
		callerCfg.Model = cfg.OpenAIModel
		vision = llm.NewCaller(client, tracker, callerCfg)
	}

	return extract.NewAssembler(extract.NewPageExtractor(engine, vision))
}
