package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"docanalyzer/internal/answer"
	"docanalyzer/internal/config"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/pipeline"
	"docanalyzer/internal/report"
	"docanalyzer/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Extract text from documents and answer questions about them",
	Long: `Process one or more documents (PDF, DOCX, images, plain text) and answer
a set of questions about their content.

The default question set covers Colombian public procurement fields
(entidad, NIT, objeto, valor, cronograma, requisitos). Custom questions
can be appended with --questions.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key used for vision extraction and answering`,
	Example: `  # Analyze a single tender document
  docanalyzer analyze pliego.pdf

  # Analyze several files together with custom questions
  docanalyzer analyze pliego.pdf anexos.docx --questions '["¿Cuál es la garantía exigida?"]'

  # Write Excel report alongside the JSON results
  docanalyzer analyze pliego.pdf --excel -o ./resultados`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("questions", "", "Custom questions as a JSON array or path to a JSON file")
	analyzeCmd.Flags().StringP("output", "o", "", "Report directory (default: from configuration)")
	analyzeCmd.Flags().Bool("excel", false, "Also write an Excel report")
	analyzeCmd.Flags().Int("timeout", 1800, "Processing timeout in seconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	questionsFlag, _ := cmd.Flags().GetString("questions")
	outputDir, _ := cmd.Flags().GetString("output")
	writeExcel, _ := cmd.Flags().GetBool("excel")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if outputDir == "" {
		outputDir = cfg.ReportDir
	}

	customQuestions, err := loadCustomQuestions(questionsFlag)
	if err != nil {
		return err
	}

	docs, err := loadDocuments(args, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("files", len(docs)).
		Int("custom_questions", len(customQuestions)).
		Str("output", outputDir).
		Msg("Starting document analysis")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	service, err := pipeline.NewService(cfg)
	if err != nil {
		return fmt.Errorf("creating analysis service: %w", err)
	}

	startTime := time.Now()
	analysis, err := service.Analyze(ctx, docs, customQuestions)
	if err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		return fmt.Errorf("analysis failed: %w", err)
	}

	jsonPath, err := report.WriteJSON(outputDir, analysis)
	if err != nil {
		return fmt.Errorf("writing JSON report: %w", err)
	}
	fmt.Printf("JSON report: %s\n", jsonPath)

	if writeExcel {
		excelPath, err := report.WriteExcel(outputDir, analysis)
		if err != nil {
			return fmt.Errorf("writing Excel report: %w", err)
		}
		fmt.Printf("Excel report: %s\n", excelPath)
	}

	log.Info().
		Int("answers_found", analysis.Summary.AnswersFound).
		Int("questions", analysis.Summary.Questions).
		Float64("cost_usd", analysis.Costs.TotalCostUSD).
		Dur("duration", time.Since(startTime)).
		Msg("Analysis completed successfully")

	printAnalysisSummary(analysis)
	return nil
}

// loadCustomQuestions accepts either an inline JSON array or the path of
// a JSON file containing one.
func loadCustomQuestions(flag string) ([]string, error) {
	if flag == "" {
		return nil, nil
	}
	raw := flag
	if !strings.HasPrefix(strings.TrimSpace(flag), "[") {
		data, err := os.ReadFile(flag)
		if err != nil {
			return nil, fmt.Errorf("reading questions file: %w", err)
		}
		raw = string(data)
	}
	questions, err := answer.ParseCustomQuestions(raw)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// loadDocuments reads every input file into memory with its MIME type.
func loadDocuments(paths []string, log zerolog.Logger) ([]models.RawDocument, error) {
	docs := make([]models.RawDocument, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("file not found: %s", path)
			}
			return nil, fmt.Errorf("error accessing file %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("path is not a regular file: %s", path)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("file is empty: %s", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		doc := models.RawDocument{
			Filename: filepath.Base(path),
			MimeType: detectMimeType(path),
			Content:  content,
		}
		docs = append(docs, doc)

		log.Debug().
			Str("file", doc.Filename).
			Str("mime_type", doc.MimeType).
			Int64("size", info.Size()).
			Msg("Loaded document")
	}
	return docs, nil
}

// detectMimeType maps the file extension onto the MIME types the
// extraction layer understands. Unknown extensions fall back to plain
// text.
func detectMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "text/plain"
	}
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

func printAnalysisSummary(analysis *models.Analysis) {
	fmt.Printf("\nProceso: %s\n", analysis.ProcessID)
	fmt.Printf("Archivos procesados: %d/%d\n",
		analysis.Summary.FilesProcessed, analysis.Summary.FilesReceived)
	fmt.Printf("Respuestas encontradas: %d/%d\n",
		analysis.Summary.AnswersFound, analysis.Summary.Questions)
	fmt.Printf("Costo total: $%.4f USD (%d tokens)\n\n",
		analysis.Costs.TotalCostUSD, analysis.Costs.TotalTokens)

	for _, record := range analysis.Answers {
		marker := "✗"
		if record.Found {
			marker = "✓"
		}
		question := record.Question.Text
		if idx := strings.Index(question, "?"); idx > 0 {
			question = question[:idx+1]
		}
		fmt.Printf("%s %s\n  %s\n", marker, question, record.Answer)
	}
}
