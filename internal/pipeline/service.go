package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"docanalyzer/internal/answer"
	"docanalyzer/internal/chunk"
	"docanalyzer/internal/config"
	"docanalyzer/internal/extract"
	"docanalyzer/internal/llm"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/ratelimit"
	"docanalyzer/pkg/models"
)

// ErrNoDocumentText is returned when no input document produced any
// usable text, so there is nothing to answer questions against.
var ErrNoDocumentText = errors.New("no text could be extracted from any document")

// Service runs the full document analysis flow: extraction, chunking,
// and question answering.
type Service interface {
	// Analyze processes the given documents and answers the default
	// questions plus any custom ones.
	Analyze(ctx context.Context, docs []models.RawDocument, customQuestions []string) (*models.Analysis, error)
}

// DefaultService is the production implementation of Service.
type DefaultService struct {
	assembler *extract.Assembler
	chunkCfg  chunk.Config
	engine    *answer.Engine
	model     string
	log       zerolog.Logger
}

// NewService wires the service from configuration: a shared rate tracker,
// the OpenAI-backed caller, the Tesseract engine, and the answering pool.
// Without an API key the vision pass and answering are unavailable, so an
// error is returned.
func NewService(cfg *config.Config) (*DefaultService, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required for document analysis")
	}

	client := openai.NewClient(cfg.OpenAIAPIKey)
	tracker := ratelimit.NewTracker(ratelimit.DefaultLimits())

	callerCfg := llm.DefaultCallerConfig()
	callerCfg.Model = cfg.OpenAIModel
	caller := llm.NewCaller(client, tracker, callerCfg)

	engineOCR := extract.NewTesseractEngine(cfg.OCRLanguages)
	pages := extract.NewPageExtractor(engineOCR, caller)
	assembler := extract.NewAssembler(pages)

	engineCfg := answer.DefaultEngineConfig()
	engineCfg.Workers = cfg.MaxWorkers
	engineCfg.MaxAnswerTokens = cfg.MaxAnswerTokens
	engine := answer.NewEngine(caller, tracker, engineCfg)

	chunkCfg := chunk.Config{
		MaxWords:     cfg.MaxChunkWords,
		Overlap:      cfg.ChunkOverlap,
		MaxFragments: cfg.MaxChunks,
	}

	return NewServiceWithDeps(assembler, chunkCfg, engine, cfg.OpenAIModel), nil
}

// NewServiceWithDeps creates a service with explicit dependencies, used
// by tests to inject fakes.
func NewServiceWithDeps(assembler *extract.Assembler, chunkCfg chunk.Config, engine *answer.Engine, model string) *DefaultService {
	return &DefaultService{
		assembler: assembler,
		chunkCfg:  chunkCfg,
		engine:    engine,
		model:     model,
		log:       logger.WithComponent("pipeline"),
	}
}

// Analyze implements Service.
func (s *DefaultService) Analyze(ctx context.Context, docs []models.RawDocument, customQuestions []string) (*models.Analysis, error) {
	processID := uuid.New().String()
	log := s.log.With().Str("process_id", processID).Logger()

	analysis := &models.Analysis{
		ProcessID: processID,
		StartedAt: time.Now(),
	}
	analysis.Summary.FilesReceived = len(docs)

	log.Info().Int("documents", len(docs)).Msg("starting document analysis")

	var combined string
	for _, doc := range docs {
		extracted, err := s.assembler.Assemble(ctx, doc)
		if err != nil {
			log.Warn().Err(err).Str("filename", doc.Filename).Msg("document extraction failed")
			analysis.Documents = append(analysis.Documents, models.DocumentResult{
				ExtractedText: models.ExtractedText{Filename: doc.Filename},
				Error:         err.Error(),
			})
			continue
		}

		analysis.Documents = append(analysis.Documents, models.DocumentResult{ExtractedText: *extracted})
		analysis.Summary.FilesProcessed++
		analysis.Summary.CharsExtracted += extracted.CharCount

		if combined != "" {
			combined += "\n\n"
		}
		combined += fmt.Sprintf("=== DOCUMENTO: %s ===\n%s", extracted.Filename, extracted.Text)
	}

	if combined == "" {
		return nil, ErrNoDocumentText
	}

	fragments := chunk.Split(combined, s.chunkCfg)
	analysis.Fragments = len(fragments)
	log.Info().
		Int("fragments", len(fragments)).
		Int("chars", len(combined)).
		Msg("text extraction complete")

	questions := answer.MergeQuestions(customQuestions)
	analysis.Summary.Questions = len(questions)

	answers, err := s.engine.AnswerAll(ctx, fragments, questions)
	if err != nil {
		return nil, fmt.Errorf("answering questions: %w", err)
	}
	analysis.Answers = answers

	for _, record := range answers {
		if record.Found {
			analysis.Summary.AnswersFound++
		}
		analysis.Costs.TotalTokens += record.TokensUsed
		analysis.Costs.TotalCostUSD += record.CostUSD
	}
	analysis.Costs.Model = s.model
	if len(answers) > 0 {
		analysis.Costs.AvgCostPerQuestion = analysis.Costs.TotalCostUSD / float64(len(answers))
	}
	analysis.FinishedAt = time.Now()

	log.Info().
		Int("answers_found", analysis.Summary.AnswersFound).
		Float64("cost_usd", analysis.Costs.TotalCostUSD).
		Dur("elapsed", analysis.FinishedAt.Sub(analysis.StartedAt)).
		Msg("document analysis complete")

	return analysis, nil
}
