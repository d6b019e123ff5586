package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyzer/internal/answer"
	"docanalyzer/internal/chunk"
	"docanalyzer/internal/config"
	"docanalyzer/internal/extract"
	"docanalyzer/internal/llm"
	"docanalyzer/pkg/models"
)

// staticCompleter answers every prompt with the same text.
type staticCompleter struct {
	text  string
	usage models.Usage
}

func (s *staticCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (*llm.Result, error) {
	return &llm.Result{Text: s.text, Usage: s.usage}, nil
}

func newTestService(completer answer.Completer) *DefaultService {
	assembler := extract.NewAssembler(extract.NewPageExtractor(&stubOCR{}, nil))
	engine := answer.NewEngine(completer, nil, answer.EngineConfig{Workers: 2, MaxAnswerTokens: 600})
	return NewServiceWithDeps(assembler, chunk.DefaultConfig(), engine, "gpt-4o-mini")
}

// stubOCR satisfies the OCR engine interface; plain text inputs never
// reach it.
type stubOCR struct{}

func (s *stubOCR) Recognize(png []byte, mode gosseract.PageSegMode) (string, error) {
	return "", nil
}

func textDoc(name, content string) models.RawDocument {
	return models.RawDocument{
		Filename: name,
		MimeType: "text/plain",
		Content:  []byte(content),
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	completer := &staticCompleter{
		text:  "Ministerio de Transporte",
		usage: models.Usage{TotalTokens: 50, CostUSD: 0.0005},
	}
	service := newTestService(completer)

	// Cover every topic bucket so the canned answer is found for each
	// default question.
	content := "La entidad contratante define el valor del contrato. " +
		"El cronograma fija la fecha de cierre. " +
		"Los requisitos de experiencia y años se detallan. " +
		"La afiliación a salud y pensión es obligatoria. " +
		"Los anexos y documentos con certificado se entregan firmados. "
	docs := []models.RawDocument{
		textDoc("pliego.txt", strings.Repeat(content, 5)),
	}

	analysis, err := service.Analyze(context.Background(), docs, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ProcessID)
	assert.False(t, analysis.StartedAt.IsZero())
	assert.False(t, analysis.FinishedAt.Before(analysis.StartedAt))

	assert.Equal(t, 1, analysis.Summary.FilesReceived)
	assert.Equal(t, 1, analysis.Summary.FilesProcessed)
	assert.Equal(t, len(answer.DefaultQuestions), analysis.Summary.Questions)
	require.Len(t, analysis.Answers, len(answer.DefaultQuestions))

	// Every question got the canned useful answer.
	assert.Equal(t, len(answer.DefaultQuestions), analysis.Summary.AnswersFound)
	assert.Equal(t, "gpt-4o-mini", analysis.Costs.Model)
	assert.Greater(t, analysis.Costs.TotalTokens, 0)
	assert.Greater(t, analysis.Costs.AvgCostPerQuestion, 0.0)
}

func TestAnalyzeCustomQuestionsAppended(t *testing.T) {
	service := newTestService(&staticCompleter{text: "Respuesta personalizada"})

	docs := []models.RawDocument{textDoc("doc.txt", "El valor del contrato es de $100 millones.")}
	custom := []string{"¿Cuál es la garantía exigida?"}

	analysis, err := service.Analyze(context.Background(), docs, custom)
	require.NoError(t, err)

	require.Len(t, analysis.Answers, len(answer.DefaultQuestions)+1)
	last := analysis.Answers[len(analysis.Answers)-1]
	assert.Equal(t, custom[0], last.Question.Text)
	assert.Equal(t, len(answer.DefaultQuestions)+1, last.Question.Position)
}

func TestAnalyzeAbsorbsPerDocumentFailures(t *testing.T) {
	service := newTestService(&staticCompleter{text: "Respuesta válida completa"})

	docs := []models.RawDocument{
		{Filename: "roto.png", MimeType: "image/png", Content: []byte("no es imagen")},
		textDoc("bueno.txt", "La entidad contratante es el Ministerio."),
	}

	analysis, err := service.Analyze(context.Background(), docs, nil)
	require.NoError(t, err)

	require.Len(t, analysis.Documents, 2)
	assert.NotEmpty(t, analysis.Documents[0].Error)
	assert.Empty(t, analysis.Documents[1].Error)
	assert.Equal(t, 2, analysis.Summary.FilesReceived)
	assert.Equal(t, 1, analysis.Summary.FilesProcessed)
}

func TestAnalyzeFailsWhenNothingExtracted(t *testing.T) {
	service := newTestService(&staticCompleter{text: "irrelevante"})

	docs := []models.RawDocument{
		{Filename: "roto.png", MimeType: "image/png", Content: []byte("no es imagen")},
	}

	_, err := service.Analyze(context.Background(), docs, nil)
	assert.ErrorIs(t, err, ErrNoDocumentText)
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	cfg := &config.Config{
		OpenAIModel:   "gpt-4o-mini",
		OCRLanguages:  []string{"spa", "eng"},
		MaxChunkWords: 3500,
		ChunkOverlap:  200,
		MaxChunks:     4,
		MaxWorkers:    3,
	}

	_, err := NewService(cfg)
	assert.Error(t, err)

	_, err = NewService(nil)
	assert.Error(t, err)
}

func TestAnalyzeCombinesMultipleDocuments(t *testing.T) {
	service := newTestService(&staticCompleter{text: "Respuesta combinada útil"})

	docs := []models.RawDocument{
		textDoc("uno.txt", "El valor del contrato es $50 millones."),
		textDoc("dos.txt", "El cronograma inicia en marzo."),
	}

	analysis, err := service.Analyze(context.Background(), docs, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.Summary.FilesProcessed)
	assert.GreaterOrEqual(t, analysis.Fragments, 1)
}
