package answer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"docanalyzer/internal/llm"
	"docanalyzer/internal/logger"
	"docanalyzer/internal/ratelimit"
	"docanalyzer/pkg/models"
)

// SentinelNoAnswer is returned when no fragment yields a usable answer.
const SentinelNoAnswer = "No se encontró información específica para esta pregunta"

// nonAnswerPhrases mark model output that admits it found nothing. Any
// answer containing one of these is discarded.
var nonAnswerPhrases = []string{
	"no encontrado",
	"no se encontró",
	"no aparece",
	"no está disponible",
	"no mencionado",
	"no especificado",
	"sin información",
}

const promptTemplate = `Eres un asistente experto en análisis de documentos de contratación pública colombiana.

INSTRUCCIONES ESTRICTAS:
1. Responde ÚNICAMENTE con la información solicitada, sin frases introductorias.
2. Si la información no está en el texto, responde exactamente: "No encontrado".
3. No inventes ni infieras datos que no estén escritos en el documento.
4. Copia cifras, fechas y nombres tal como aparecen en el texto.

TEXTO DEL DOCUMENTO:
%s

PREGUNTA: %s

RESPUESTA:`

// Thresholds that shift the inter-question jitter to a slower band when
// the usage window is close to the provider limits.
const (
	highLoadRequests = 300
	highLoadTokens   = 100000
)

// Completer abstracts the chat completion call so the engine can be
// tested without network access.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (*llm.Result, error)
}

// EngineConfig bounds the answering concurrency and output size.
type EngineConfig struct {
	Workers         int
	MaxAnswerTokens int
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers:         3,
		MaxAnswerTokens: 600,
	}
}

// Engine answers a set of questions against the document fragments using
// a bounded worker pool.
type Engine struct {
	completer Completer
	tracker   *ratelimit.Tracker
	config    EngineConfig
	sleep     func(time.Duration)
	log       zerolog.Logger
}

// NewEngine creates an answering engine. The tracker may be shared with
// the underlying caller so jitter reacts to real usage.
func NewEngine(completer Completer, tracker *ratelimit.Tracker, config EngineConfig) *Engine {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Engine{
		completer: completer,
		tracker:   tracker,
		config:    config,
		sleep:     time.Sleep,
		log:       logger.WithComponent("answer"),
	}
}

// AnswerAll answers every question concurrently and returns the records
// in question order.
func (e *Engine) AnswerAll(ctx context.Context, fragments []models.TextFragment, questions []models.Question) ([]models.AnswerRecord, error) {
	records := make([]models.AnswerRecord, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for i, question := range questions {
		g.Go(func() error {
			// Spacing only matters when a shared provider budget exists.
			if i > 0 && e.tracker != nil {
				e.sleep(e.jitter())
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			records[i] = e.answerOne(gctx, fragments, question)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// answerOne queries every relevant fragment and merges the candidate
// answers. It never fails the batch: call errors surface inside the
// record.
func (e *Engine) answerOne(ctx context.Context, fragments []models.TextFragment, question models.Question) models.AnswerRecord {
	relevant := SelectRelevant(fragments, question)

	record := models.AnswerRecord{
		Question:            question,
		FragmentsConsidered: len(relevant),
	}

	var (
		candidates []string
		usage      models.Usage
		lastKind   llm.ErrorKind
		failures   int
	)

	for _, fragment := range relevant {
		prompt := fmt.Sprintf(promptTemplate, fragment.Text, question.Text)

		result, err := e.completer.Complete(ctx, prompt, e.config.MaxAnswerTokens, 0)
		if err != nil {
			failures++
			var callErr *llm.CallError
			if errors.As(err, &callErr) {
				lastKind = callErr.Kind
			} else {
				lastKind = llm.ErrKindUnknown
			}
			e.log.Warn().Err(err).
				Int("question", question.Position).
				Int("fragment", fragment.Index).
				Msg("fragment query failed")
			continue
		}

		usage.Add(result.Usage)
		if answer := strings.TrimSpace(result.Text); isUsableAnswer(answer) {
			candidates = append(candidates, answer)
		}
	}

	record.TokensUsed = usage.TotalTokens
	record.CostUSD = usage.CostUSD

	switch {
	case len(candidates) > 0:
		record.Answer = selectFinalAnswer(candidates)
		record.Found = true
	case len(relevant) > 0 && failures == len(relevant):
		record.Answer = "Error en análisis: " + string(lastKind)
		record.ErrorKind = string(lastKind)
	default:
		record.Answer = SentinelNoAnswer
	}
	return record
}

// jitter spaces out question starts so a burst of workers does not hit
// the API simultaneously. Near the usage limits the band widens.
func (e *Engine) jitter() time.Duration {
	low, high := 1.0, 2.5
	if e.tracker != nil {
		requests, tokens := e.tracker.Snapshot()
		if requests > highLoadRequests || tokens > highLoadTokens {
			low, high = 3.0, 5.0
		}
	}
	seconds := low + rand.Float64()*(high-low)
	return time.Duration(seconds * float64(time.Second))
}

// isUsableAnswer rejects empty, trivial, and explicit non-answers.
func isUsableAnswer(answer string) bool {
	if len(answer) <= 3 {
		return false
	}
	lower := strings.ToLower(answer)
	for _, phrase := range nonAnswerPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// selectFinalAnswer merges candidate answers from different fragments:
// longest first, answers contained in an already kept one are dropped,
// and the top two survivors are joined.
func selectFinalAnswer(candidates []string) string {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	var unique []string
	for _, candidate := range sorted {
		duplicate := false
		for _, kept := range unique {
			keptLower := strings.ToLower(kept)
			candLower := strings.ToLower(candidate)
			if strings.Contains(keptLower, candLower) || strings.Contains(candLower, keptLower) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, candidate)
		}
	}

	if len(unique) > 1 {
		return strings.Join(unique[:2], " | ")
	}
	return unique[0]
}
