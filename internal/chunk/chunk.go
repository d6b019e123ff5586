// Package chunk splits extracted document text into a bounded number of
// word-limited, paragraph-aware fragments with overlap at hard-split
// boundaries. Splitting is deterministic: identical input and configuration
// always produce the identical fragment sequence.
package chunk

import (
	"strings"

	"docanalyzer/pkg/models"
)

// Config tunes fragment sizing.
type Config struct {
	// MaxWords bounds each fragment's word count.
	MaxWords int

	// Overlap is the word window repeated between consecutive slices when
	// an oversized paragraph is hard-split.
	Overlap int

	// MaxFragments caps the total fragment count. Content past the last
	// retained fragment is dropped; this is a deliberate cost control, not
	// a correctness guarantee.
	MaxFragments int
}

// DefaultConfig returns the production chunking settings.
func DefaultConfig() Config {
	return Config{
		MaxWords:     3500,
		Overlap:      200,
		MaxFragments: 4,
	}
}

// Split divides text into fragments. Paragraph boundaries (double newline)
// are respected where possible; a single paragraph longer than MaxWords is
// hard-split into overlapping word windows. When paragraph-aware splitting
// degenerates, a naive sliding window over the whole word stream is the
// robustness net.
func Split(text string, cfg Config) []models.TextFragment {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	maxWords := cfg.MaxWords
	// Enlarge fragments up front when the text would otherwise overflow the
	// cap, reducing the chance of truncation.
	if len(words) > cfg.MaxFragments*maxWords {
		maxWords = len(words)/cfg.MaxFragments + 1000
	}

	chunks := splitParagraphAware(text, maxWords, cfg.Overlap)

	if len(chunks) < 2 && len(words) > maxWords {
		chunks = slidingWindow(words, maxWords, cfg.Overlap)
	}

	if len(chunks) > cfg.MaxFragments {
		chunks = chunks[:cfg.MaxFragments]
	}

	fragments := make([]models.TextFragment, len(chunks))
	for i, c := range chunks {
		fragments[i] = models.TextFragment{
			Index:     i,
			Text:      c,
			WordCount: len(strings.Fields(c)),
		}
	}
	return fragments
}

func splitParagraphAware(text string, maxWords, overlap int) []string {
	var chunks []string
	var current strings.Builder
	currentWords := 0

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraphWords := len(strings.Fields(paragraph))

		if currentWords+paragraphWords <= maxWords {
			current.WriteString(paragraph)
			current.WriteString("\n\n")
			currentWords += paragraphWords
			continue
		}

		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		current.WriteString(paragraph)
		current.WriteString("\n\n")
		currentWords = paragraphWords

		if paragraphWords > maxWords {
			chunks = append(chunks, slidingWindow(strings.Fields(paragraph), maxWords, overlap)...)
			current.Reset()
			currentWords = 0
		}
	}

	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

func slidingWindow(words []string, maxWords, overlap int) []string {
	step := maxWords - overlap
	if step < 1 {
		step = maxWords
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
