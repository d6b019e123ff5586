package models

import "time"

// Question is one natural-language question to answer against the documents.
type Question struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Usage holds token accounting for one or more LLM calls.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.CostUSD += other.CostUSD
}

// AnswerRecord is the final result for one question. Exactly one of three
// shapes: a concrete answer (Found=true), the canonical not-found sentinel
// (Found=false, ErrorKind empty), or a typed error string (Found=false,
// ErrorKind set). Never mutated after creation.
type AnswerRecord struct {
	Question            Question `json:"question"`
	Answer              string   `json:"answer"`
	Found               bool     `json:"found"`
	ErrorKind           string   `json:"error_kind,omitempty"`
	TokensUsed          int      `json:"tokens_used"`
	CostUSD             float64  `json:"cost_usd"`
	FragmentsConsidered int      `json:"fragments_considered"`
}

// DocumentResult pairs a document's extracted text with its failure state.
type DocumentResult struct {
	ExtractedText
	Error string `json:"error,omitempty"`
}

// Summary aggregates counts over one analysis run.
type Summary struct {
	FilesReceived  int `json:"files_received"`
	FilesProcessed int `json:"files_processed"`
	CharsExtracted int `json:"chars_extracted"`
	Questions      int `json:"questions"`
	AnswersFound   int `json:"answers_found"`
}

// CostSummary aggregates LLM spend over one analysis run.
type CostSummary struct {
	TotalTokens        int     `json:"total_tokens"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	Model              string  `json:"model"`
	AvgCostPerQuestion float64 `json:"avg_cost_per_question"`
}

// Analysis is the full result of processing a batch of documents against a
// question list. Answers is always index-aligned with the input questions.
type Analysis struct {
	ProcessID  string           `json:"process_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Documents  []DocumentResult `json:"documents"`
	Fragments  int              `json:"fragments"`
	Answers    []AnswerRecord   `json:"answers"`
	Summary    Summary          `json:"summary"`
	Costs      CostSummary      `json:"costs"`
}
