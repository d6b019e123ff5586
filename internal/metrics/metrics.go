// Package metrics exposes process-wide Prometheus counters for the
// extraction and answering pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LLMRequests counts completion calls by terminal outcome
	// (success, rate_limit, timeout, unknown).
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_llm_requests_total",
			Help: "Total number of LLM completion calls by outcome",
		},
		[]string{"outcome"},
	)

	// LLMTokens counts tokens consumed by direction (prompt, completion).
	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_llm_tokens_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"direction"},
	)

	// LLMCostUSD accumulates the estimated spend across all calls.
	LLMCostUSD = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docanalyzer_llm_cost_usd_total",
			Help: "Estimated cumulative LLM cost in USD",
		},
	)

	// RateLimitPauses counts proactive pauses by trigger (requests, tokens).
	RateLimitPauses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_rate_limit_pauses_total",
			Help: "Total number of proactive rate-limit pauses",
		},
		[]string{"reason"},
	)

	// DocumentsProcessed counts assembled documents by extraction method.
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docanalyzer_documents_processed_total",
			Help: "Total number of documents processed by extraction method",
		},
		[]string{"method"},
	)
)
