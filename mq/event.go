package mq

// QuoteEvent is published for every ranked quote response, one event per
// request, carrying the winning trade and the per-provider outcome split.
type QuoteEvent struct {
	FromChainID  uint64   `json:"from_chain_id"`
	ToChainID    uint64   `json:"to_chain_id"`
	FromToken    string   `json:"from_token"`
	ToToken      string   `json:"to_token"`
	FromAmount   string   `json:"from_amount"`
	BestProvider string   `json:"best_provider"`
	BestToAmount string   `json:"best_to_amount"`
	Succeeded    []string `json:"succeeded"`
	Failed       []string `json:"failed,omitempty"`
	LatencyMs    int64    `json:"latency_ms"`
}
