package extract

import "sync/atomic"

// CostRates prices capability usage in USD per million tokens.
type CostRates struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Usage is the injected call/cost counter. Every capability attempt,
// successful or failed, is recorded exactly once. All updates are atomic;
// callers only ever see it through Snapshot.
type Usage struct {
	rates CostRates

	attempts     atomic.Int64
	failures     atomic.Int64
	cacheHits    atomic.Int64
	inputTokens  atomic.Int64
	outputTokens atomic.Int64
	costMicroUSD atomic.Int64
}

// NewUsage creates a tracker with the given cost rates.
func NewUsage(rates CostRates) *Usage {
	return &Usage{rates: rates}
}

// RecordAttempt counts one capability attempt and its token usage.
func (u *Usage) RecordAttempt(inputTokens, outputTokens int64, failed bool) {
	u.attempts.Add(1)
	if failed {
		u.failures.Add(1)
	}
	u.inputTokens.Add(inputTokens)
	u.outputTokens.Add(outputTokens)
	micro := float64(inputTokens)*u.rates.InputPerMTok + float64(outputTokens)*u.rates.OutputPerMTok
	u.costMicroUSD.Add(int64(micro))
}

// RecordCacheHit counts a request served from the cache without any
// capability attempt.
func (u *Usage) RecordCacheHit() {
	u.cacheHits.Add(1)
}

// Snapshot is a read-only view of the counters.
type Snapshot struct {
	Attempts     int64   `json:"attempts"`
	Failures     int64   `json:"failures"`
	CacheHits    int64   `json:"cache_hits"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Snapshot returns the current counter values.
func (u *Usage) Snapshot() Snapshot {
	return Snapshot{
		Attempts:     u.attempts.Load(),
		Failures:     u.failures.Load(),
		CacheHits:    u.cacheHits.Load(),
		InputTokens:  u.inputTokens.Load(),
		OutputTokens: u.outputTokens.Load(),
		CostUSD:      float64(u.costMicroUSD.Load()) / 1e6,
	}
}
