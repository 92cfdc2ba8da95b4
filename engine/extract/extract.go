package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/voltdraft/takeoff/engine/cache"
	"github.com/voltdraft/takeoff/engine/domain"
	"github.com/voltdraft/takeoff/pkg/fn"
	"github.com/voltdraft/takeoff/pkg/resilience"
)

// Options configures the orchestrator.
type Options struct {
	// Workers bounds concurrent capability calls across a document.
	Workers int
	// Attempts is the per-chunk retry budget for transient failures.
	Attempts int
	// InitialBackoff and MaxBackoff shape the exponential backoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// CallTimeout bounds each capability attempt. Expiry counts as a
	// transient failure.
	CallTimeout time.Duration
	// RateLimit and RateBurst throttle calls to the capability.
	RateLimit rate.Limit
	RateBurst int
	// Breaker protects against sustained capability outage.
	Breaker resilience.BreakerOpts
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:        4,
		Attempts:       4,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		CallTimeout:    90 * time.Second,
		RateLimit:      rate.Limit(2),
		RateBurst:      4,
		Breaker:        resilience.DefaultBreakerOpts,
	}
}

// Service is the extraction orchestrator. It owns correctness of caching
// and concurrency: at most one in-flight capability call per cache key,
// cache write-if-absent on success, transient-only retries, and failure
// scoping to the single chunk that failed.
type Service struct {
	capability Capability
	store      cache.Store
	usage      *Usage
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	group      singleflight.Group
	opts       Options
	log        *slog.Logger
}

// New creates an orchestrator. usage is injected so callers can read
// counters after (or during) a run.
func New(capability Capability, store cache.Store, usage *Usage, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.Attempts <= 0 {
		opts.Attempts = def.Attempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = def.MaxBackoff
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = def.RateLimit
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = def.RateBurst
	}
	return &Service{
		capability: capability,
		store:      store,
		usage:      usage,
		limiter:    rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		breaker:    resilience.NewBreaker(opts.Breaker),
		opts:       opts,
		log:        log,
	}
}

// Usage returns the injected tracker for read-only snapshots.
func (s *Service) Usage() *Usage { return s.usage }

// Extract returns the raw structured response for one chunk, from the
// cache when possible. Concurrent calls for the same fingerprint share a
// single capability call.
func (s *Service) Extract(ctx context.Context, instr Instructions, ch domain.Chunk, pages []domain.PageRef) ([]byte, error) {
	key := cache.Fingerprint(instr.ID, ch.Text)

	if e, err := s.store.Get(ctx, key); err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
	} else if e != nil {
		s.usage.RecordCacheHit()
		mCache.WithLabelValues("hit").Inc()
		return e.Payload, nil
	}
	mCache.WithLabelValues("miss").Inc()

	v, err, shared := s.group.Do(key, func() (any, error) {
		// A racer may have filled the cache between the lookup above
		// and winning the flight.
		if e, err := s.store.Get(ctx, key); err == nil && e != nil {
			return []byte(e.Payload), nil
		}
		raw, err := s.call(ctx, Request{Instructions: instr, ChunkText: ch.Text, Pages: pages})
		if err != nil {
			return nil, err
		}
		if err := s.store.Put(ctx, key, cache.NewEntry(raw.Payload)); err != nil {
			// The response is still good; only durability suffered.
			s.log.Warn("cache write failed", "key", key, "error", err)
		}
		return raw.Payload, nil
	})
	if shared {
		mInFlightShared.Inc()
	}
	if err != nil {
		return nil, fmt.Errorf("extract chunk %d: %w", ch.Index, err)
	}
	return v.([]byte), nil
}

// ChunkResponse pairs a chunk with its raw response payload.
type ChunkResponse struct {
	Chunk   domain.Chunk
	Payload []byte
}

// ExtractAll runs Extract over all chunks through the bounded worker pool.
// Results are in chunk order; a failed chunk yields an error Result
// without aborting its siblings.
func (s *Service) ExtractAll(ctx context.Context, instr Instructions, doc domain.Document, chunks []domain.Chunk) []fn.Result[ChunkResponse] {
	return fn.ParMapResult(chunks, s.opts.Workers, func(ch domain.Chunk) fn.Result[ChunkResponse] {
		payload, err := s.Extract(ctx, instr, ch, doc.Pages)
		if err != nil {
			return fn.Err[ChunkResponse](err)
		}
		return fn.Ok(ChunkResponse{Chunk: ch, Payload: payload})
	})
}

// call invokes the capability with rate limiting, per-attempt timeout,
// breaker protection, and transient-only retry. Every attempt that
// reaches the capability is recorded on the usage tracker exactly once.
func (s *Service) call(ctx context.Context, req Request) (RawResponse, error) {
	retry := fn.RetryOpts{
		MaxAttempts: s.opts.Attempts,
		InitialWait: s.opts.InitialBackoff,
		MaxWait:     s.opts.MaxBackoff,
		Jitter:      true,
		RetryIf: func(err error) bool {
			return IsTransient(err) || errors.Is(err, resilience.ErrCircuitOpen)
		},
	}

	result := fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[RawResponse] {
		if err := s.limiter.Wait(ctx); err != nil {
			return fn.Err[RawResponse](err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()

		var raw RawResponse
		start := time.Now()
		err := s.breaker.Call(attemptCtx, func(ctx context.Context) error {
			var callErr error
			raw, callErr = s.capability.Invoke(ctx, req)
			return callErr
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			// Rejected before reaching the capability: not an attempt.
			return fn.Err[RawResponse](err)
		}

		mCallDuration.Observe(time.Since(start).Seconds())
		s.usage.RecordAttempt(raw.InputTokens, raw.OutputTokens, err != nil)
		mTokens.WithLabelValues("input").Add(float64(raw.InputTokens))
		mTokens.WithLabelValues("output").Add(float64(raw.OutputTokens))

		if err != nil {
			mAttempts.WithLabelValues("error").Inc()
			return fn.Err[RawResponse](err)
		}
		mAttempts.WithLabelValues("ok").Inc()
		return fn.Ok(raw)
	})
	return result.Unwrap()
}
