// Command takeoff watches a directory for normalized document JSON files,
// runs each through the extraction pipeline, and serves the resulting
// bills of materials over HTTP. Run summaries are published to NATS for
// downstream consumers.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/voltdraft/takeoff/engine/cache"
	"github.com/voltdraft/takeoff/engine/chunk"
	"github.com/voltdraft/takeoff/engine/domain"
	"github.com/voltdraft/takeoff/engine/extract"
	"github.com/voltdraft/takeoff/engine/takeoff"
	"github.com/voltdraft/takeoff/pkg/mid"
	"github.com/voltdraft/takeoff/pkg/natsutil"
)

// runsSubject carries one runEvent per completed document run.
const runsSubject = "takeoff.runs"

// runEvent is the published run summary: everything downstream dashboards
// need without the full bill payload.
type runEvent struct {
	RunID    string           `json:"run_id"`
	DocID    string           `json:"doc_id"`
	Chunks   int              `json:"chunks"`
	Failed   int              `json:"failed_chunks"`
	Items    int              `json:"items"`
	Flags    int              `json:"flags"`
	Usage    extract.Snapshot `json:"usage"`
	Duration time.Duration    `json:"duration_ns"`
}

func main() {
	var (
		dataDir      = flag.String("dir", "/var/lib/takeoff/docs", "directory to watch for document JSON files")
		natsURL      = flag.String("nats", "", "NATS URL for the response cache and run events (empty: memory cache only)")
		bucket       = flag.String("bucket", "takeoff-responses", "JetStream KV bucket for cached responses")
		instrPath    = flag.String("instructions", "instructions.txt", "extraction instruction set")
		model        = flag.String("model", extract.DefaultGeminiModel, "extraction model")
		addr         = flag.String("addr", ":9090", "export/metrics listen address")
		origin       = flag.String("origin", "*", "allowed CORS origin for the export surface")
		interval     = flag.Duration("interval", 30*time.Second, "directory scan interval")
		stateFile    = flag.String("state", "/var/lib/takeoff/.state.json", "processed files state")
		workers      = flag.Int("workers", 4, "concurrent capability calls per document")
		rps          = flag.Float64("rate", 2, "capability calls per second")
		costIn       = flag.Float64("cost-in", 0.30, "USD per million input tokens")
		costOut      = flag.Float64("cost-out", 2.50, "USD per million output tokens")
		chunkSize    = flag.Int("chunk-size", chunk.DefaultTargetSize, "chunk target size in runes")
		chunkOverlap = flag.Int("chunk-overlap", chunk.DefaultOverlap, "overlap between consecutive chunks in runes")
	)
	flag.Parse()

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instrText, err := os.ReadFile(*instrPath)
	if err != nil {
		log.Error("instructions read failed", "path", *instrPath, "error", err)
		os.Exit(1)
	}
	instr := extract.Instructions{
		// The instruction identity feeds cache fingerprints: editing the
		// instruction file invalidates every cached response.
		ID:   fmt.Sprintf("%x", sha256.Sum256(instrText))[:16],
		Text: string(instrText),
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Error("GEMINI_API_KEY is not set")
		os.Exit(1)
	}
	capability, err := extract.NewGemini(ctx, extract.GeminiOptions{APIKey: apiKey, Model: *model})
	if err != nil {
		log.Error("capability init failed", "error", err)
		os.Exit(1)
	}
	log.Info("extraction capability ready", "model", *model, "instructions", instr.ID)

	// Cache: memory tier always; JetStream KV behind it when NATS is
	// configured. A configured-but-unreachable cache is fatal.
	mem, err := cache.NewMemory(cache.DefaultMemorySize)
	if err != nil {
		log.Error("memory cache init failed", "error", err)
		os.Exit(1)
	}
	var store cache.Store = mem
	var nc *nats.Conn
	if *natsURL != "" {
		nc, err = natsutil.Connect(*natsURL, "takeoff")
		if err != nil {
			log.Error("nats connect failed", "url", *natsURL, "error", err)
			os.Exit(1)
		}
		defer nc.Drain()
		kv, err := cache.NewKV(ctx, nc, *bucket)
		if err != nil {
			log.Error("cache bucket unavailable", "bucket", *bucket, "error", err)
			os.Exit(1)
		}
		store = cache.NewTiered(store, kv)
		log.Info("connected to NATS", "bucket", *bucket)
	}

	usage := extract.NewUsage(extract.CostRates{InputPerMTok: *costIn, OutputPerMTok: *costOut})
	opts := extract.DefaultOptions()
	opts.Workers = *workers
	opts.RateLimit = rate.Limit(*rps)
	extractor := extract.New(capability, store, usage, opts, log)

	runner := takeoff.NewRunner(chunk.New(*chunkSize, *chunkOverlap), extractor, instr, log)

	results := newResultStore()
	go serveExports(*addr, *origin, results, log)

	processed := loadState(*stateFile)
	os.MkdirAll(*dataDir, 0o755)
	log.Info("watching for documents", "dir", *dataDir, "interval", *interval)

	scan := func() {
		entries, err := os.ReadDir(*dataDir)
		if err != nil {
			log.Error("readdir failed", "error", err)
			return
		}
		for _, e := range entries {
			if ctx.Err() != nil {
				return
			}
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name()[0] == '.' {
				continue
			}
			info, _ := e.Info()
			key := e.Name()
			if info != nil {
				key = fmt.Sprintf("%s:%d", e.Name(), info.Size())
			}
			if processed[key] {
				continue
			}

			res, err := processFile(ctx, filepath.Join(*dataDir, e.Name()), runner)
			if err != nil {
				// Retried on the next scan.
				log.Error("document failed", "file", e.Name(), "error", err)
				continue
			}
			results.put(res)
			publishRun(ctx, nc, res, log)

			processed[key] = true
			saveState(*stateFile, processed)
		}
	}

	scan()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			scan()
		}
	}
}

func processFile(ctx context.Context, path string, runner *takeoff.Runner) (*takeoff.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return runner.Run(ctx, doc)
}

func publishRun(ctx context.Context, nc *nats.Conn, res *takeoff.Result, log *slog.Logger) {
	if nc == nil {
		return
	}
	ev := runEvent{
		RunID:  res.RunID,
		DocID:  res.DocID,
		Chunks: res.Chunks,
		Failed: res.Failed,
		Items: len(res.BOM.Conductors) + len(res.BOM.Conduits) +
			len(res.BOM.Panels) + len(res.BOM.Fixtures),
		Flags:    len(res.BOM.Flags),
		Usage:    res.Usage,
		Duration: res.Duration,
	}
	if err := natsutil.Publish(ctx, nc, runsSubject, ev); err != nil {
		log.Warn("run event publish failed", "run", res.RunID, "error", err)
	}
}

// resultStore holds the latest completed run per document for the export
// surface.
type resultStore struct {
	mu   sync.RWMutex
	runs map[string]*takeoff.Result
}

func newResultStore() *resultStore {
	return &resultStore{runs: make(map[string]*takeoff.Result)}
}

func (s *resultStore) put(res *takeoff.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[res.DocID] = res
}

func (s *resultStore) get(docID string) (*takeoff.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.runs[docID]
	return res, ok
}

func (s *resultStore) ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	return ids
}

func serveExports(addr, origin string, results *resultStore, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /exports", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, results.ids())
	})
	mux.HandleFunc("GET /exports/{doc}", func(w http.ResponseWriter, r *http.Request) {
		res, ok := results.get(r.PathValue("doc"))
		if !ok {
			http.Error(w, "unknown document", http.StatusNotFound)
			return
		}
		writeJSON(w, res)
	})

	handler := mid.Chain(mux,
		mid.Recover(log),
		mid.Logger(log),
		mid.OTel("takeoff-export"),
		mid.CORS(origin),
	)
	log.Info("export server listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("export server failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func loadState(path string) map[string]bool {
	m := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	json.Unmarshal(data, &m)
	return m
}

func saveState(path string, m map[string]bool) {
	data, _ := json.Marshal(m)
	os.WriteFile(path, data, 0o644)
}
