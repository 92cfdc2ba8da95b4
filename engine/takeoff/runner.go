// Package takeoff composes the full document pipeline: chunk, extract,
// validate, merge, derate. It owns failure scoping: a chunk that fails
// terminally becomes a document-level flag and every other chunk still
// contributes to the bill.
package takeoff

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/voltdraft/takeoff/engine/chunk"
	"github.com/voltdraft/takeoff/engine/derate"
	"github.com/voltdraft/takeoff/engine/domain"
	"github.com/voltdraft/takeoff/engine/extract"
	"github.com/voltdraft/takeoff/engine/merge"
	"github.com/voltdraft/takeoff/engine/validate"
	"github.com/voltdraft/takeoff/pkg/fn"
)

// validateStage parses one chunk's raw response into typed records,
// traced per chunk.
var validateStage = fn.Traced("takeoff.validate",
	func(_ context.Context, resp extract.ChunkResponse) fn.Result[domain.ExtractionResult] {
		return fn.FromPair(validate.Validate(resp.Chunk.Index, resp.Payload))
	})

// Result is one completed document run.
type Result struct {
	RunID    string            `json:"run_id"`
	DocID    string            `json:"doc_id"`
	Kind     domain.SourceKind `json:"kind"`
	Chunks   int               `json:"chunks"`
	Failed   int               `json:"failed_chunks"`
	BOM      domain.Export     `json:"bom"`
	Usage    extract.Snapshot  `json:"usage"`
	Duration time.Duration     `json:"duration_ns"`
}

// Runner drives documents through the pipeline.
type Runner struct {
	chunker   chunk.Chunker
	extractor *extract.Service
	instr     extract.Instructions
	log       *slog.Logger
}

// NewRunner wires a runner. The instruction set identity participates in
// cache fingerprints, so changing instructions never replays stale
// responses.
func NewRunner(chunker chunk.Chunker, extractor *extract.Service, instr extract.Instructions, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{chunker: chunker, extractor: extractor, instr: instr, log: log}
}

// Run processes one document end to end. It fails outright only when the
// document is empty or the context is done; per-chunk failures degrade to
// document flags on the exported bill.
func (r *Runner) Run(ctx context.Context, doc domain.Document) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := r.log.With("run", runID, "doc", doc.ID)

	if doc.Kind == "" {
		doc.Kind = domain.SourceOther
	} else if !domain.ValidSourceKinds[doc.Kind] {
		return nil, fmt.Errorf("document %s: %w: %q", doc.ID, domain.ErrUnknownSourceKind, doc.Kind)
	}
	chunks := slices.Collect(r.chunker.Chunks(doc))
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: %w", doc.ID, domain.ErrEmptyDocument)
	}
	log.Info("run started", "kind", doc.Kind, "chunks", len(chunks))

	responses := r.extractor.ExtractAll(ctx, r.instr, doc, chunks)

	bom := domain.NewBOM()
	failed := 0
	for i, res := range responses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := res.Unwrap()
		if err != nil {
			failed++
			log.Warn("chunk failed", "chunk", chunks[i].Index, "error", err)
			bom.Flags = append(bom.Flags, chunkFlag(chunks[i].Index, err))
			continue
		}
		parsed, err := validateStage(ctx, payload).Unwrap()
		if err != nil {
			failed++
			log.Warn("chunk response malformed", "chunk", payload.Chunk.Index, "error", err)
			bom.Flags = append(bom.Flags, chunkFlag(payload.Chunk.Index, err))
			continue
		}
		bom = merge.Merge(bom, parsed)
	}
	bom = derate.Apply(bom)

	out := &Result{
		RunID:    runID,
		DocID:    doc.ID,
		Kind:     doc.Kind,
		Chunks:   len(chunks),
		Failed:   failed,
		BOM:      bom.Export(),
		Usage:    r.extractor.Usage().Snapshot(),
		Duration: time.Since(start),
	}
	log.Info("run finished",
		"chunks", out.Chunks, "failed", out.Failed,
		"conductors", len(out.BOM.Conductors), "conduits", len(out.BOM.Conduits),
		"panels", len(out.BOM.Panels), "fixtures", len(out.BOM.Fixtures),
		"duration", out.Duration)
	return out, nil
}

// chunkFlag records a terminally failed chunk on the document itself so
// the exported bill shows the gap.
func chunkFlag(index int, err error) domain.Flag {
	return domain.Flag{
		Chunk:    index,
		Item:     "document",
		Field:    "chunk",
		Value:    err.Error(),
		Severity: domain.SeverityHigh,
		Action:   "chunk produced no extraction; review the source span manually",
	}
}
