package takeoff

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voltdraft/takeoff/engine/cache"
	"github.com/voltdraft/takeoff/engine/chunk"
	"github.com/voltdraft/takeoff/engine/domain"
	"github.com/voltdraft/takeoff/engine/extract"
)

// scriptedCapability answers by substring match on the chunk text.
type scriptedCapability struct {
	responses map[string]string
}

func (s *scriptedCapability) Invoke(_ context.Context, req extract.Request) (extract.RawResponse, error) {
	for marker, payload := range s.responses {
		if strings.Contains(req.ChunkText, marker) {
			if payload == "" {
				return extract.RawResponse{}, extract.Permanent(errors.New("extraction refused"))
			}
			return extract.RawResponse{Payload: []byte(payload), InputTokens: 100, OutputTokens: 50}, nil
		}
	}
	return extract.RawResponse{Payload: []byte(`{}`)}, nil
}

func newTestRunner(t *testing.T, fake extract.Capability) *Runner {
	t.Helper()
	store, err := cache.NewMemory(64)
	if err != nil {
		t.Fatal(err)
	}
	usage := extract.NewUsage(extract.CostRates{InputPerMTok: 1, OutputPerMTok: 1})
	opts := extract.DefaultOptions()
	opts.RateLimit = 10000
	opts.RateBurst = 10000
	svc := extract.New(fake, store, usage, opts, nil)
	return NewRunner(chunk.New(60, 0), svc, extract.Instructions{ID: "i", Text: "extract"}, nil)
}

const conductorPayload = `{"conductors": [{
	"gauge": "12", "material": "Cu", "insulation": "THHN", "voltage": "600",
	"length_ft": 100, "load_amps": 16, "confidence": "confirmed"
}]}`

func line(marker string) string {
	return marker + strings.Repeat("x", 50-len(marker)) + "\n"
}

func TestRunSingleDocument(t *testing.T) {
	fake := &scriptedCapability{responses: map[string]string{"WIRE": conductorPayload}}
	runner := newTestRunner(t, fake)

	doc := domain.Document{ID: "doc-1", Kind: domain.SourcePanelSchedule, Content: line("WIRE")}
	res, err := runner.Run(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.BOM.Conductors) != 1 {
		t.Fatalf("conductors = %d, want 1", len(res.BOM.Conductors))
	}
	c := res.BOM.Conductors[0]
	if c.Derating == nil || c.Derating.BaseAmps != 20 {
		t.Fatalf("derating not applied: %+v", c.Derating)
	}
	if res.Usage.Attempts != 1 {
		t.Fatalf("usage attempts = %d, want 1", res.Usage.Attempts)
	}
	if res.RunID == "" || res.DocID != "doc-1" {
		t.Fatalf("identity fields: %+v", res)
	}
}

func TestRunEmptyDocument(t *testing.T) {
	runner := newTestRunner(t, &scriptedCapability{})
	_, err := runner.Run(context.Background(), domain.Document{ID: "empty"})
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestRunUnknownSourceKind(t *testing.T) {
	runner := newTestRunner(t, &scriptedCapability{})
	doc := domain.Document{ID: "doc", Kind: "blueprint", Content: line("WIRE")}
	_, err := runner.Run(context.Background(), doc)
	if !errors.Is(err, domain.ErrUnknownSourceKind) {
		t.Fatalf("err = %v, want ErrUnknownSourceKind", err)
	}
}

func TestRunDefaultsKindToOther(t *testing.T) {
	fake := &scriptedCapability{responses: map[string]string{"WIRE": conductorPayload}}
	runner := newTestRunner(t, fake)
	res, err := runner.Run(context.Background(), domain.Document{ID: "doc", Content: line("WIRE")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != domain.SourceOther {
		t.Fatalf("kind = %q, want %q", res.Kind, domain.SourceOther)
	}
}

func TestChunkFailureBecomesDocumentFlag(t *testing.T) {
	fake := &scriptedCapability{responses: map[string]string{
		"WIRE": conductorPayload,
		"BAD":  "", // permanent extraction failure
	}}
	runner := newTestRunner(t, fake)

	doc := domain.Document{ID: "doc-2", Content: line("WIRE") + line("BAD")}
	res, err := runner.Run(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v, want 2 chunks with 1 failure", res)
	}
	if len(res.BOM.Conductors) != 1 {
		t.Fatal("healthy chunk's items missing from the bill")
	}
	var flagged bool
	for _, f := range res.BOM.Flags {
		if f.Item == "document" && f.Severity == domain.SeverityHigh {
			flagged = true
		}
	}
	if !flagged {
		t.Fatalf("missing document-level flag, got %+v", res.BOM.Flags)
	}
}

func TestMalformedResponseBecomesDocumentFlag(t *testing.T) {
	fake := &scriptedCapability{responses: map[string]string{"WIRE": `{"conductors": [`}}
	runner := newTestRunner(t, fake)

	res, err := runner.Run(context.Background(), domain.Document{ID: "doc-3", Kind: domain.SourceOther, Content: line("WIRE")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || len(res.BOM.Flags) != 1 {
		t.Fatalf("result = %+v, want one flagged failure", res)
	}
	if !strings.Contains(res.BOM.Flags[0].Value, "not well-formed") {
		t.Fatalf("flag value = %q", res.BOM.Flags[0].Value)
	}
}

func TestRepeatedItemsAcrossChunksMerge(t *testing.T) {
	fake := &scriptedCapability{responses: map[string]string{
		"WIRE": conductorPayload,
		"MORE": conductorPayload,
	}}
	runner := newTestRunner(t, fake)

	doc := domain.Document{ID: "doc-4", Content: line("WIRE") + line("MORE")}
	res, err := runner.Run(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.BOM.Conductors) != 1 {
		t.Fatalf("conductors = %d, want 1 merged line", len(res.BOM.Conductors))
	}
	if got := res.BOM.Conductors[0].LengthFt; got != 200 {
		t.Fatalf("length = %g, want 200 summed across chunks", got)
	}
}
