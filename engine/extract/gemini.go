package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiOptions configures the Gemini-backed capability.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultGeminiModel is the default extraction model.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini implements Capability on the Gemini API in JSON mode. The
// instruction text rides as the system instruction; the chunk text and
// positional metadata form the user content.
type Gemini struct {
	client *genai.Client
	opts   GeminiOptions
}

// NewGemini creates the capability client.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: client: %w", err)
	}
	return &Gemini{client: client, opts: opts}, nil
}

// Invoke sends one chunk and returns the raw JSON payload. API errors are
// classified transient (rate limit, overload, timeout) or permanent.
func (g *Gemini) Invoke(ctx context.Context, req Request) (RawResponse, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(g.opts.Temperature),
		SystemInstruction: genai.NewContentFromText(req.Instructions.Text, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.opts.Model,
		[]*genai.Content{genai.NewContentFromText(userContent(req), genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return RawResponse{}, classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return RawResponse{}, Permanent(errors.New("gemini: empty response"))
	}

	raw := RawResponse{Payload: []byte(text), Model: g.opts.Model}
	if um := resp.UsageMetadata; um != nil {
		raw.InputTokens = int64(um.PromptTokenCount)
		raw.OutputTokens = int64(um.CandidatesTokenCount)
	}
	return raw, nil
}

// userContent formats the chunk plus positional metadata for the model.
func userContent(req Request) string {
	if len(req.Pages) == 0 {
		return req.ChunkText
	}
	var b strings.Builder
	b.WriteString("Source pages: ")
	for i, p := range req.Pages {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Sheet != "" {
			fmt.Fprintf(&b, "%s (p.%d)", p.Sheet, p.Page)
		} else {
			fmt.Fprintf(&b, "p.%d", p.Page)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(req.ChunkText)
	return b.String()
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return Transient(err)
		}
		return Permanent(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}
	return Permanent(err)
}

var _ Capability = (*Gemini)(nil)
