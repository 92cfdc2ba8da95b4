// Package chunk splits normalized document text into overlapping,
// size-bounded windows for the extraction capability. Boundaries avoid
// splitting delimiter-bounded records (table rows, bracketed groups): the
// splitter picks the nearest safe point at or before the target offset,
// falling back to the raw offset when none exists inside the look-back
// window.
package chunk

import (
	"iter"

	"github.com/voltdraft/takeoff/engine/domain"
)

const (
	// DefaultTargetSize is the default chunk size in runes, the same
	// token-like unit the extraction service budgets in.
	DefaultTargetSize = 6000
	// DefaultOverlap is the span shared between consecutive chunks.
	DefaultOverlap = 400
	// DefaultLookBack bounds the search for a safe split point.
	DefaultLookBack = 600
)

// Chunker produces a lazy, finite, restartable sequence of chunks covering
// a full document. Sizes are measured in runes.
type Chunker struct {
	TargetSize int
	Overlap    int
	LookBack   int
}

// New returns a Chunker with the given sizes, applying defaults for
// out-of-range values.
func New(target, overlap int) Chunker {
	c := Chunker{TargetSize: target, Overlap: overlap, LookBack: DefaultLookBack}
	return c.normalized()
}

func (c Chunker) normalized() Chunker {
	if c.TargetSize <= 0 {
		c.TargetSize = DefaultTargetSize
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap >= c.TargetSize {
		c.Overlap = c.TargetSize / 4
	}
	if c.LookBack <= 0 {
		c.LookBack = DefaultLookBack
	}
	return c
}

// Chunks returns the chunk sequence for doc. The sequence is recomputed on
// every range, so it can be iterated more than once. An empty document
// yields zero chunks.
func (c Chunker) Chunks(doc domain.Document) iter.Seq[domain.Chunk] {
	cfg := c.normalized()
	return func(yield func(domain.Chunk) bool) {
		runes := []rune(doc.Content)
		if len(runes) == 0 {
			return
		}

		// boundary is the safe end of the previous chunk; each chunk
		// starts Overlap runes before it so adjacent chunks share
		// exactly that span.
		boundary := 0
		index := 0
		for boundary < len(runes) {
			overlapPrev := min(cfg.Overlap, boundary)
			start := boundary - overlapPrev
			next := safeSplit(runes, start+cfg.TargetSize, cfg.LookBack, boundary)

			ch := domain.Chunk{
				DocID:       doc.ID,
				Index:       index,
				Start:       start,
				End:         next,
				Text:        string(runes[start:next]),
				OverlapPrev: overlapPrev,
			}
			if !yield(ch) {
				return
			}
			boundary = next
			index++
		}
	}
}

// safeSplit picks a chunk end at or before target. A position is safe when
// it sits on a line boundary with no unclosed bracket: that keeps table
// rows and bracketed record groups whole. Falls back to the raw target
// offset when nothing safe exists within lookback runes, and never returns
// a position at or before floor (forward progress).
func safeSplit(runes []rune, target, lookback, floor int) int {
	if target >= len(runes) {
		return len(runes)
	}
	limit := max(target-lookback, floor+1)

	// Bracket depth at each candidate, measured from floor where the
	// previous boundary was known balanced.
	depth := 0
	depths := make([]int, target-floor+1)
	for i := floor; i < target; i++ {
		switch runes[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
		depths[i-floor+1] = depth
	}

	for j := target; j >= limit; j-- {
		if runes[j-1] == '\n' && depths[j-floor] == 0 {
			return j
		}
	}
	return target
}
