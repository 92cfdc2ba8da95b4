// Package domain defines the core types that flow through the takeoff
// pipeline: source documents, chunks, extracted line items, confidence
// labels, assumption flags, and the accumulating bill of materials.
package domain

// SourceKind classifies the document a chunk came from.
type SourceKind string

const (
	SourcePanelSchedule SourceKind = "panel_schedule"
	SourceOneLine       SourceKind = "one_line"
	SourceMotorList     SourceKind = "motor_list"
	SourceScopeOfWork   SourceKind = "scope_of_work"
	SourceOther         SourceKind = "other"
)

// ValidSourceKinds is the set of recognised document kinds.
var ValidSourceKinds = map[SourceKind]bool{
	SourcePanelSchedule: true, SourceOneLine: true, SourceMotorList: true,
	SourceScopeOfWork: true, SourceOther: true,
}

// PageRef is positional metadata produced by the (external) ingestion step.
type PageRef struct {
	Page  int    `json:"page"`
	Sheet string `json:"sheet,omitempty"`
}

// Document is normalized text handed back by a document reader.
// Immutable once produced; the pipeline never mutates it.
type Document struct {
	ID      string     `json:"id"`
	Kind    SourceKind `json:"kind"`
	Content string     `json:"content"`
	Pages   []PageRef  `json:"pages,omitempty"`
}

// Chunk is a bounded window of a Document sent to the extraction
// capability. Start and End are rune offsets into Document.Content.
// OverlapPrev is the number of runes shared with the previous chunk;
// consumers must tolerate seeing the same logical item in two adjacent
// chunks.
type Chunk struct {
	DocID       string `json:"doc_id"`
	Index       int    `json:"index"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Text        string `json:"text"`
	OverlapPrev int    `json:"overlap_prev"`
}
