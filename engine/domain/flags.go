package domain

import "encoding/json"

// Severity ranks how much an assumption or rejection matters downstream.
// Fields feeding the derating math (gauge, material, voltage) are high;
// descriptive text is low.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

var severityNames = map[Severity]string{
	SeverityLow:    "low",
	SeverityMedium: "medium",
	SeverityHigh:   "high",
}

func (s Severity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return "low"
}

// MarshalJSON renders the canonical lowercase label.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Flag records an assumed, rejected, or non-compliant value. Flags are
// always attached to the item (or document) whose value triggered them
// and are never silently dropped.
type Flag struct {
	Chunk    int      `json:"chunk"`
	Item     string   `json:"item"`
	Field    string   `json:"field"`
	Value    string   `json:"value,omitempty"`
	Severity Severity `json:"severity"`
	Action   string   `json:"action,omitempty"`
}
