package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence labels the provenance of an extracted value. The pipeline is
// pessimistic: merging two detections of the same item keeps the lower
// confidence of the two.
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceAssumed
	ConfidenceEstimated
	ConfidenceConfirmed
)

var confidenceNames = map[Confidence]string{
	ConfidenceAssumed:   "assumed",
	ConfidenceEstimated: "estimated",
	ConfidenceConfirmed: "confirmed",
}

func (c Confidence) String() string {
	if s, ok := confidenceNames[c]; ok {
		return s
	}
	return "unknown"
}

// Min returns the more pessimistic of two confidence levels.
func (c Confidence) Min(o Confidence) Confidence {
	if o < c {
		return o
	}
	return c
}

// ParseConfidence maps a raw label to a Confidence, case-insensitively.
func ParseConfidence(s string) (Confidence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return ConfidenceConfirmed, true
	case "estimated":
		return ConfidenceEstimated, true
	case "assumed":
		return ConfidenceAssumed, true
	}
	return ConfidenceUnknown, false
}

// MarshalJSON renders the canonical lowercase label.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts any casing of the three labels.
func (c *Confidence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := ParseConfidence(s)
	if !ok {
		return fmt.Errorf("unknown confidence %q", s)
	}
	*c = v
	return nil
}
