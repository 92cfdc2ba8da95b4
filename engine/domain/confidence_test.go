package domain

import (
	"encoding/json"
	"testing"
)

func TestConfidenceOrdering(t *testing.T) {
	if !(ConfidenceConfirmed > ConfidenceEstimated && ConfidenceEstimated > ConfidenceAssumed) {
		t.Fatal("confidence ranks out of order")
	}
	if got := ConfidenceConfirmed.Min(ConfidenceAssumed); got != ConfidenceAssumed {
		t.Fatalf("Min = %v, want assumed", got)
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in   string
		want Confidence
		ok   bool
	}{
		{"confirmed", ConfidenceConfirmed, true},
		{"Estimated", ConfidenceEstimated, true},
		{"ASSUMED", ConfidenceAssumed, true},
		{"certain", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseConfidence(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("ParseConfidence(%q) = (%v, %t), want (%v, %t)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestConfidenceJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(ConfidenceEstimated)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"estimated"` {
		t.Fatalf("marshaled = %s", data)
	}
	var c Confidence
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	if c != ConfidenceEstimated {
		t.Fatalf("round trip = %v", c)
	}
}

func TestExportDeterministicOrder(t *testing.T) {
	bom := NewBOM()
	bom.Conductors["b|THHN|600"] = Conductor{Gauge: "b", Insulation: "THHN", Voltage: "600"}
	bom.Conductors["a|THHN|600"] = Conductor{Gauge: "a", Insulation: "THHN", Voltage: "600"}
	bom.Flags = []Flag{
		{Chunk: 2, Item: "document"},
		{Chunk: 0, Item: "document"},
	}

	ex := bom.Export()
	if ex.Conductors[0].Gauge != "a" || ex.Conductors[1].Gauge != "b" {
		t.Fatalf("conductors unsorted: %+v", ex.Conductors)
	}
	if ex.Flags[0].Chunk != 0 {
		t.Fatalf("flags unsorted: %+v", ex.Flags)
	}
}
