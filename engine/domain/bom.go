package domain

import (
	"slices"
	"strings"
)

// BillOfMaterials is the accumulating merge target: the current best-known
// item per (item type, merge key), plus every flag raised along the way.
type BillOfMaterials struct {
	Conductors map[string]Conductor
	Conduits   map[string]Conduit
	Panels     map[string]Panel
	Fixtures   map[string]Fixture
	Flags      []Flag // document-level flags (chunk failures etc.)
}

// NewBOM returns an empty bill of materials ready to accumulate into.
func NewBOM() BillOfMaterials {
	return BillOfMaterials{
		Conductors: make(map[string]Conductor),
		Conduits:   make(map[string]Conduit),
		Panels:     make(map[string]Panel),
		Fixtures:   make(map[string]Fixture),
	}
}

// ExportedPanel is a Panel with its circuits flattened to an ordered list.
type ExportedPanel struct {
	Panel
	Circuits []Circuit `json:"circuits,omitempty"`
}

// Export is the only surface the rendering layer consumes: per item type an
// ordered list of records carrying every canonical field plus confidence
// plus attached flags. Ordering is canonical (sorted by merge key, flags
// sorted by origin) so that merging the same result set in any order
// exports identical bytes.
type Export struct {
	Conductors []Conductor     `json:"conductors"`
	Conduits   []Conduit       `json:"conduits"`
	Panels     []ExportedPanel `json:"panels"`
	Fixtures   []Fixture       `json:"fixtures"`
	Flags      []Flag          `json:"flags"`
}

// Export flattens the bill of materials into its canonical ordered form.
func (b BillOfMaterials) Export() Export {
	out := Export{
		Conductors: make([]Conductor, 0, len(b.Conductors)),
		Conduits:   make([]Conduit, 0, len(b.Conduits)),
		Panels:     make([]ExportedPanel, 0, len(b.Panels)),
		Fixtures:   make([]Fixture, 0, len(b.Fixtures)),
		Flags:      sortedFlags(b.Flags),
	}
	for _, k := range sortedKeys(b.Conductors) {
		c := b.Conductors[k]
		c.Flags = sortedFlags(c.Flags)
		out.Conductors = append(out.Conductors, c)
	}
	for _, k := range sortedKeys(b.Conduits) {
		c := b.Conduits[k]
		c.Flags = sortedFlags(c.Flags)
		out.Conduits = append(out.Conduits, c)
	}
	for _, k := range sortedKeys(b.Panels) {
		p := b.Panels[k]
		p.Flags = sortedFlags(p.Flags)
		ep := ExportedPanel{Panel: p}
		for _, ck := range sortedKeys(p.Circuits) {
			c := p.Circuits[ck]
			c.Flags = sortedFlags(c.Flags)
			ep.Circuits = append(ep.Circuits, c)
		}
		out.Panels = append(out.Panels, ep)
	}
	for _, k := range sortedKeys(b.Fixtures) {
		f := b.Fixtures[k]
		f.Flags = sortedFlags(f.Flags)
		out.Fixtures = append(out.Fixtures, f)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// sortedFlags orders flags by origin so that concatenation order during
// merging does not leak into the export.
func sortedFlags(flags []Flag) []Flag {
	if len(flags) == 0 {
		return nil
	}
	out := slices.Clone(flags)
	slices.SortStableFunc(out, func(a, b Flag) int {
		if a.Chunk != b.Chunk {
			return a.Chunk - b.Chunk
		}
		if c := strings.Compare(a.Item, b.Item); c != 0 {
			return c
		}
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		if c := strings.Compare(a.Value, b.Value); c != 0 {
			return c
		}
		return int(a.Severity) - int(b.Severity)
	})
	return out
}
