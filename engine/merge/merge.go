// Package merge folds per-chunk extraction results into a bill of
// materials. The fold is commutative and associative: quantities add,
// descriptive fields come from the best-ranked detection, confidence is
// the pessimistic minimum, and flags accumulate. Any arrival order of
// the same result set yields an identical bill.
package merge

import (
	"fmt"

	"github.com/voltdraft/takeoff/engine/domain"
)

// Merge folds one chunk's validated records into the bill. The bill is
// mutated in place and returned for chaining.
func Merge(bom domain.BillOfMaterials, res domain.ExtractionResult) domain.BillOfMaterials {
	for _, c := range res.Conductors {
		c = tagConductor(c)
		k := c.Key()
		if prev, ok := bom.Conductors[k]; ok {
			c = mergeConductor(prev, c)
		}
		bom.Conductors[k] = c
	}
	for _, c := range res.Conduits {
		c = tagConduit(c)
		k := c.Key()
		if prev, ok := bom.Conduits[k]; ok {
			c = mergeConduit(prev, c)
		}
		bom.Conduits[k] = c
	}
	for _, p := range res.Panels {
		p = tagPanel(p)
		k := p.Key()
		if prev, ok := bom.Panels[k]; ok {
			p = mergePanel(prev, p)
		}
		bom.Panels[k] = p
	}
	for _, f := range res.Fixtures {
		f = tagFixture(f)
		k := f.Key()
		if prev, ok := bom.Fixtures[k]; ok {
			f = mergeFixture(prev, f)
		}
		bom.Fixtures[k] = f
	}
	return bom
}

// beats is the total order deciding which detection supplies the
// non-summable fields of a merged item: higher confidence wins, then the
// earlier chunk, then a canonical rendering of the fields themselves so
// that equal-ranked detections resolve identically regardless of which
// side of the merge they arrive on.
func beats(aConf domain.Confidence, aSeen int, aTie string,
	bConf domain.Confidence, bSeen int, bTie string) bool {
	if aConf != bConf {
		return aConf > bConf
	}
	if aSeen != bSeen {
		return aSeen < bSeen
	}
	return aTie < bTie
}

// tag* stamp a freshly validated item with the provenance of its own
// field values. Already-merged items pass through unchanged.

func tagConductor(c domain.Conductor) domain.Conductor {
	if c.ValueConf == domain.ConfidenceUnknown {
		c.ValueConf, c.ValueSeen = c.Confidence, c.SeenAt
	}
	return c
}

func tagConduit(c domain.Conduit) domain.Conduit {
	if c.ValueConf == domain.ConfidenceUnknown {
		c.ValueConf, c.ValueSeen = c.Confidence, c.SeenAt
	}
	return c
}

func tagPanel(p domain.Panel) domain.Panel {
	if p.ValueConf == domain.ConfidenceUnknown {
		p.ValueConf, p.ValueSeen = p.Confidence, p.SeenAt
	}
	for n, ckt := range p.Circuits {
		if ckt.ValueConf == domain.ConfidenceUnknown {
			ckt.ValueConf, ckt.ValueSeen = ckt.Confidence, ckt.SeenAt
			p.Circuits[n] = ckt
		}
	}
	return p
}

func tagFixture(f domain.Fixture) domain.Fixture {
	if f.ValueConf == domain.ConfidenceUnknown {
		f.ValueConf, f.ValueSeen = f.Confidence, f.SeenAt
	}
	return f
}

func conductorTie(c domain.Conductor) string {
	return fmt.Sprintf("%s|%g|%t|%g|%d", c.Material, c.LoadAmps, c.Continuous, c.AmbientC, c.Bundled)
}

func mergeConductor(a, b domain.Conductor) domain.Conductor {
	out := a
	if beats(b.ValueConf, b.ValueSeen, conductorTie(b), a.ValueConf, a.ValueSeen, conductorTie(a)) {
		out = b
	}
	out.LengthFt = a.LengthFt + b.LengthFt
	out.Count = a.Count + b.Count
	out.Confidence = a.Confidence.Min(b.Confidence)
	out.SeenAt = min(a.SeenAt, b.SeenAt)
	out.Flags = joinFlags(a.Flags, b.Flags)
	out.Derating = nil // inputs changed; recomputed downstream
	return out
}

func conduitTie(c domain.Conduit) string { return "" }

func mergeConduit(a, b domain.Conduit) domain.Conduit {
	out := a
	if beats(b.ValueConf, b.ValueSeen, conduitTie(b), a.ValueConf, a.ValueSeen, conduitTie(a)) {
		out = b
	}
	out.LengthFt = a.LengthFt + b.LengthFt
	out.Confidence = a.Confidence.Min(b.Confidence)
	out.SeenAt = min(a.SeenAt, b.SeenAt)
	out.Flags = joinFlags(a.Flags, b.Flags)
	return out
}

func circuitTie(c domain.Circuit) string {
	return fmt.Sprintf("%s|%g|%d", c.Description, c.BreakerAmps, c.Poles)
}

func mergeCircuit(a, b domain.Circuit) domain.Circuit {
	out := a
	if beats(b.ValueConf, b.ValueSeen, circuitTie(b), a.ValueConf, a.ValueSeen, circuitTie(a)) {
		out = b
	}
	out.Confidence = a.Confidence.Min(b.Confidence)
	out.SeenAt = min(a.SeenAt, b.SeenAt)
	out.Flags = joinFlags(a.Flags, b.Flags)
	return out
}

func panelTie(p domain.Panel) string {
	return fmt.Sprintf("%d|%g", p.Phases, p.MainAmps)
}

func mergePanel(a, b domain.Panel) domain.Panel {
	out := a
	if beats(b.ValueConf, b.ValueSeen, panelTie(b), a.ValueConf, a.ValueSeen, panelTie(a)) {
		out = b
	}
	out.Confidence = a.Confidence.Min(b.Confidence)
	out.SeenAt = min(a.SeenAt, b.SeenAt)
	out.Flags = joinFlags(a.Flags, b.Flags)

	// Circuits union by number; collisions merge recursively.
	circuits := make(map[string]domain.Circuit, len(a.Circuits)+len(b.Circuits))
	for n, ckt := range a.Circuits {
		circuits[n] = ckt
	}
	for n, ckt := range b.Circuits {
		if prev, ok := circuits[n]; ok {
			ckt = mergeCircuit(prev, ckt)
		}
		circuits[n] = ckt
	}
	out.Circuits = circuits
	return out
}

func fixtureTie(f domain.Fixture) string { return "" }

func mergeFixture(a, b domain.Fixture) domain.Fixture {
	out := a
	if beats(b.ValueConf, b.ValueSeen, fixtureTie(b), a.ValueConf, a.ValueSeen, fixtureTie(a)) {
		out = b
	}
	out.Count = a.Count + b.Count
	out.Confidence = a.Confidence.Min(b.Confidence)
	out.SeenAt = min(a.SeenAt, b.SeenAt)
	out.Flags = joinFlags(a.Flags, b.Flags)
	return out
}

// joinFlags concatenates into a fresh slice so merged items never alias
// their sources' backing arrays.
func joinFlags(a, b []domain.Flag) []domain.Flag {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]domain.Flag, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
