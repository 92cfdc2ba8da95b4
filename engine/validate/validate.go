// Package validate parses and normalizes raw structured extraction
// responses into typed records. It rejects a response only when the
// payload is not well-formed JSON; individual field problems degrade to
// "absent" plus an assumption flag and never raise past this boundary.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/voltdraft/takeoff/engine/domain"
)

// Raw field shapes are deliberately loose: the response is untrusted and
// every field goes through an explicit normalization rule.
type rawConductor struct {
	Gauge      any `json:"gauge"`
	Material   any `json:"material"`
	Insulation any `json:"insulation"`
	Voltage    any `json:"voltage"`
	LengthFt   any `json:"length_ft"`
	Count      any `json:"count"`
	LoadAmps   any `json:"load_amps"`
	Continuous any `json:"continuous"`
	AmbientC   any `json:"ambient_c"`
	Bundled    any `json:"bundled"`
	Confidence any `json:"confidence"`
}

type rawConduit struct {
	Type       any `json:"type"`
	TradeSize  any `json:"trade_size"`
	LengthFt   any `json:"length_ft"`
	Confidence any `json:"confidence"`
}

type rawCircuit struct {
	Number      any `json:"number"`
	Description any `json:"description"`
	BreakerAmps any `json:"breaker_amps"`
	Poles       any `json:"poles"`
	Confidence  any `json:"confidence"`
}

type rawPanel struct {
	Name       any          `json:"name"`
	Voltage    any          `json:"voltage"`
	Phases     any          `json:"phases"`
	MainAmps   any          `json:"main_amps"`
	Circuits   []rawCircuit `json:"circuits"`
	Confidence any          `json:"confidence"`
}

type rawFixture struct {
	Type        any `json:"type"`
	Description any `json:"description"`
	Count       any `json:"count"`
	Confidence  any `json:"confidence"`
}

type rawPayload struct {
	Conductors []rawConductor `json:"conductors"`
	Conduits   []rawConduit   `json:"conduits"`
	Panels     []rawPanel     `json:"panels"`
	Fixtures   []rawFixture   `json:"fixtures"`
}

// Validate turns one chunk's raw response into typed records. Flags ride
// on the items they belong to. The only error is a structurally malformed
// payload (wrapping domain.ErrMalformedResponse).
func Validate(chunkIndex int, raw []byte) (domain.ExtractionResult, error) {
	var p rawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.ExtractionResult{}, domain.NewValidationError(
			"payload", preview(raw), fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err))
	}

	out := domain.ExtractionResult{ChunkIndex: chunkIndex}
	for _, rc := range p.Conductors {
		out.Conductors = append(out.Conductors, validateConductor(chunkIndex, rc))
	}
	for _, rc := range p.Conduits {
		out.Conduits = append(out.Conduits, validateConduit(chunkIndex, rc))
	}
	for _, rp := range p.Panels {
		out.Panels = append(out.Panels, validatePanel(chunkIndex, rp))
	}
	for _, rf := range p.Fixtures {
		out.Fixtures = append(out.Fixtures, validateFixture(chunkIndex, rf))
	}
	return out, nil
}

// preview truncates a raw payload for error reporting.
func preview(raw []byte) string {
	const limit = 80
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}

// fieldCheck applies a rule outcome: rejected or essential-but-absent
// fields produce a flag with the given severity. Returns the flag slice.
func fieldCheck(flags []domain.Flag, chunk int, item, field string, raw any, st fieldState, essential bool, sev domain.Severity) []domain.Flag {
	switch st {
	case fieldReject:
		return append(flags, domain.Flag{
			Chunk:    chunk,
			Item:     item,
			Field:    field,
			Value:    fmt.Sprintf("%v", raw),
			Severity: sev,
			Action:   "value could not be normalized; verify against source document",
		})
	case fieldAbsent:
		if essential {
			return append(flags, domain.Flag{
				Chunk:    chunk,
				Item:     item,
				Field:    field,
				Severity: sev,
				Action:   "required for derating; confirm from source document",
			})
		}
	}
	return flags
}

// confidenceOf normalizes the confidence label, defaulting pessimistically
// to Assumed with a low-severity flag when missing or unrecognised.
func confidenceOf(flags []domain.Flag, chunk int, item string, raw any) (domain.Confidence, []domain.Flag) {
	if s, st := normText(raw); st == fieldOK {
		if c, ok := domain.ParseConfidence(s); ok {
			return c, flags
		}
	}
	flags = append(flags, domain.Flag{
		Chunk:    chunk,
		Item:     item,
		Field:    "confidence",
		Value:    fmt.Sprintf("%v", raw),
		Severity: domain.SeverityLow,
		Action:   "confidence label missing; treated as assumed",
	})
	return domain.ConfidenceAssumed, flags
}

func validateConductor(chunk int, rc rawConductor) domain.Conductor {
	var flags []domain.Flag
	c := domain.Conductor{SeenAt: chunk}

	var st fieldState
	c.Gauge, st = normNumeral(rc.Gauge)
	flags = fieldCheck(flags, chunk, "conductor", "gauge", rc.Gauge, st, true, domain.SeverityHigh)
	c.Material, st = normEnum(rc.Material, materialCanon)
	flags = fieldCheck(flags, chunk, "conductor", "material", rc.Material, st, true, domain.SeverityHigh)
	c.Voltage, st = normNumeral(rc.Voltage)
	flags = fieldCheck(flags, chunk, "conductor", "voltage", rc.Voltage, st, true, domain.SeverityHigh)
	c.Insulation, st = normEnum(rc.Insulation, insulationCanon)
	flags = fieldCheck(flags, chunk, "conductor", "insulation", rc.Insulation, st, true, domain.SeverityMedium)

	c.LengthFt, st = normFloat(rc.LengthFt)
	flags = fieldCheck(flags, chunk, "conductor", "length_ft", rc.LengthFt, st, false, domain.SeverityMedium)
	c.Count, st = normInt(rc.Count)
	flags = fieldCheck(flags, chunk, "conductor", "count", rc.Count, st, false, domain.SeverityMedium)
	c.LoadAmps, st = normFloat(rc.LoadAmps)
	flags = fieldCheck(flags, chunk, "conductor", "load_amps", rc.LoadAmps, st, false, domain.SeverityMedium)
	c.Continuous, st = normBool(rc.Continuous)
	flags = fieldCheck(flags, chunk, "conductor", "continuous", rc.Continuous, st, false, domain.SeverityMedium)
	c.AmbientC, st = normFloat(rc.AmbientC)
	flags = fieldCheck(flags, chunk, "conductor", "ambient_c", rc.AmbientC, st, false, domain.SeverityLow)
	c.Bundled, st = normInt(rc.Bundled)
	flags = fieldCheck(flags, chunk, "conductor", "bundled", rc.Bundled, st, false, domain.SeverityLow)

	c.Confidence, flags = confidenceOf(flags, chunk, "conductor", rc.Confidence)
	c.Flags = flags
	return c
}

func validateConduit(chunk int, rc rawConduit) domain.Conduit {
	var flags []domain.Flag
	c := domain.Conduit{SeenAt: chunk}

	var st fieldState
	c.Type, st = normEnum(rc.Type, conduitCanon)
	flags = fieldCheck(flags, chunk, "conduit", "type", rc.Type, st, true, domain.SeverityMedium)
	c.TradeSize, st = normTradeSize(rc.TradeSize)
	flags = fieldCheck(flags, chunk, "conduit", "trade_size", rc.TradeSize, st, true, domain.SeverityMedium)
	c.LengthFt, st = normFloat(rc.LengthFt)
	flags = fieldCheck(flags, chunk, "conduit", "length_ft", rc.LengthFt, st, false, domain.SeverityMedium)

	c.Confidence, flags = confidenceOf(flags, chunk, "conduit", rc.Confidence)
	c.Flags = flags
	return c
}

func validatePanel(chunk int, rp rawPanel) domain.Panel {
	var flags []domain.Flag
	p := domain.Panel{SeenAt: chunk, Circuits: make(map[string]domain.Circuit)}

	var st fieldState
	p.Name, st = normText(rp.Name)
	flags = fieldCheck(flags, chunk, "panel", "name", rp.Name, st, true, domain.SeverityMedium)
	p.Voltage, st = normNumeral(rp.Voltage)
	flags = fieldCheck(flags, chunk, "panel", "voltage", rp.Voltage, st, true, domain.SeverityHigh)
	p.Phases, st = normInt(rp.Phases)
	flags = fieldCheck(flags, chunk, "panel", "phases", rp.Phases, st, false, domain.SeverityMedium)
	p.MainAmps, st = normFloat(rp.MainAmps)
	flags = fieldCheck(flags, chunk, "panel", "main_amps", rp.MainAmps, st, false, domain.SeverityMedium)

	for _, rc := range rp.Circuits {
		ckt := validateCircuit(chunk, rc)
		if ckt.Number == "" {
			// A circuit with no number cannot be merged; keep its
			// flags on the panel so nothing is silently dropped.
			flags = append(flags, ckt.Flags...)
			continue
		}
		p.Circuits[ckt.Number] = ckt
	}

	p.Confidence, flags = confidenceOf(flags, chunk, "panel", rp.Confidence)
	p.Flags = flags
	return p
}

func validateCircuit(chunk int, rc rawCircuit) domain.Circuit {
	var flags []domain.Flag
	c := domain.Circuit{SeenAt: chunk}

	var st fieldState
	c.Number, st = normNumeral(rc.Number)
	flags = fieldCheck(flags, chunk, "circuit", "number", rc.Number, st, true, domain.SeverityMedium)
	c.Description, st = normText(rc.Description)
	flags = fieldCheck(flags, chunk, "circuit", "description", rc.Description, st, false, domain.SeverityLow)
	c.BreakerAmps, st = normFloat(rc.BreakerAmps)
	flags = fieldCheck(flags, chunk, "circuit", "breaker_amps", rc.BreakerAmps, st, false, domain.SeverityMedium)
	c.Poles, st = normInt(rc.Poles)
	flags = fieldCheck(flags, chunk, "circuit", "poles", rc.Poles, st, false, domain.SeverityLow)

	c.Confidence, flags = confidenceOf(flags, chunk, "circuit", rc.Confidence)
	c.Flags = flags
	return c
}

func validateFixture(chunk int, rf rawFixture) domain.Fixture {
	var flags []domain.Flag
	f := domain.Fixture{SeenAt: chunk}

	var st fieldState
	f.Type, st = normText(rf.Type)
	flags = fieldCheck(flags, chunk, "fixture", "type", rf.Type, st, true, domain.SeverityMedium)
	f.Description, st = normText(rf.Description)
	flags = fieldCheck(flags, chunk, "fixture", "description", rf.Description, st, false, domain.SeverityLow)
	f.Count, st = normInt(rf.Count)
	flags = fieldCheck(flags, chunk, "fixture", "count", rf.Count, st, false, domain.SeverityMedium)

	f.Confidence, flags = confidenceOf(flags, chunk, "fixture", rf.Confidence)
	f.Flags = flags
	return f
}
