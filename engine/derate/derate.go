// Package derate computes NEC ampacity derating for extracted conductors.
// All functions are pure lookups over embedded code tables; results are
// recomputed on every run and never cached.
package derate

import (
	"fmt"

	"github.com/voltdraft/takeoff/engine/domain"
)

// RatingFor returns the temperature rating for an insulation type.
func RatingFor(insulation string) (int, bool) {
	r, ok := insulationRating[insulation]
	return r, ok
}

// BaseAmpacity is the NEC 310.16 ampacity for a gauge/material at the
// given temperature rating, with the 240.4(D) small-conductor cap
// applied. Unknown combinations return domain.ErrAmpacityUndefined.
func BaseAmpacity(gauge, material string, rating int) (float64, error) {
	idx, ok := ratingIdx(rating)
	if !ok {
		return 0, fmt.Errorf("%w: %d°C column", domain.ErrAmpacityUndefined, rating)
	}
	row, ok := ampacity[material][gauge]
	if !ok {
		return 0, fmt.Errorf("%w: %s %s", domain.ErrAmpacityUndefined, gauge, material)
	}
	amps := row[idx]
	if ceil, ok := smallConductorCap[material][gauge]; ok && amps > ceil {
		amps = ceil
	}
	return amps, nil
}

// AmbientCorrection is the 310.15(B)(1) factor for the ambient
// temperature at the given rating. Ambients past the table (or past the
// column's limit) return domain.ErrAmbientOutOfRange.
func AmbientCorrection(tempC float64, rating int) (float64, error) {
	idx, ok := ratingIdx(rating)
	if !ok {
		return 0, fmt.Errorf("%w: %d°C column", domain.ErrAmpacityUndefined, rating)
	}
	for _, band := range ambientBands {
		if tempC <= band.maxC {
			f := band.factors[idx]
			if f == 0 {
				return 0, fmt.Errorf("%w: %g°C at %d°C rating", domain.ErrAmbientOutOfRange, tempC, rating)
			}
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %g°C", domain.ErrAmbientOutOfRange, tempC)
}

// BundlingCorrection is the 310.15(C)(1) adjustment for the number of
// current-carrying conductors bundled together.
func BundlingCorrection(n int) float64 {
	switch {
	case n <= 3:
		return 1.0
	case n <= 6:
		return 0.8
	case n <= 9:
		return 0.7
	case n <= 20:
		return 0.5
	case n <= 30:
		return 0.45
	case n <= 40:
		return 0.4
	default:
		return 0.35
	}
}

// ContinuousLoadSizing is the required ampacity for a continuous load.
func ContinuousLoadSizing(loadAmps float64) float64 {
	return loadAmps * 1.25
}

// stepFloor floors a derated ampacity to the nearest standard device
// rating at or below it. Values under the smallest step pass through.
func stepFloor(amps float64) float64 {
	if amps < standardSteps[0] {
		return amps
	}
	out := standardSteps[0]
	for _, s := range standardSteps {
		if s > amps {
			break
		}
		out = s
	}
	return out
}

// Derate computes the full derating record for one conductor. An absent
// ambient temperature assumes the 30 °C table reference; an absent bundle
// count assumes no adjustment. Missing identity fields (gauge, material,
// insulation) make the lookup undefined.
func Derate(c domain.Conductor) (domain.Derating, error) {
	rating, ok := RatingFor(c.Insulation)
	if !ok {
		return domain.Derating{}, fmt.Errorf("%w: insulation %q", domain.ErrAmpacityUndefined, c.Insulation)
	}
	base, err := BaseAmpacity(c.Gauge, c.Material, rating)
	if err != nil {
		return domain.Derating{}, err
	}

	ambientC := c.AmbientC
	if ambientC == 0 {
		ambientC = 30
	}
	amb, err := AmbientCorrection(ambientC, rating)
	if err != nil {
		return domain.Derating{}, err
	}
	bund := BundlingCorrection(max(c.Bundled, 1))

	d := domain.Derating{
		BaseAmps:       base,
		AmbientFactor:  amb,
		BundlingFactor: bund,
		DeratedAmps:    stepFloor(base * amb * bund),
		Compliant:      true,
	}
	if c.LoadAmps > 0 {
		d.RequiredAmps = c.LoadAmps
		if c.Continuous {
			d.RequiredAmps = ContinuousLoadSizing(c.LoadAmps)
		}
		d.Compliant = d.DeratedAmps >= d.RequiredAmps
	}
	return d, nil
}

// Apply derates every conductor in the bill in place. Lookup-undefined
// conductors are kept underated with a high-severity flag; undersized
// conductors get a compliance flag. Returns the bill for chaining.
func Apply(bom domain.BillOfMaterials) domain.BillOfMaterials {
	for key, c := range bom.Conductors {
		d, err := Derate(c)
		if err != nil {
			c.Derating = nil
			c.Flags = append(c.Flags, domain.Flag{
				Chunk:    c.SeenAt,
				Item:     string(domain.ItemConductor),
				Field:    "derating",
				Value:    key,
				Severity: domain.SeverityHigh,
				Action:   fmt.Sprintf("ampacity lookup failed (%v); size manually", err),
			})
			bom.Conductors[key] = c
			continue
		}
		c.Derating = &d
		if !d.Compliant {
			c.Flags = append(c.Flags, domain.Flag{
				Chunk:    c.SeenAt,
				Item:     string(domain.ItemConductor),
				Field:    "derating",
				Value:    fmt.Sprintf("derated %g A < required %g A", d.DeratedAmps, d.RequiredAmps),
				Severity: domain.SeverityHigh,
				Action:   "conductor undersized for its load after derating; upsize",
			})
		}
		bom.Conductors[key] = c
	}
	return bom
}
