package domain

import "fmt"

// ItemType identifies a bill-of-materials line-item family.
type ItemType string

const (
	ItemConductor ItemType = "conductor"
	ItemConduit   ItemType = "conduit"
	ItemPanel     ItemType = "panel"
	ItemFixture   ItemType = "fixture"
)

// Derating is the derived code-compliance computation attached to a
// conductor. It is recomputed whenever its inputs change and never cached
// across runs.
type Derating struct {
	BaseAmps       float64 `json:"base_amps"`
	AmbientFactor  float64 `json:"ambient_factor"`
	BundlingFactor float64 `json:"bundling_factor"`
	DeratedAmps    float64 `json:"derated_amps"`
	RequiredAmps   float64 `json:"required_amps,omitempty"`
	Compliant      bool    `json:"compliant"`
}

// Conductor is a wire/cable line item. Gauge, Insulation and Voltage are
// identity-defining; LengthFt and Count are summable across detections.
type Conductor struct {
	Gauge      string  `json:"gauge"`
	Material   string  `json:"material,omitempty"`
	Insulation string  `json:"insulation"`
	Voltage    string  `json:"voltage"`
	LengthFt   float64 `json:"length_ft"`
	Count      int     `json:"count,omitempty"`
	LoadAmps   float64 `json:"load_amps,omitempty"`
	Continuous bool    `json:"continuous,omitempty"`
	AmbientC   float64 `json:"ambient_c,omitempty"`
	Bundled    int     `json:"bundled,omitempty"`

	Confidence Confidence `json:"confidence"`
	SeenAt     int        `json:"seen_at"`
	// ValueConf and ValueSeen record which detection supplied the current
	// non-summable field values; they keep merge folds order-independent.
	ValueConf Confidence `json:"-"`
	ValueSeen int        `json:"-"`
	Flags      []Flag     `json:"flags,omitempty"`
	Derating   *Derating  `json:"derating,omitempty"`
}

// Key is the conductor merge key: gauge + insulation type + rated voltage.
func (c Conductor) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.Gauge, c.Insulation, c.Voltage)
}

// Conduit is a raceway line item.
type Conduit struct {
	Type      string  `json:"type"`
	TradeSize string  `json:"trade_size"`
	LengthFt  float64 `json:"length_ft"`

	Confidence Confidence `json:"confidence"`
	SeenAt     int        `json:"seen_at"`
	// ValueConf and ValueSeen record which detection supplied the current
	// non-summable field values; they keep merge folds order-independent.
	ValueConf Confidence `json:"-"`
	ValueSeen int        `json:"-"`
	Flags      []Flag     `json:"flags,omitempty"`
}

// Key is the conduit merge key: type + trade size.
func (c Conduit) Key() string {
	return fmt.Sprintf("%s|%s", c.Type, c.TradeSize)
}

// Circuit is a breaker position nested inside a Panel. Circuits merge by
// number within their parent panel's key.
type Circuit struct {
	Number      string  `json:"number"`
	Description string  `json:"description,omitempty"`
	BreakerAmps float64 `json:"breaker_amps,omitempty"`
	Poles       int     `json:"poles,omitempty"`

	Confidence Confidence `json:"confidence"`
	SeenAt     int        `json:"seen_at"`
	// ValueConf and ValueSeen record which detection supplied the current
	// non-summable field values; they keep merge folds order-independent.
	ValueConf Confidence `json:"-"`
	ValueSeen int        `json:"-"`
	Flags      []Flag     `json:"flags,omitempty"`
}

// Panel is a panelboard with its nested circuit list.
type Panel struct {
	Name     string             `json:"name"`
	Voltage  string             `json:"voltage,omitempty"`
	Phases   int                `json:"phases,omitempty"`
	MainAmps float64            `json:"main_amps,omitempty"`
	Circuits map[string]Circuit `json:"-"`

	Confidence Confidence `json:"confidence"`
	SeenAt     int        `json:"seen_at"`
	// ValueConf and ValueSeen record which detection supplied the current
	// non-summable field values; they keep merge folds order-independent.
	ValueConf Confidence `json:"-"`
	ValueSeen int        `json:"-"`
	Flags      []Flag     `json:"flags,omitempty"`
}

// Key is the panel merge key: name + voltage.
func (p Panel) Key() string {
	return fmt.Sprintf("%s|%s", p.Name, p.Voltage)
}

// Fixture is a lighting fixture or device line item.
type Fixture struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count"`

	Confidence Confidence `json:"confidence"`
	SeenAt     int        `json:"seen_at"`
	// ValueConf and ValueSeen record which detection supplied the current
	// non-summable field values; they keep merge folds order-independent.
	ValueConf Confidence `json:"-"`
	ValueSeen int        `json:"-"`
	Flags      []Flag     `json:"flags,omitempty"`
}

// Key is the fixture merge key: type + description.
func (f Fixture) Key() string {
	return fmt.Sprintf("%s|%s", f.Type, f.Description)
}

// ExtractionResult is the validated, typed record set for one chunk.
// Chunks are owned by the run and discarded after validation; only these
// records survive into the bill of materials.
type ExtractionResult struct {
	ChunkIndex int         `json:"chunk_index"`
	Conductors []Conductor `json:"conductors,omitempty"`
	Conduits   []Conduit   `json:"conduits,omitempty"`
	Panels     []Panel     `json:"panels,omitempty"`
	Fixtures   []Fixture   `json:"fixtures,omitempty"`
}

// Empty reports whether the result carries no items at all.
func (r ExtractionResult) Empty() bool {
	return len(r.Conductors) == 0 && len(r.Conduits) == 0 &&
		len(r.Panels) == 0 && len(r.Fixtures) == 0
}
