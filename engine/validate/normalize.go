package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fieldState is the outcome of a normalization rule. Every legal raw
// variant maps to exactly one canonical value; everything else is either
// a recognised "not applicable" sentinel (absent) or a rejection.
type fieldState int

const (
	fieldOK fieldState = iota
	fieldAbsent
	fieldReject
)

// sentinelTokens are non-values that coerce to "absent" rather than
// raising an error.
var sentinelTokens = map[string]bool{
	"": true, "n/a": true, "na": true, "-": true, "--": true,
	"none": true, "null": true, "nil": true, "unknown": true, "tbd": true,
}

func isSentinel(s string) bool {
	return sentinelTokens[strings.ToLower(strings.TrimSpace(s))]
}

// numeralRe matches a conductor size as bare number, #-prefixed, slashed
// ought ("1/0"), or numeral-bearing text ("12 AWG", "250 kcmil").
var numeralRe = regexp.MustCompile(`^#?\s*(\d+(?:/0)?)\s*(?i:awg|kcmil|mcm)?$`)

// normNumeral coerces a numeric-identifier field (gauge, circuit number,
// voltage) to its canonical string form.
func normNumeral(v any) (string, fieldState) {
	switch t := v.(type) {
	case nil:
		return "", fieldAbsent
	case float64:
		if t < 0 || t != math.Trunc(t) {
			return "", fieldReject
		}
		return strconv.FormatInt(int64(t), 10), fieldOK
	case string:
		if isSentinel(t) {
			return "", fieldAbsent
		}
		s := strings.TrimSpace(t)
		s = strings.TrimSuffix(strings.TrimSuffix(s, "V"), "v")
		if m := numeralRe.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			return m[1], fieldOK
		}
		return "", fieldReject
	default:
		return "", fieldReject
	}
}

// normEnum matches case-insensitively against canon and returns the
// canonical casing.
func normEnum(v any, canon map[string]string) (string, fieldState) {
	switch t := v.(type) {
	case nil:
		return "", fieldAbsent
	case string:
		if isSentinel(t) {
			return "", fieldAbsent
		}
		if c, ok := canon[strings.ToLower(strings.TrimSpace(t))]; ok {
			return c, fieldOK
		}
		return "", fieldReject
	default:
		return "", fieldReject
	}
}

// unitSuffixRe strips trailing units from quantity strings ("100 ft", "20A").
var unitSuffixRe = regexp.MustCompile(`(?i)\s*(ft|feet|'|a|amps?|°?[cf])$`)

// normFloat coerces a quantity field given as number or numeric text.
func normFloat(v any) (float64, fieldState) {
	switch t := v.(type) {
	case nil:
		return 0, fieldAbsent
	case float64:
		if t < 0 {
			return 0, fieldReject
		}
		return t, fieldOK
	case string:
		if isSentinel(t) {
			return 0, fieldAbsent
		}
		s := unitSuffixRe.ReplaceAllString(strings.TrimSpace(t), "")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, fieldReject
		}
		return f, fieldOK
	default:
		return 0, fieldReject
	}
}

// normInt is normFloat restricted to whole numbers.
func normInt(v any) (int, fieldState) {
	f, st := normFloat(v)
	if st != fieldOK {
		return 0, st
	}
	if f != math.Trunc(f) {
		return 0, fieldReject
	}
	return int(f), fieldOK
}

// normBool accepts bools and the usual textual spellings.
func normBool(v any) (bool, fieldState) {
	switch t := v.(type) {
	case nil:
		return false, fieldAbsent
	case bool:
		return t, fieldOK
	case string:
		if isSentinel(t) {
			return false, fieldAbsent
		}
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true, fieldOK
		case "false", "no", "n", "0":
			return false, fieldOK
		}
		return false, fieldReject
	default:
		return false, fieldReject
	}
}

// normText passes free text through trimmed; only sentinels are absent.
func normText(v any) (string, fieldState) {
	switch t := v.(type) {
	case nil:
		return "", fieldAbsent
	case string:
		if isSentinel(t) {
			return "", fieldAbsent
		}
		return strings.TrimSpace(t), fieldOK
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), fieldOK
		}
		return strconv.FormatFloat(t, 'f', -1, 64), fieldOK
	default:
		return "", fieldReject
	}
}

// tradeSizes are the standard raceway trade sizes, plus decimal spellings
// that coerce to them.
var tradeSizes = map[string]string{
	"1/2": "1/2", "3/4": "3/4", "1": "1", "1-1/4": "1-1/4",
	"1-1/2": "1-1/2", "2": "2", "2-1/2": "2-1/2", "3": "3",
	"3-1/2": "3-1/2", "4": "4", "5": "5", "6": "6",
	"0.5": "1/2", "0.75": "3/4", "1.25": "1-1/4", "1.5": "1-1/2",
	"2.5": "2-1/2", "3.5": "3-1/2", "11/4": "1-1/4", "11/2": "1-1/2",
	"21/2": "2-1/2", "31/2": "3-1/2",
}

// normTradeSize coerces a raceway trade size given as fraction text,
// decimal text, or number.
func normTradeSize(v any) (string, fieldState) {
	switch t := v.(type) {
	case nil:
		return "", fieldAbsent
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		if c, ok := tradeSizes[s]; ok {
			return c, fieldOK
		}
		return "", fieldReject
	case string:
		if isSentinel(t) {
			return "", fieldAbsent
		}
		s := strings.TrimSpace(strings.ToLower(t))
		s = strings.TrimSuffix(s, `"`)
		s = strings.TrimSuffix(s, "inch")
		s = strings.TrimSuffix(s, "in")
		s = strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
		if c, ok := tradeSizes[s]; ok {
			return c, fieldOK
		}
		return "", fieldReject
	default:
		return "", fieldReject
	}
}

// Canonical enum spellings.
var (
	materialCanon = map[string]string{
		"cu": "Cu", "copper": "Cu",
		"al": "Al", "aluminum": "Al", "aluminium": "Al",
	}
	insulationCanon = map[string]string{
		"thhn": "THHN", "thwn": "THWN", "thwn-2": "THWN-2", "thwn2": "THWN-2",
		"xhhw": "XHHW", "xhhw-2": "XHHW-2", "xhhw2": "XHHW-2",
		"thw": "THW", "tw": "TW", "uf": "UF", "use": "USE", "use-2": "USE-2",
	}
	conduitCanon = map[string]string{
		"emt": "EMT", "imc": "IMC", "rmc": "RMC", "grc": "RMC",
		"pvc": "PVC", "ent": "ENT", "fmc": "FMC", "lfmc": "LFMC",
		"lfnc": "LFNC",
	}
)
