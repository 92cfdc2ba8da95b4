package validate

import "testing"

func TestNormNumeral(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		st   fieldState
	}{
		{"bare", "12", "12", fieldOK},
		{"hash awg", "#12 AWG", "12", fieldOK},
		{"kcmil", "250 kcmil", "250", fieldOK},
		{"mcm", "500MCM", "500", fieldOK},
		{"ought", "1/0", "1/0", fieldOK},
		{"number", float64(12), "12", fieldOK},
		{"voltage suffix", "480V", "480", fieldOK},
		{"sentinel", "n/a", "", fieldAbsent},
		{"nil", nil, "", fieldAbsent},
		{"fractional number", 12.5, "", fieldReject},
		{"negative", float64(-3), "", fieldReject},
		{"garbage", "twelve-ish", "", fieldReject},
		{"wrong type", true, "", fieldReject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, st := normNumeral(tt.in)
			if got != tt.want || st != tt.st {
				t.Fatalf("normNumeral(%v) = (%q, %d), want (%q, %d)", tt.in, got, st, tt.want, tt.st)
			}
		})
	}
}

func TestNormTradeSize(t *testing.T) {
	tests := []struct {
		in   any
		want string
		st   fieldState
	}{
		{`3/4"`, "3/4", fieldOK},
		{"0.75", "3/4", fieldOK},
		{float64(0.75), "3/4", fieldOK},
		{"1 1/2", "1-1/2", fieldOK},
		{"1-1/4 in", "1-1/4", fieldOK},
		{"2 inch", "2", fieldOK},
		{float64(4), "4", fieldOK},
		{"none", "", fieldAbsent},
		{"7", "", fieldReject},
		{"big", "", fieldReject},
	}
	for _, tt := range tests {
		got, st := normTradeSize(tt.in)
		if got != tt.want || st != tt.st {
			t.Fatalf("normTradeSize(%v) = (%q, %d), want (%q, %d)", tt.in, got, st, tt.want, tt.st)
		}
	}
}

func TestNormFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		st   fieldState
	}{
		{float64(100), 100, fieldOK},
		{"100 ft", 100, fieldOK},
		{"1,200", 1200, fieldOK},
		{"20A", 20, fieldOK},
		{"75 °C", 75, fieldOK},
		{"", 0, fieldAbsent},
		{"-", 0, fieldAbsent},
		{float64(-1), 0, fieldReject},
		{"junk", 0, fieldReject},
	}
	for _, tt := range tests {
		got, st := normFloat(tt.in)
		if got != tt.want || st != tt.st {
			t.Fatalf("normFloat(%v) = (%g, %d), want (%g, %d)", tt.in, got, st, tt.want, tt.st)
		}
	}
}

func TestNormEnum(t *testing.T) {
	if got, st := normEnum("copper", materialCanon); got != "Cu" || st != fieldOK {
		t.Fatalf("copper = (%q, %d)", got, st)
	}
	if got, st := normEnum("thhn", insulationCanon); got != "THHN" || st != fieldOK {
		t.Fatalf("thhn = (%q, %d)", got, st)
	}
	if got, st := normEnum("grc", conduitCanon); got != "RMC" || st != fieldOK {
		t.Fatalf("grc = (%q, %d)", got, st)
	}
	if _, st := normEnum("unobtainium", materialCanon); st != fieldReject {
		t.Fatalf("unknown enum state = %d, want reject", st)
	}
	if _, st := normEnum("unknown", materialCanon); st != fieldAbsent {
		t.Fatalf("sentinel enum state = %d, want absent", st)
	}
}

func TestNormBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
		st   fieldState
	}{
		{true, true, fieldOK},
		{"yes", true, fieldOK},
		{"No", false, fieldOK},
		{nil, false, fieldAbsent},
		{"perhaps", false, fieldReject},
	}
	for _, tt := range tests {
		got, st := normBool(tt.in)
		if got != tt.want || st != tt.st {
			t.Fatalf("normBool(%v) = (%t, %d), want (%t, %d)", tt.in, got, st, tt.want, tt.st)
		}
	}
}
