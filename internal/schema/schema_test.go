package schema

import (
	"regexp"
	"strings"
	"testing"
)

// rowGetter adapts a map to the Validate accessor.
func rowGetter(row map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := row[name]
		return v, ok
	}
}

func TestValidateRequired(t *testing.T) {
	specs := []FieldSpec{
		{Name: "A", Kind: KindString, Required: true, MinLen: 1},
		{Name: "B", Kind: KindString, Default: "fallback"},
	}

	tests := []struct {
		name     string
		row      map[string]string
		wantErrs int
		wantB    string
	}{
		{"all present", map[string]string{"A": "x", "B": "y"}, 0, "y"},
		{"required empty", map[string]string{"A": "", "B": "y"}, 1, "y"},
		{"required whitespace only", map[string]string{"A": "   ", "B": "y"}, 1, "y"},
		{"required column absent", map[string]string{"B": "y"}, 1, "y"},
		{"optional defaulted", map[string]string{"A": "x"}, 0, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, errs := Validate(specs, rowGetter(tt.row))
			if len(errs) != tt.wantErrs {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
			if len(errs) == 0 && vals.String("B") != tt.wantB {
				t.Errorf("B = %q, want %q", vals.String("B"), tt.wantB)
			}
		})
	}
}

func TestValidateInt(t *testing.T) {
	specs := []FieldSpec{{Name: "N", Kind: KindInt, Required: true, Min: 1, Max: 100}}

	tests := []struct {
		name     string
		raw      string
		wantN    int
		wantCode string
	}{
		{"plain digits", "42", 42, ""},
		{"spreadsheet float", "3.0", 3, ""},
		{"german decimal comma", "7,0", 7, ""},
		{"fractional rejected", "3.5", 0, CodeInvalidType},
		{"non-numeric rejected", "abc", 0, CodeInvalidType},
		{"below minimum", "0", 0, CodeTooSmall},
		{"above maximum", "101", 0, CodeTooBig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, errs := Validate(specs, rowGetter(map[string]string{"N": tt.raw}))
			if tt.wantCode == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				if got := vals.Int("N"); got != tt.wantN {
					t.Errorf("Int(N) = %d, want %d", got, tt.wantN)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1", len(errs))
			}
			if errs[0].Code != tt.wantCode {
				t.Errorf("code = %q, want %q", errs[0].Code, tt.wantCode)
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	specs := []FieldSpec{{
		Name:     "Wahlart",
		Kind:     KindEnum,
		Required: true,
		Enum:     map[string]string{"Verhältniswahl": "proportional_representation", "Mehrheitswahl": "majority_vote"},
	}}

	vals, errs := Validate(specs, rowGetter(map[string]string{"Wahlart": "Verhältniswahl"}))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := vals.String("Wahlart"); got != "proportional_representation" {
		t.Errorf("enum value = %q, want normalised code", got)
	}

	_, errs = Validate(specs, rowGetter(map[string]string{"Wahlart": "Losverfahren"}))
	if len(errs) != 1 || errs[0].Code != CodeInvalidEnum {
		t.Fatalf("got %v, want one invalid_enum error", errs)
	}
	// The message enumerates the allowed labels in stable order.
	if !strings.Contains(errs[0].Message, "Mehrheitswahl, Verhältniswahl") {
		t.Errorf("message %q should list allowed labels sorted", errs[0].Message)
	}
}

func TestValidatePattern(t *testing.T) {
	specs := []FieldSpec{{
		Name:        "RZ-Kennung",
		Kind:        KindPattern,
		Required:    true,
		Pattern:     regexp.MustCompile(`^[A-Za-z]{4}[0-9]{4}$`),
		PatternHint: "vier Buchstaben gefolgt von vier Ziffern",
	}}

	for _, ok := range []string{"abcd1234", "WXYZ0000"} {
		if _, errs := Validate(specs, rowGetter(map[string]string{"RZ-Kennung": ok})); len(errs) != 0 {
			t.Errorf("%q should be accepted, got %v", ok, errs)
		}
	}
	for _, bad := range []string{"abc1234", "abcd123", "12345678", "abcdabcd"} {
		_, errs := Validate(specs, rowGetter(map[string]string{"RZ-Kennung": bad}))
		if len(errs) != 1 || errs[0].Code != CodeInvalidType {
			t.Errorf("%q should be rejected with invalid_type, got %v", bad, errs)
		}
	}
}

func TestValidateBool(t *testing.T) {
	specs := []FieldSpec{{Name: "Zugelassen", Kind: KindBool, Default: "nein"}}

	tests := []struct {
		raw  string
		want bool
	}{
		{"ja", true}, {"Ja", true}, {"x", true}, {"1", true}, {"wahr", true},
		{"nein", false}, {"0", false}, {"falsch", false}, {"", false},
	}
	for _, tt := range tests {
		vals, errs := Validate(specs, rowGetter(map[string]string{"Zugelassen": tt.raw}))
		if len(errs) != 0 {
			t.Errorf("%q: unexpected errors %v", tt.raw, errs)
			continue
		}
		if got := vals.Bool("Zugelassen"); got != tt.want {
			t.Errorf("Bool(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}

	if _, errs := Validate(specs, rowGetter(map[string]string{"Zugelassen": "vielleicht"})); len(errs) != 1 {
		t.Errorf("non-boolean should be rejected, got %v", errs)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	specs := []FieldSpec{
		{Name: "A", Kind: KindString, Required: true, MinLen: 1},
		{Name: "B", Kind: KindInt, Required: true, Min: 1},
		{Name: "C", Kind: KindString, MaxLen: 3},
	}
	_, errs := Validate(specs, rowGetter(map[string]string{"A": "", "B": "x", "C": "zu lang"}))
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want all 3 collected: %v", len(errs), errs)
	}
}

func TestCheckLengthCountsRunes(t *testing.T) {
	specs := []FieldSpec{{Name: "A", Kind: KindString, MaxLen: 4}}
	// Four umlauts are four characters, not eight bytes.
	if _, errs := Validate(specs, rowGetter(map[string]string{"A": "äöüß"})); len(errs) != 0 {
		t.Errorf("rune length should be used, got %v", errs)
	}
}

func TestElectionSpecsHeaders(t *testing.T) {
	want := []string{
		ColKennung, ColInfo, ColListen, ColPlaetze,
		ColStimmen, ColMaxKum, ColWahlart, ColVerfahren,
	}
	got := Headers(ElectionSpecs)
	if len(got) != len(want) {
		t.Fatalf("Headers(ElectionSpecs) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("header %d = %q, want %q", i, got[i], want[i])
		}
	}
}
