package election

import "testing"

func TestMethodMatchesMode(t *testing.T) {
	tests := []struct {
		mode   Mode
		method CountingMethod
		want   bool
	}{
		{ModeProportional, MethodSainteLague, true},
		{ModeProportional, MethodHareNiemeyer, true},
		{ModeProportional, MethodHighestSimple, false},
		{ModeMajority, MethodHighestSimple, true},
		{ModeMajority, MethodHighestAbsolute, true},
		{ModeMajority, MethodSainteLague, false},
		{ModeReferendum, MethodYesNoReferendum, true},
		{ModeReferendum, MethodHighestSimple, false},
	}
	for _, tt := range tests {
		if got := MethodMatchesMode(tt.mode, tt.method); got != tt.want {
			t.Errorf("MethodMatchesMode(%s, %s) = %v, want %v", tt.mode, tt.method, got, tt.want)
		}
	}
}

func TestLabelsCoverAllCodes(t *testing.T) {
	modes := map[Mode]bool{}
	for _, m := range ModeLabels {
		modes[m] = true
	}
	for _, m := range []Mode{ModeProportional, ModeMajority, ModeReferendum} {
		if !modes[m] {
			t.Errorf("mode %s has no spreadsheet label", m)
		}
	}

	methods := map[CountingMethod]bool{}
	for _, m := range MethodLabels {
		methods[m] = true
	}
	for _, m := range []CountingMethod{MethodSainteLague, MethodHareNiemeyer, MethodHighestSimple, MethodHighestAbsolute, MethodYesNoReferendum} {
		if !methods[m] {
			t.Errorf("method %s has no spreadsheet label", m)
		}
	}
}

func TestIsAbstention(t *testing.T) {
	if !(ReferendumOption{Nr: 3, Name: "Enthaltung"}).IsAbstention() {
		t.Error("Enthaltung should be the abstention option")
	}
	if (ReferendumOption{Nr: 1, Name: "Ja"}).IsAbstention() {
		t.Error("Ja is not an abstention")
	}
}
