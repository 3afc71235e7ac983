package schema

import (
	"regexp"

	"github.com/uniwahl/wahlportal/internal/election"
)

// Column headers of the elections sheet.
const (
	ColKennung   = "Kennung"
	ColInfo      = "Info"
	ColListen    = "Listen"
	ColPlaetze   = "Plätze"
	ColStimmen   = "Stimmen pro Zettel"
	ColMaxKum    = "max. Kum."
	ColWahlart   = "Wahlart"
	ColVerfahren = "Verfahren"
)

// Column headers of the candidate list sheet.
const (
	ColWahlKennung = "Wahl Kennung"
	ColNr          = "Nr"
	ColVorname     = "Vorname"
	ColNachname    = "Nachname"
	ColMatrNr      = "Matr.Nr"
	ColFakultaet   = "Fakultät"
	ColStudiengang = "Studiengang"
	ColStichwort   = "Stichwort"
)

// Column headers of the voter roll CSV.
const (
	ColRZKennung          = "RZ-Kennung"
	ColStudiengangKuerzel = "Studienganskürzel"
)

// Column headers specific to the candidate application CSV.
const (
	ColStichwoerter = "Stichwörter"
	ColAnmerkungen  = "Anmerkungen"
	ColZugelassen   = "Zugelassen"
)

var (
	uidPattern    = regexp.MustCompile(`^[A-Za-z]{4}[0-9]{4}$`)
	matrNrPattern = regexp.MustCompile(`^[0-9]+$`)
)

// ElectionSpecs validates one row of the elections sheet. The voting window
// columns are injected by the workbook reader and validated as dates by the
// importer, not here.
var ElectionSpecs = []FieldSpec{
	{Name: ColKennung, Kind: KindString, Required: true, MinLen: 1, MaxLen: 50},
	{Name: ColInfo, Kind: KindString, MaxLen: 1000, Default: ""},
	{Name: ColListen, Kind: KindInt, Min: 0, Default: "0"},
	{Name: ColPlaetze, Kind: KindInt, Required: true, Min: 1, Max: 100},
	{Name: ColStimmen, Kind: KindInt, Required: true, Min: 1},
	{Name: ColMaxKum, Kind: KindInt, Min: 0, Max: 100, Default: "0"},
	{Name: ColWahlart, Kind: KindEnum, Required: true, Enum: modeEnum()},
	{Name: ColVerfahren, Kind: KindEnum, Required: true, Enum: methodEnum()},
}

// CandidateSpecs validates one row of the candidate list sheet. The election
// key column is validated separately because its header name varies; see
// CandidateKeySpec.
var CandidateSpecs = []FieldSpec{
	{Name: ColNr, Kind: KindInt, Required: true, Min: 1},
	{Name: ColVorname, Kind: KindString, Required: true, MinLen: 1, MaxLen: 100},
	{Name: ColNachname, Kind: KindString, MaxLen: 100, Default: ""},
	{Name: ColMatrNr, Kind: KindString, Default: ""},
	{Name: ColFakultaet, Kind: KindString, MaxLen: 10, Default: ""},
	{Name: ColStudiengang, Kind: KindString, MaxLen: 100, Default: ""},
	{Name: ColStichwort, Kind: KindString, MaxLen: 150, Default: ""},
	{Name: ColInfo, Kind: KindString, MaxLen: 800, Default: ""},
}

// CandidateKeySpec validates the owning-election column under whatever header
// name the sheet actually used.
func CandidateKeySpec(header string) FieldSpec {
	return FieldSpec{Name: header, Kind: KindString, Required: true, MinLen: 1, MaxLen: 50}
}

// VoterSpecs validates one row of the voter roll CSV.
var VoterSpecs = []FieldSpec{
	{Name: ColRZKennung, Kind: KindPattern, Required: true, Pattern: uidPattern, PatternHint: "vier Buchstaben gefolgt von vier Ziffern"},
	{Name: ColFakultaet, Kind: KindString, Required: true, MinLen: 1},
	{Name: ColVorname, Kind: KindString, Required: true, MinLen: 1},
	{Name: ColNachname, Kind: KindString, Required: true, MinLen: 1},
	{Name: ColMatrNr, Kind: KindPattern, Required: true, Pattern: matrNrPattern, PatternHint: "nur Ziffern"},
	{Name: ColStudiengangKuerzel, Kind: KindString, Required: true, MinLen: 1},
	{Name: ColStudiengang, Kind: KindString, Required: true, MinLen: 1},
}

// CandidateCSVSpecs validates one row of the candidate application CSV.
var CandidateCSVSpecs = []FieldSpec{
	{Name: ColNachname, Kind: KindString, Required: true, MinLen: 1, MaxLen: 100},
	{Name: ColVorname, Kind: KindString, Required: true, MinLen: 1, MaxLen: 100},
	{Name: ColMatrNr, Kind: KindPattern, Required: true, Pattern: matrNrPattern, PatternHint: "nur Ziffern"},
	{Name: ColFakultaet, Kind: KindString, MaxLen: 10, Default: ""},
	{Name: ColStichwoerter, Kind: KindString, MaxLen: 150, Default: ""},
	{Name: ColAnmerkungen, Kind: KindString, MaxLen: 800, Default: ""},
	{Name: ColZugelassen, Kind: KindBool, Default: "nein"},
}

// Headers lists the column names of a spec set, in declaration order.
func Headers(specs []FieldSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

func modeEnum() map[string]string {
	m := make(map[string]string, len(election.ModeLabels))
	for label, code := range election.ModeLabels {
		m[label] = string(code)
	}
	return m
}

func methodEnum() map[string]string {
	m := make(map[string]string, len(election.MethodLabels))
	for label, code := range election.MethodLabels {
		m[label] = string(code)
	}
	return m
}
