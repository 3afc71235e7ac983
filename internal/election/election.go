// Package election defines the domain model shared by the import pipeline,
// the ballot state machine, and the API client: elections, candidates,
// referendum options, and voters, together with the German surface labels
// used in admin spreadsheets.
package election

import "time"

// Mode is the kind of election being run.
type Mode string

const (
	ModeProportional Mode = "proportional_representation"
	ModeMajority     Mode = "majority_vote"
	ModeReferendum   Mode = "referendum"
)

// CountingMethod is the server-side tally algorithm for an election.
type CountingMethod string

const (
	MethodSainteLague     CountingMethod = "sainte_lague"
	MethodHareNiemeyer    CountingMethod = "hare_niemeyer"
	MethodHighestSimple   CountingMethod = "highest_votes_simple"
	MethodHighestAbsolute CountingMethod = "highest_votes_absolute"
	MethodYesNoReferendum CountingMethod = "yes_no_referendum"
)

// ModeLabels maps the spreadsheet labels to internal mode codes.
var ModeLabels = map[string]Mode{
	"Verhältniswahl": ModeProportional,
	"Mehrheitswahl":  ModeMajority,
	"Urabstimmung":   ModeReferendum,
}

// MethodLabels maps the spreadsheet labels to internal counting method codes.
var MethodLabels = map[string]CountingMethod{
	"Sainte-Laguë":       MethodSainteLague,
	"Hare-Niemeyer":      MethodHareNiemeyer,
	"Einfache Mehrheit":  MethodHighestSimple,
	"Absolute Mehrheit":  MethodHighestAbsolute,
	"Ja/Nein/Enthaltung": MethodYesNoReferendum,
}

// methodsByMode lists the counting methods that are coherent with each mode.
var methodsByMode = map[Mode][]CountingMethod{
	ModeProportional: {MethodSainteLague, MethodHareNiemeyer},
	ModeMajority:     {MethodHighestSimple, MethodHighestAbsolute},
	ModeReferendum:   {MethodYesNoReferendum},
}

// MethodMatchesMode reports whether a counting method is a valid pairing for
// the given election mode.
func MethodMatchesMode(mode Mode, method CountingMethod) bool {
	for _, m := range methodsByMode[mode] {
		if m == method {
			return true
		}
	}
	return false
}

// AbstentionName is the distinguished referendum option meaning abstention.
// Once chosen at some priority, lower priorities carry no meaning.
const AbstentionName = "Enthaltung"

// Election is an election descriptor as defined by an admin import or
// returned by the voting API.
type Election struct {
	ID                 string         `json:"id,omitempty"`
	Key                string         `json:"key"`
	Title              string         `json:"title,omitempty"`
	Info               string         `json:"info"`
	Start              time.Time      `json:"start"`
	End                time.Time      `json:"end"`
	Mode               Mode           `json:"mode"`
	CountingMethod     CountingMethod `json:"countingMethod"`
	Lists              int            `json:"lists"`
	Seats              int            `json:"seats"`
	VotesPerBallot     int            `json:"votesPerBallot"`
	MaxCumulativeVotes int            `json:"maxCumulativeVotes"`
}

// Candidate is a person (or, for referendums, an option) standing in an
// election. ListNumber is unique within the owning election.
type Candidate struct {
	ElectionKey    string `json:"electionKey"`
	ListNumber     int    `json:"listNumber"`
	GivenName      string `json:"givenName"`
	Surname        string `json:"surname"`
	StudentID      string `json:"studentId,omitempty"`
	Faculty        string `json:"faculty,omitempty"`
	StudyProgramme string `json:"studyProgramme,omitempty"`
	Keyword        string `json:"keyword,omitempty"`
	Info           string `json:"info,omitempty"`
}

// ReferendumOption is one choice on a referendum ballot, addressed by its
// ordinal number.
type ReferendumOption struct {
	Nr   int    `json:"nr"`
	Name string `json:"name"`
}

// IsAbstention reports whether the option carries abstention semantics.
func (o ReferendumOption) IsAbstention() bool {
	return o.Name == AbstentionName
}

// Application is one row of the candidate application CSV: a person asking
// to stand, before being admitted to a concrete election list.
type Application struct {
	Surname       string `json:"surname"`
	GivenName     string `json:"givenName"`
	Matriculation string `json:"matriculation"`
	Faculty       string `json:"faculty,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Admitted      bool   `json:"admitted"`
}

// Voter is one entry of the voter roll import.
type Voter struct {
	UID           string `json:"uid"`
	Faculty       string `json:"faculty"`
	GivenName     string `json:"givenName"`
	Surname       string `json:"surname"`
	Matriculation string `json:"matriculation"`
	ProgrammeCode string `json:"programmeCode"`
	ProgrammeName string `json:"programmeName"`
}
