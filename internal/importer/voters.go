package importer

import (
	"fmt"

	"github.com/uniwahl/wahlportal/internal/election"
	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
	"github.com/uniwahl/wahlportal/internal/tabular"
)

// Voters validates a voter roll CSV. On success the result carries the voter
// bundle and roll statistics (voter count, faculty set).
func (im *Importer) Voters(data []byte) *Result {
	if int64(len(data)) > MaxFileSize {
		return tooLarge(int64(len(data)))
	}

	table, rep := tabular.ReadCSV(data, schema.Headers(schema.VoterSpecs))
	if rep.HasFatal() {
		return fail(rep)
	}

	voters := make([]election.Voter, 0, len(table.Rows))
	for i, row := range table.Rows {
		rowNum := i + 2

		vals, errs := schema.Validate(schema.VoterSpecs, func(name string) (string, bool) {
			if table.Col(name) < 0 {
				return "", false
			}
			return table.Cell(row, name), true
		})
		if len(errs) > 0 {
			fieldErrorsToReport(rep, "", rowNum, errs)
			continue
		}

		voters = append(voters, election.Voter{
			UID:           vals.String(schema.ColRZKennung),
			Faculty:       vals.String(schema.ColFakultaet),
			GivenName:     vals.String(schema.ColVorname),
			Surname:       vals.String(schema.ColNachname),
			Matriculation: vals.String(schema.ColMatrNr),
			ProgrammeCode: vals.String(schema.ColStudiengangKuerzel),
			ProgrammeName: vals.String(schema.ColStudiengang),
		})
	}

	if !rep.HasFatal() {
		checkVoterUniqueness(rep, voters)
	}
	if rep.HasFatal() {
		return fail(rep)
	}

	faculties := make([]string, len(voters))
	for i, v := range voters {
		faculties[i] = v.Faculty
	}
	facultyList := sortedSet(faculties)

	im.log.Info("voter roll accepted",
		"voters", len(voters),
		"faculties", len(facultyList),
		"encoding", table.UsedEncoding,
	)

	return &Result{
		Success:  true,
		Warnings: rep.Warnings(),
		Stats: &Stats{
			TotalVoters:  len(voters),
			Faculties:    len(facultyList),
			FacultyList:  facultyList,
			UsedEncoding: table.UsedEncoding,
		},
		Bundle: &Bundle{Voters: voters},
	}
}

// checkVoterUniqueness enforces that user identifiers and matriculation
// numbers are each unique across the whole roll. Both occurrences' rows are
// named so the admin can fix either.
func checkVoterUniqueness(rep *report.Report, voters []election.Voter) {
	uidRow := make(map[string]int, len(voters))
	matrRow := make(map[string]int, len(voters))

	for i, v := range voters {
		rowNum := i + 2

		if first, dup := uidRow[v.UID]; dup {
			rep.Add(report.Error{
				Row:     rowNum,
				Field:   schema.ColRZKennung,
				Code:    report.CodeDuplicateUID,
				Message: fmt.Sprintf("Die Kennung %q kommt mehrfach vor (Zeilen %d und %d).", v.UID, first, rowNum),
			})
		} else {
			uidRow[v.UID] = rowNum
		}

		if first, dup := matrRow[v.Matriculation]; dup {
			rep.Add(report.Error{
				Row:     rowNum,
				Field:   schema.ColMatrNr,
				Code:    report.CodeDuplicateMtkNr,
				Message: fmt.Sprintf("Die Matrikelnummer %q kommt mehrfach vor (Zeilen %d und %d).", v.Matriculation, first, rowNum),
			})
		} else {
			matrRow[v.Matriculation] = rowNum
		}
	}
}
