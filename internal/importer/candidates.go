package importer

import (
	"github.com/uniwahl/wahlportal/internal/election"
	"github.com/uniwahl/wahlportal/internal/schema"
	"github.com/uniwahl/wahlportal/internal/tabular"
)

// CandidatesCSV validates a candidate application CSV.
func (im *Importer) CandidatesCSV(data []byte) *Result {
	if int64(len(data)) > MaxFileSize {
		return tooLarge(int64(len(data)))
	}

	table, rep := tabular.ReadCSV(data, schema.Headers(schema.CandidateCSVSpecs))
	if rep.HasFatal() {
		return fail(rep)
	}

	apps := make([]election.Application, 0, len(table.Rows))
	for i, row := range table.Rows {
		rowNum := i + 2

		vals, errs := schema.Validate(schema.CandidateCSVSpecs, func(name string) (string, bool) {
			if table.Col(name) < 0 {
				return "", false
			}
			return table.Cell(row, name), true
		})
		if len(errs) > 0 {
			fieldErrorsToReport(rep, "", rowNum, errs)
			continue
		}

		apps = append(apps, election.Application{
			Surname:       vals.String(schema.ColNachname),
			GivenName:     vals.String(schema.ColVorname),
			Matriculation: vals.String(schema.ColMatrNr),
			Faculty:       vals.String(schema.ColFakultaet),
			Keywords:      vals.String(schema.ColStichwoerter),
			Notes:         vals.String(schema.ColAnmerkungen),
			Admitted:      vals.Bool(schema.ColZugelassen),
		})
	}

	if rep.HasFatal() {
		return fail(rep)
	}

	im.log.Info("candidate applications accepted",
		"applications", len(apps),
		"encoding", table.UsedEncoding,
	)

	return &Result{
		Success:  true,
		Warnings: rep.Warnings(),
		Stats: &Stats{
			TotalCandidates: len(apps),
			UsedEncoding:    table.UsedEncoding,
		},
		Bundle: &Bundle{Applications: apps},
	}
}
