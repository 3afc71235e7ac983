package importer

import (
	"github.com/uniwahl/wahlportal/internal/election"
	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
	"github.com/uniwahl/wahlportal/internal/tabular"
)

// Workbook validates an XLSX election workbook: the elections sheet, the
// candidate list sheet, and the cross-record rules tying them together.
func (im *Importer) Workbook(data []byte) *Result {
	if int64(len(data)) > MaxFileSize {
		return tooLarge(int64(len(data)))
	}

	wb, rep := tabular.ReadWorkbook(data)
	if rep.HasFatal() {
		return fail(rep)
	}

	windowStart, err := parseInstant(wb.WindowStart)
	if err != nil {
		rep.Add(report.Error{
			Sheet:   tabular.SheetElections,
			Field:   tabular.MarkerWindowStart,
			Code:    report.CodeValidation,
			Message: "Der Beginn des Wahlzeitraums fehlt oder ist kein gültiger Zeitpunkt.",
		})
	}
	windowEnd, err := parseInstant(wb.WindowEnd)
	if err != nil {
		rep.Add(report.Error{
			Sheet:   tabular.SheetElections,
			Field:   tabular.MarkerWindowEnd,
			Code:    report.CodeValidation,
			Message: "Das Ende des Wahlzeitraums fehlt oder ist kein gültiger Zeitpunkt.",
		})
	}

	// Elections sheet rows. The key cell may sit under any of the known
	// aliases; the workbook reader already picked the canonical column.
	elections := make([]election.Election, 0, len(wb.ElectionRecords))
	for _, rec := range wb.ElectionRecords {
		vals, errs := schema.Validate(electionSpecsFor(wb.KeyHeader), func(name string) (string, bool) {
			v, ok := rec.Values[name]
			return v, ok
		})
		if len(errs) > 0 {
			fieldErrorsToReport(rep, tabular.SheetElections, rec.Line, errs)
			continue
		}

		elections = append(elections, election.Election{
			Key:                vals.String(wb.KeyHeader),
			Info:               vals.String(schema.ColInfo),
			Start:              windowStart,
			End:                windowEnd,
			Mode:               election.Mode(vals.String(schema.ColWahlart)),
			CountingMethod:     election.CountingMethod(vals.String(schema.ColVerfahren)),
			Lists:              vals.Int(schema.ColListen),
			Seats:              vals.Int(schema.ColPlaetze),
			VotesPerBallot:     vals.Int(schema.ColStimmen),
			MaxCumulativeVotes: vals.Int(schema.ColMaxKum),
		})
	}

	// Candidate sheet rows.
	var candidates []election.Candidate
	keyHeader := wb.CandidateKeyHeader
	if len(wb.CandidateRecords) > 0 && keyHeader == "" {
		rep.Add(report.Error{
			Sheet:   tabular.SheetCandidates,
			Row:     1,
			Code:    report.CodeMissingHeaders,
			Message: "Keine Spalte mit der Wahl-Kennung gefunden.",
		})
	} else {
		candidateSpecs := append([]schema.FieldSpec{schema.CandidateKeySpec(keyHeader)}, schema.CandidateSpecs...)
		for _, rec := range wb.CandidateRecords {
			vals, errs := schema.Validate(candidateSpecs, func(name string) (string, bool) {
				v, ok := rec.Values[name]
				return v, ok
			})
			if len(errs) > 0 {
				fieldErrorsToReport(rep, tabular.SheetCandidates, rec.Line, errs)
				continue
			}

			candidates = append(candidates, election.Candidate{
				ElectionKey:    vals.String(keyHeader),
				ListNumber:     vals.Int(schema.ColNr),
				GivenName:      vals.String(schema.ColVorname),
				Surname:        vals.String(schema.ColNachname),
				StudentID:      vals.String(schema.ColMatrNr),
				Faculty:        vals.String(schema.ColFakultaet),
				StudyProgramme: vals.String(schema.ColStudiengang),
				Keyword:        vals.String(schema.ColStichwort),
				Info:           vals.String(schema.ColInfo),
			})
		}
	}

	// Integrity runs only over a schema-clean bundle: a row that already
	// failed would produce misleading reference errors on top.
	if !rep.HasFatal() {
		checkWorkbookIntegrity(rep, wb, elections, candidates)
	}
	if rep.HasFatal() {
		return fail(rep)
	}

	totalSeats := 0
	modes := make([]string, len(elections))
	for i, e := range elections {
		totalSeats += e.Seats
		modes[i] = string(e.Mode)
	}

	im.log.Info("election workbook accepted",
		"elections", len(elections),
		"candidates", len(candidates),
	)

	return &Result{
		Success:  true,
		Warnings: rep.Warnings(),
		Stats: &Stats{
			TotalElections:  len(elections),
			TotalCandidates: len(wb.CandidateRecords),
			TotalSeats:      totalSeats,
			Modes:           sortedSet(modes),
			WindowStart:     windowStart,
			WindowEnd:       windowEnd,
		},
		Bundle: &Bundle{Elections: elections, Candidates: candidates},
	}
}

// electionSpecsFor swaps the identity spec's header name for the one the
// sheet actually used ("Kennung", "Wahl Kennung", or "Wahlbezeichnung").
func electionSpecsFor(keyHeader string) []schema.FieldSpec {
	specs := make([]schema.FieldSpec, len(schema.ElectionSpecs))
	copy(specs, schema.ElectionSpecs)
	for i := range specs {
		if specs[i].Name == schema.ColKennung {
			specs[i].Name = keyHeader
		}
	}
	return specs
}
