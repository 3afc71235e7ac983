package importer

import (
	"fmt"

	"github.com/uniwahl/wahlportal/internal/election"
	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
	"github.com/uniwahl/wahlportal/internal/tabular"
)

// checkWorkbookIntegrity runs the cross-record pass over a schema-clean
// workbook. It assumes elections[i] corresponds to wb.ElectionRecords[i] and
// candidates[i] to wb.CandidateRecords[i], which holds exactly when no row
// failed schema validation.
//
// Checks, in order: election key uniqueness, candidate → election reference,
// per-election list number uniqueness, and mode/method coherence. Coherence
// violations are warnings and never block the import.
func checkWorkbookIntegrity(rep *report.Report, wb *tabular.Workbook, elections []election.Election, candidates []election.Candidate) {
	keyRow := make(map[string]int, len(elections))
	for i, e := range elections {
		line := wb.ElectionRecords[i].Line
		if first, dup := keyRow[e.Key]; dup {
			rep.Add(report.Error{
				Sheet:   tabular.SheetElections,
				Row:     line,
				Field:   wb.KeyHeader,
				Code:    report.CodeValidation,
				Message: fmt.Sprintf("Die Kennung %q kommt mehrfach vor (Zeilen %d und %d).", e.Key, first, line),
			})
			continue
		}
		keyRow[e.Key] = line
	}

	// Candidate rows must reference a known election, and within one
	// election every list number may appear once.
	type listKey struct {
		election string
		nr       int
	}
	listRow := make(map[listKey]int, len(candidates))

	for i, c := range candidates {
		line := wb.CandidateRecords[i].Line

		if _, known := keyRow[c.ElectionKey]; !known {
			rep.Add(report.Error{
				Sheet:   tabular.SheetCandidates,
				Row:     line,
				Field:   wb.CandidateKeyHeader,
				Code:    report.CodeUnknownElection,
				Message: fmt.Sprintf("Die Wahl %q ist in der Arbeitsmappe nicht definiert.", c.ElectionKey),
			})
			continue
		}

		k := listKey{election: c.ElectionKey, nr: c.ListNumber}
		if first, dup := listRow[k]; dup {
			rep.Add(report.Error{
				Sheet:   tabular.SheetCandidates,
				Row:     line,
				Field:   schema.ColNr,
				Code:    report.CodeDuplicateListNum,
				Message: fmt.Sprintf("Listenplatz %d ist in der Wahl %q doppelt vergeben (Zeilen %d und %d).", c.ListNumber, c.ElectionKey, first, line),
			})
			continue
		}
		listRow[k] = line
	}

	for i, e := range elections {
		if !election.MethodMatchesMode(e.Mode, e.CountingMethod) {
			rep.Add(report.Error{
				Sheet:   tabular.SheetElections,
				Row:     wb.ElectionRecords[i].Line,
				Field:   schema.ColVerfahren,
				Code:    report.CodeModeMethodMismatch,
				Message: fmt.Sprintf("Das Auszählungsverfahren %q passt nicht zur Wahlart %q.", e.CountingMethod, e.Mode),
			})
		}
	}
}
