package tabular

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/uniwahl/wahlportal/internal/report"
)

// Sheet names required in an election workbook.
const (
	SheetElections  = "Wahlen"
	SheetCandidates = "Listenvorlage"
)

// Marker cells in the elections sheet. The voting window instants sit three
// cells to the right of their markers; admins define several elections in one
// workbook sharing that single window.
const (
	MarkerWindowStart = "Wahlzeitraum von"
	MarkerWindowEnd   = "bis"

	windowValueOffset = 3
)

// keyHeaderAliases are the column names observed to carry the election
// identity, in preference order. The first alias present becomes the
// canonical key column; its name is kept for diagnostics.
var keyHeaderAliases = []string{"Wahl Kennung", "Kennung", "Wahlbezeichnung"}

// Record is one data row of a sheet. Line is the 1-based sheet row including
// the header, so candidate record i carries Line == i+2.
type Record struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value under a header, or "" when absent.
func (r Record) Get(header string) string {
	return r.Values[header]
}

// Workbook is the canonical result of reading an XLSX election workbook.
// Formula cells arrive as their computed results.
type Workbook struct {
	ElectionHeaders  []string
	ElectionRecords  []Record
	CandidateHeaders []string
	CandidateRecords []Record

	// KeyHeader / CandidateKeyHeader name the columns that supplied the
	// election identity on each sheet.
	KeyHeader          string
	CandidateKeyHeader string

	WindowStart string
	WindowEnd   string
}

// ReadWorkbook parses XLSX bytes into election and candidate records.
//
// It fails with MISSING_SHEETS when either required sheet is absent, with
// HEADER_MISSING when the elections sheet has no recognisable header row, and
// with NO_ELECTIONS_FOUND when no row carries an election key. The voting
// window from the marker cells is injected into every election record.
func ReadWorkbook(data []byte) (*Workbook, *report.Report) {
	rep := &report.Report{}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		rep.Add(report.Error{Code: report.CodeParse, Message: "Die Datei konnte nicht als Excel-Arbeitsmappe gelesen werden: " + err.Error()})
		return nil, rep
	}
	defer f.Close()

	var missing []string
	for _, name := range []string{SheetElections, SheetCandidates} {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		rep.Addf(report.Error{Code: report.CodeMissingSheets},
			"Folgende Blätter fehlen in der Arbeitsmappe: %s", strings.Join(missing, ", "))
		return nil, rep
	}

	wb := &Workbook{}

	electionRows, err := f.GetRows(SheetElections)
	if err != nil {
		rep.Add(report.Error{Sheet: SheetElections, Code: report.CodeFileRead, Message: "Blatt konnte nicht gelesen werden: " + err.Error()})
		return nil, rep
	}
	trimRows(electionRows)

	wb.WindowStart = markerValue(electionRows, MarkerWindowStart)
	wb.WindowEnd = markerValue(electionRows, MarkerWindowEnd)

	headerIdx, keyCol, keyHeader := findElectionHeader(electionRows)
	if headerIdx < 0 {
		rep.Add(report.Error{Sheet: SheetElections, Code: report.CodeHeaderMissing,
			Message: "Keine Kopfzeile mit \"Kennung\" oder \"Wahl Kennung\" gefunden."})
		return nil, rep
	}
	wb.KeyHeader = keyHeader
	wb.ElectionHeaders = electionRows[headerIdx]

	for i := headerIdx + 1; i < len(electionRows); i++ {
		row := electionRows[i]
		if keyCol >= len(row) || row[keyCol] == "" {
			continue
		}
		rec := makeRecord(i+1, wb.ElectionHeaders, row)
		rec.Values[MarkerWindowStart] = wb.WindowStart
		rec.Values[MarkerWindowEnd] = wb.WindowEnd
		wb.ElectionRecords = append(wb.ElectionRecords, rec)
	}
	if len(wb.ElectionRecords) == 0 {
		rep.Add(report.Error{Sheet: SheetElections, Code: report.CodeNoElectionsFound,
			Message: "Keine Wahlen in der Arbeitsmappe gefunden."})
		return nil, rep
	}

	candidateRows, err := f.GetRows(SheetCandidates)
	if err != nil {
		rep.Add(report.Error{Sheet: SheetCandidates, Code: report.CodeFileRead, Message: "Blatt konnte nicht gelesen werden: " + err.Error()})
		return nil, rep
	}
	trimRows(candidateRows)

	if len(candidateRows) > 0 {
		wb.CandidateHeaders = candidateRows[0]
		for _, alias := range keyHeaderAliases {
			for _, h := range wb.CandidateHeaders {
				if h == alias {
					wb.CandidateKeyHeader = alias
					break
				}
			}
			if wb.CandidateKeyHeader != "" {
				break
			}
		}
		for i := 1; i < len(candidateRows); i++ {
			if IsEmptyRow(candidateRows[i]) {
				continue
			}
			wb.CandidateRecords = append(wb.CandidateRecords, makeRecord(i+1, wb.CandidateHeaders, candidateRows[i]))
		}
	}

	return wb, rep
}

// trimRows trims every cell in place.
func trimRows(rows [][]string) {
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
}

// markerValue scans for a marker cell and returns its third-right neighbour.
func markerValue(rows [][]string, marker string) string {
	for _, row := range rows {
		for c, cell := range row {
			if cell == marker {
				if c+windowValueOffset < len(row) {
					return row[c+windowValueOffset]
				}
				return ""
			}
		}
	}
	return ""
}

// findElectionHeader locates the header row of the elections sheet: the first
// row with a cell containing "Kennung". Returns the row index, the key
// column, and the key header name, or (-1, -1, "").
func findElectionHeader(rows [][]string) (rowIdx, keyCol int, keyHeader string) {
	for i, row := range rows {
		for c, cell := range row {
			if cell == "" {
				continue
			}
			if strings.Contains(cell, "Kennung") {
				return i, c, cell
			}
		}
	}
	return -1, -1, ""
}

// makeRecord maps a row onto its headers, ignoring cells beyond the header
// width. excelize omits trailing empty cells, so short rows are normal.
func makeRecord(line int, headers, row []string) Record {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(row) {
			values[h] = row[i]
		} else {
			values[h] = ""
		}
	}
	return Record{Line: line, Values: values}
}
