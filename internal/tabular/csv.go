// Package tabular turns raw CSV or XLSX workbook bytes into a canonical row
// stream. It owns the binary/text concerns of the import pipeline: UTF-8 BOM
// stripping, cell trimming, blank-line skipping, and the UTF-8 → ISO-8859-1
// fallback that desktop spreadsheet exports with German umlauts require.
//
// Everything downstream (schema validation, integrity checks) operates on the
// trimmed string cells produced here and never touches bytes again.
package tabular

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"github.com/uniwahl/wahlportal/internal/report"
)

// Encodings reported in Table.UsedEncoding.
const (
	EncodingUTF8   = "UTF-8"
	EncodingLatin1 = "ISO-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is the canonical result of reading a CSV source. Rows hold trimmed
// cells; fully blank lines are already dropped. Row i of Rows corresponds to
// file row i+2 (1-based, header row = 1).
type Table struct {
	Headers      []string
	Rows         [][]string
	UsedEncoding string
	ExtraHeaders []string

	index map[string]int
}

// Col returns the position of a header, or -1 when absent. Matching is exact
// on the trimmed header text.
func (t *Table) Col(header string) int {
	if pos, ok := t.index[header]; ok {
		return pos
	}
	return -1
}

// Cell returns the trimmed cell of a data row under the given header, or ""
// when the row is short or the header is absent.
func (t *Table) Cell(row []string, header string) string {
	pos := t.Col(header)
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// ReadCSV parses CSV bytes against an expected header set.
//
// Decoding is attempted as UTF-8 first. If any expected header containing a
// non-ASCII letter is absent afterwards, the same bytes are re-decoded as
// ISO-8859-1 and parsed again; the winning encoding is recorded in
// Table.UsedEncoding. After decoding, all expected headers must be present
// (MISSING_HEADERS is fatal), extraneous headers are warned about
// (EXTRA_HEADERS), and at least one non-empty data row must exist
// (EMPTY_FILE).
func ReadCSV(data []byte, expected []string) (*Table, *report.Report) {
	rep := &report.Report{}

	data = bytes.TrimPrefix(data, utf8BOM)

	table, err := parseCSV(data)
	if err != nil {
		rep.Add(report.Error{Code: report.CodeParse, Message: "Die Datei konnte nicht als CSV gelesen werden: " + err.Error()})
		return nil, rep
	}
	table.UsedEncoding = EncodingUTF8

	// Exports from desktop spreadsheet tools are commonly Latin-1. A mangled
	// umlaut header is the tell: retry the same bytes as ISO-8859-1.
	if missesUmlautHeader(table, expected) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if decErr == nil {
			if retried, retryErr := parseCSV(decoded); retryErr == nil {
				retried.UsedEncoding = EncodingLatin1
				table = retried
			}
		}
	}

	if len(table.Headers) == 0 {
		rep.Add(report.Error{Code: report.CodeEmptyFile, Message: "Die Datei enthält keine Kopfzeile."})
		return nil, rep
	}

	var missing []string
	for _, h := range expected {
		if table.Col(h) < 0 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		rep.Addf(report.Error{Row: 1, Code: report.CodeMissingHeaders},
			"Folgende Spalten fehlen: %s", strings.Join(missing, ", "))
		return nil, rep
	}

	expectedSet := make(map[string]bool, len(expected))
	for _, h := range expected {
		expectedSet[h] = true
	}
	for _, h := range table.Headers {
		if !expectedSet[h] {
			table.ExtraHeaders = append(table.ExtraHeaders, h)
		}
	}
	if len(table.ExtraHeaders) > 0 {
		rep.Addf(report.Error{Row: 1, Code: report.CodeExtraHeaders},
			"Unerwartete Spalten werden ignoriert: %s", strings.Join(table.ExtraHeaders, ", "))
	}

	if len(table.Rows) == 0 {
		rep.Add(report.Error{Code: report.CodeEmptyFile, Message: "Die Datei enthält keine Datenzeilen."})
		return nil, rep
	}

	return table, rep
}

// parseCSV reads all records, trims every cell, and drops fully blank lines.
func parseCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	t := &Table{index: make(map[string]int)}
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if IsEmptyRow(rec) {
			continue
		}
		if t.Headers == nil {
			t.Headers = rec
			for i, h := range rec {
				if _, exists := t.index[h]; !exists {
					t.index[h] = i
				}
			}
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// missesUmlautHeader reports whether any expected header with a non-ASCII
// letter failed to appear, which indicates a wrongly decoded Latin-1 file.
func missesUmlautHeader(t *Table, expected []string) bool {
	for _, h := range expected {
		if hasNonASCII(h) && t.Col(h) < 0 {
			return true
		}
	}
	return false
}

func hasNonASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// IsEmptyRow reports whether every cell of a row is blank.
func IsEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
