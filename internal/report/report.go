// Package report collects the errors produced by the import pipeline and
// addresses each of them by (sheet, row, field, code) so the UI can render a
// row-addressable table.
//
// Row numbers are Excel-style: 1-based and header-inclusive. For candidate
// rows read from a sheet or CSV this means row = array index + 2.
//
// Codes form a closed set. Messages are emitted in German because that is
// the language of the administrative spreadsheets and of the people fixing
// them.
package report

import (
	"fmt"
	"sort"
)

// Code identifies one failure class of the import pipeline.
type Code string

const (
	CodeFileRead           Code = "FILE_READ_ERROR"
	CodeFileTooLarge       Code = "FILE_TOO_LARGE"
	CodeMissingSheets      Code = "MISSING_SHEETS"
	CodeHeaderMissing      Code = "HEADER_MISSING"
	CodeMissingHeaders     Code = "MISSING_HEADERS"
	CodeExtraHeaders       Code = "EXTRA_HEADERS"
	CodeEmptyFile          Code = "EMPTY_FILE"
	CodeNoElectionsFound   Code = "NO_ELECTIONS_FOUND"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeParse              Code = "PARSE_ERROR"
	CodeDuplicateUID       Code = "DUPLICATE_UID"
	CodeDuplicateMtkNr     Code = "DUPLICATE_MTKNR"
	CodeDuplicateListNum   Code = "DUPLICATE_LISTNUM"
	CodeUnknownElection    Code = "UNKNOWN_ELECTION_REF"
	CodeModeMethodMismatch Code = "MODE_METHOD_MISMATCH"
)

// warningCodes are reported but do not reject the file.
var warningCodes = map[Code]bool{
	CodeExtraHeaders:       true,
	CodeModeMethodMismatch: true,
}

// IsWarning reports whether a code is advisory rather than fatal.
func (c Code) IsWarning() bool {
	return warningCodes[c]
}

// Error is one addressable finding. Sheet is empty for CSV sources, Row is 0
// when the finding is not tied to a row, Field is empty when it is not tied
// to a column.
type Error struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field,omitempty"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	loc := ""
	if e.Sheet != "" {
		loc += fmt.Sprintf("Blatt %q ", e.Sheet)
	}
	if e.Row > 0 {
		loc += fmt.Sprintf("Zeile %d ", e.Row)
	}
	if e.Field != "" {
		loc += fmt.Sprintf("Spalte %q ", e.Field)
	}
	return fmt.Sprintf("%s[%s] %s", loc, e.Code, e.Message)
}

// Report accumulates findings in discovery order.
type Report struct {
	errs []Error
}

// Add appends a finding. Discovery order within a stage is preserved.
func (r *Report) Add(e Error) {
	r.errs = append(r.errs, e)
}

// Addf appends a finding with a formatted message.
func (r *Report) Addf(e Error, format string, args ...any) {
	e.Message = fmt.Sprintf(format, args...)
	r.errs = append(r.errs, e)
}

// Merge appends all findings of another report.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.errs = append(r.errs, other.errs...)
}

// Errors returns all findings, fatals and warnings alike, in discovery order.
func (r *Report) Errors() []Error {
	return r.errs
}

// Fatals returns the findings that reject the file.
func (r *Report) Fatals() []Error {
	var out []Error
	for _, e := range r.errs {
		if !e.Code.IsWarning() {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the advisory findings.
func (r *Report) Warnings() []Error {
	var out []Error
	for _, e := range r.errs {
		if e.Code.IsWarning() {
			out = append(out, e)
		}
	}
	return out
}

// HasFatal reports whether the file must be rejected.
func (r *Report) HasFatal() bool {
	for _, e := range r.errs {
		if !e.Code.IsWarning() {
			return true
		}
	}
	return false
}

// Len returns the total number of findings.
func (r *Report) Len() int {
	return len(r.errs)
}

// BySheet groups findings by sheet name, keeping discovery order within each
// group. CSV findings group under the empty key. Group keys are returned
// sorted so the rendering is stable.
func (r *Report) BySheet() (keys []string, groups map[string][]Error) {
	groups = make(map[string][]Error)
	for _, e := range r.errs {
		groups[e.Sheet] = append(groups[e.Sheet], e)
	}
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}
