// Package importer runs the election-configuration ingest pipeline: raw file
// bytes → tabular parse (with encoding negotiation) → row schema → cross-
// record integrity → a validated bundle or a locator-rich error report.
//
// A file is accepted as a whole or rejected as a whole; nothing is uploaded
// while any fatal finding exists. Warnings (extra CSV headers, mode/method
// incoherence) accompany an accepted file.
package importer

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/uniwahl/wahlportal/internal/election"
	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
)

// MaxFileSize is the hard cap on any import file (10 MiB). Exceeding it
// short-circuits before parsing.
var MaxFileSize int64 = 10 * 1024 * 1024

// Bundle is the validated content of an accepted import.
type Bundle struct {
	Elections    []election.Election
	Candidates   []election.Candidate
	Voters       []election.Voter
	Applications []election.Application
}

// Stats summarises an accepted import for the confirmation screen.
type Stats struct {
	TotalVoters     int       `json:"totalVoters,omitempty"`
	TotalCandidates int       `json:"totalCandidates,omitempty"`
	TotalElections  int       `json:"totalElections,omitempty"`
	Faculties       int       `json:"faculties,omitempty"`
	FacultyList     []string  `json:"facultyList,omitempty"`
	TotalSeats      int       `json:"totalSeats,omitempty"`
	Modes           []string  `json:"modes,omitempty"`
	WindowStart     time.Time `json:"windowStart,omitempty"`
	WindowEnd       time.Time `json:"windowEnd,omitempty"`
	UsedEncoding    string    `json:"usedEncoding,omitempty"`
}

// Result is the outcome of one validation run. Success is true iff no fatal
// finding was produced; Bundle and Stats are only set on success. Warnings
// may accompany either outcome.
type Result struct {
	Success  bool           `json:"success"`
	Stats    *Stats         `json:"stats,omitempty"`
	Errors   []report.Error `json:"errors,omitempty"`
	Warnings []report.Error `json:"warnings,omitempty"`

	Bundle *Bundle `json:"-"`
}

// Importer validates import files. It performs no network calls; forwarding
// an accepted file to the voting API is the web layer's business.
type Importer struct {
	log *slog.Logger
}

// New creates an Importer logging through the given sink.
func New(log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{log: log}
}

// fail converts a report into a rejection result.
func fail(rep *report.Report) *Result {
	return &Result{
		Success:  false,
		Errors:   rep.Fatals(),
		Warnings: rep.Warnings(),
	}
}

// tooLarge builds the FILE_TOO_LARGE short-circuit result.
func tooLarge(size int64) *Result {
	return &Result{
		Success: false,
		Errors: []report.Error{{
			Code:    report.CodeFileTooLarge,
			Message: fmt.Sprintf("Die Datei ist zu groß (%d Byte, erlaubt sind %d MiB).", size, MaxFileSize/(1024*1024)),
		}},
	}
}

// fieldErrorsToReport translates row-schema violations into addressable
// report entries. The schema's raw validation code stays visible in the
// message so the UI can render the original cause.
func fieldErrorsToReport(rep *report.Report, sheet string, row int, errs []schema.FieldError) {
	for _, fe := range errs {
		rep.Add(report.Error{
			Sheet:   sheet,
			Row:     row,
			Field:   fe.Field,
			Code:    report.CodeValidation,
			Message: fmt.Sprintf("%s (%s)", fe.Message, fe.Code),
		})
	}
}

// sortedSet returns the distinct values in sorted order.
func sortedSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// instantFormats are the accepted voting-window formats, most specific first.
var instantFormats = []string{
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
	"01-02-06 15:04",
	"01-02-06",
}

// parseInstant parses a voting-window cell.
func parseInstant(s string) (time.Time, error) {
	for _, layout := range instantFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised instant %q", s)
}
