package importer

import (
	"strings"
	"testing"

	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
)

func candidateFile(rows ...string) []byte {
	header := strings.Join(schema.Headers(schema.CandidateCSVSpecs), ",")
	return []byte(strings.Join(append([]string{header}, rows...), "\n"))
}

func TestCandidatesCSVAccepted(t *testing.T) {
	res := New(nil).CandidatesCSV(candidateFile(
		"Muster,Erika,12345,ET,Hochschulpolitik,,ja",
		"Muster,Max,67890,MB,,Nachrücker,nein",
		"Beispiel,Jana,11111,,,,",
	))

	if !res.Success {
		t.Fatalf("expected acceptance, got errors: %v", res.Errors)
	}
	if res.Stats.TotalCandidates != 3 {
		t.Errorf("TotalCandidates = %d, want 3", res.Stats.TotalCandidates)
	}
	apps := res.Bundle.Applications
	if !apps[0].Admitted {
		t.Error("first application should be admitted")
	}
	if apps[1].Admitted || apps[2].Admitted {
		t.Error("nein and empty should both mean not admitted")
	}
	if apps[1].Notes != "Nachrücker" {
		t.Errorf("Notes = %q", apps[1].Notes)
	}
}

func TestCandidatesCSVRejected(t *testing.T) {
	res := New(nil).CandidatesCSV(candidateFile(
		"Muster,Erika,12345,ET,,,ja",
		",Max,abc,MB,,,vielleicht",
	))

	if res.Success {
		t.Fatal("invalid rows must reject the file")
	}
	// The bad row violates three specs at once; all are collected.
	var rowErrs []report.Error
	for _, e := range res.Errors {
		if e.Row == 3 {
			rowErrs = append(rowErrs, e)
		}
	}
	if len(rowErrs) != 3 {
		t.Errorf("got %d findings for row 3, want 3: %v", len(rowErrs), rowErrs)
	}
}

func TestCandidatesCSVMissingHeaders(t *testing.T) {
	res := New(nil).CandidatesCSV([]byte("Nachname,Vorname\nMuster,Erika"))
	if res.Success {
		t.Fatal("missing headers must reject the file")
	}
	if findCode(res.Errors, report.CodeMissingHeaders) == nil {
		t.Errorf("want MISSING_HEADERS, got %v", res.Errors)
	}
}
