package importer

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
)

var voterHeader = strings.Join(schema.Headers(schema.VoterSpecs), ",")

func voterFile(rows ...string) []byte {
	return []byte(strings.Join(append([]string{voterHeader}, rows...), "\n"))
}

func findCode(errs []report.Error, code report.Code) *report.Error {
	for i := range errs {
		if errs[i].Code == code {
			return &errs[i]
		}
	}
	return nil
}

func TestVotersAccepted(t *testing.T) {
	res := New(nil).Voters(voterFile(
		"abcd1234,ET,Erika,Muster,12345,ETIT,Elektrotechnik",
		"wxyz9876,MB,Max,Muster,67890,MBAU,Maschinenbau",
		"qrst5555,ET,Jana,Beispiel,11111,ETIT,Elektrotechnik",
	))

	if !res.Success {
		t.Fatalf("expected acceptance, got errors: %v", res.Errors)
	}
	if res.Stats.TotalVoters != 3 {
		t.Errorf("TotalVoters = %d, want 3", res.Stats.TotalVoters)
	}
	if res.Stats.Faculties != 2 {
		t.Errorf("Faculties = %d, want 2", res.Stats.Faculties)
	}
	if want := []string{"ET", "MB"}; strings.Join(res.Stats.FacultyList, ",") != strings.Join(want, ",") {
		t.Errorf("FacultyList = %v, want sorted %v", res.Stats.FacultyList, want)
	}
	if len(res.Bundle.Voters) != 3 {
		t.Fatalf("bundle has %d voters, want 3", len(res.Bundle.Voters))
	}
	if v := res.Bundle.Voters[0]; v.UID != "abcd1234" || v.ProgrammeCode != "ETIT" {
		t.Errorf("first voter = %+v", v)
	}
}

func TestVotersWholeFileRejection(t *testing.T) {
	// One bad row rejects the file; the good rows are not uploaded partially.
	res := New(nil).Voters(voterFile(
		"abcd1234,ET,Erika,Muster,12345,ETIT,Elektrotechnik",
		"kaputt,ET,Max,Muster,67890,MBAU,Maschinenbau",
	))

	if res.Success {
		t.Fatal("file with an invalid row must be rejected as a whole")
	}
	if res.Bundle != nil {
		t.Error("rejected file must not carry a bundle")
	}
	e := findCode(res.Errors, report.CodeValidation)
	if e == nil {
		t.Fatalf("want a VALIDATION_ERROR, got %v", res.Errors)
	}
	if e.Row != 3 {
		t.Errorf("Row = %d, want 3 (second data row, Excel numbering)", e.Row)
	}
	if e.Field != schema.ColRZKennung {
		t.Errorf("Field = %q, want %q", e.Field, schema.ColRZKennung)
	}
}

func TestVotersDuplicateUID(t *testing.T) {
	res := New(nil).Voters(voterFile(
		"abcd1234,ET,Erika,Muster,12345,ETIT,Elektrotechnik",
		"abcd1234,MB,Max,Muster,67890,MBAU,Maschinenbau",
	))

	if res.Success {
		t.Fatal("duplicate UID must reject the file")
	}
	e := findCode(res.Errors, report.CodeDuplicateUID)
	if e == nil {
		t.Fatalf("want DUPLICATE_UID, got %v", res.Errors)
	}
	if e.Row != 3 {
		t.Errorf("Row = %d, want the second occurrence (3)", e.Row)
	}
	// Both rows are named so the admin can fix either.
	for _, part := range []string{"abcd1234", "Zeilen 2 und 3"} {
		if !strings.Contains(e.Message, part) {
			t.Errorf("message %q should contain %q", e.Message, part)
		}
	}
}

func TestVotersDuplicateMatriculation(t *testing.T) {
	res := New(nil).Voters(voterFile(
		"abcd1234,ET,Erika,Muster,12345,ETIT,Elektrotechnik",
		"wxyz9876,MB,Max,Muster,12345,MBAU,Maschinenbau",
	))

	if res.Success {
		t.Fatal("duplicate matriculation number must reject the file")
	}
	if findCode(res.Errors, report.CodeDuplicateMtkNr) == nil {
		t.Errorf("want DUPLICATE_MTKNR, got %v", res.Errors)
	}
}

func TestVotersLatin1Roll(t *testing.T) {
	data, err := charmap.ISO8859_1.NewEncoder().Bytes(voterFile(
		"abcd1234,ET,Jürgen,Müller,12345,ETIT,Elektrotechnik",
	))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	res := New(nil).Voters(data)
	if !res.Success {
		t.Fatalf("Latin-1 roll should be accepted, got %v", res.Errors)
	}
	if res.Stats.UsedEncoding != "ISO-8859-1" {
		t.Errorf("UsedEncoding = %q, want ISO-8859-1", res.Stats.UsedEncoding)
	}
	if got := res.Bundle.Voters[0].Surname; got != "Müller" {
		t.Errorf("Surname = %q, want re-decoded umlaut", got)
	}
}

func TestVotersFileTooLarge(t *testing.T) {
	old := MaxFileSize
	MaxFileSize = 64
	defer func() { MaxFileSize = old }()

	res := New(nil).Voters(make([]byte, 65))
	if res.Success {
		t.Fatal("oversized file must be rejected")
	}
	if res.Errors[0].Code != report.CodeFileTooLarge {
		t.Errorf("code = %s, want FILE_TOO_LARGE", res.Errors[0].Code)
	}
}

func TestVotersEmptyFile(t *testing.T) {
	res := New(nil).Voters(voterFile())
	if res.Success {
		t.Fatal("headers-only file must be rejected")
	}
	if findCode(res.Errors, report.CodeEmptyFile) == nil {
		t.Errorf("want EMPTY_FILE, got %v", res.Errors)
	}
}

func TestVotersExtraHeaderWarns(t *testing.T) {
	data := []byte(voterHeader + ",Bemerkung\n" +
		"abcd1234,ET,Erika,Muster,12345,ETIT,Elektrotechnik,hallo")

	res := New(nil).Voters(data)
	if !res.Success {
		t.Fatalf("extra header must not reject, got %v", res.Errors)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != report.CodeExtraHeaders {
		t.Errorf("want one EXTRA_HEADERS warning, got %v", res.Warnings)
	}
}
