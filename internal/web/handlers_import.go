package web

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/uniwahl/wahlportal/internal/client"
	"github.com/uniwahl/wahlportal/internal/importer"
	"github.com/uniwahl/wahlportal/internal/logging"
	"github.com/uniwahl/wahlportal/internal/report"
	"github.com/uniwahl/wahlportal/internal/schema"
	"github.com/uniwahl/wahlportal/internal/tabular"
)

// importKinds maps the URL segment to the upload endpoint kind.
var importKinds = map[string]client.UploadKind{
	"voters":     client.UploadVoters,
	"candidates": client.UploadCandidates,
	"elections":  client.UploadElections,
}

// readImportFile extracts the uploaded file from a multipart form. The size
// cap leaves headroom over the import limit so the importer can produce its
// own FILE_TOO_LARGE finding instead of an opaque 413.
func (s *Server) readImportFile(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize*2)

	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		return "", nil, fmt.Errorf("multipart parse: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	return header.Filename, data, nil
}

// runValidation dispatches a file to the pipeline for its kind.
func (s *Server) runValidation(kind string, data []byte) *importer.Result {
	switch kind {
	case "voters":
		return s.importer.Voters(data)
	case "candidates":
		return s.importer.CandidatesCSV(data)
	case "elections":
		return s.importer.Workbook(data)
	default:
		return nil
	}
}

// handleValidate runs the local validation pipeline on an uploaded file and
// returns the full verdict. Nothing is forwarded to the voting API.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, ok := importKinds[kind]; !ok {
		writeError(w, r, http.StatusNotFound, "unbekannter Importtyp: "+kind)
		return
	}
	if !s.gate.TryAcquire(kind) {
		writeError(w, r, http.StatusConflict, "Für diesen Importtyp läuft bereits eine Prüfung.")
		return
	}
	defer s.gate.Release(kind)

	filename, data, err := s.readImportFile(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	log := logging.WithFields(r.Context(), "kind", kind, "file", filename, "size", len(data))
	start := time.Now()
	result := s.runValidation(kind, data)
	log.Info("validation finished",
		"success", result.Success,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"duration", time.Since(start),
	)

	writeJSON(w, http.StatusOK, result)
}

// handleUpload validates the file locally and, only when it is accepted,
// forwards the unmodified bytes to the voting API. A rejected file never
// leaves this service.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	uploadKind, ok := importKinds[kind]
	if !ok {
		writeError(w, r, http.StatusNotFound, "unbekannter Importtyp: "+kind)
		return
	}
	if !s.gate.TryAcquire(kind) {
		writeError(w, r, http.StatusConflict, "Für diesen Importtyp läuft bereits eine Prüfung.")
		return
	}
	defer s.gate.Release(kind)

	filename, data, err := s.readImportFile(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	log := logging.WithFields(r.Context(), "kind", kind, "file", filename, "size", len(data))
	result := s.runValidation(kind, data)
	if !result.Success {
		log.Warn("upload rejected by local validation", "errors", len(result.Errors))
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	resp, err := s.api.Upload(r.Context(), uploadKind, filename, data)
	if err != nil {
		log.Error("forwarding upload failed", "error", err)
		writeAPIError(w, r, err)
		return
	}
	log.Info("upload forwarded", "server_success", resp.Success)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  resp.Success,
		"message":  resp.Message,
		"stats":    result.Stats,
		"warnings": result.Warnings,
	})
}

// handleValidateExport runs validation and streams the findings as a
// semicolon-separated CSV for offline review.
func (s *Server) handleValidateExport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, ok := importKinds[kind]; !ok {
		writeError(w, r, http.StatusNotFound, "unbekannter Importtyp: "+kind)
		return
	}
	if !s.gate.TryAcquire(kind) {
		writeError(w, r, http.StatusConflict, "Für diesen Importtyp läuft bereits eine Prüfung.")
		return
	}
	defer s.gate.Release(kind)

	_, data, err := s.readImportFile(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	result := s.runValidation(kind, data)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "pruefbericht-"+kind+".csv"))

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.Write([]string{"Schwere", "Blatt", "Zeile", "Spalte", "Code", "Meldung"})
	writeFindings := func(severity string, findings []report.Error) {
		for _, e := range findings {
			row := ""
			if e.Row > 0 {
				row = fmt.Sprintf("%d", e.Row)
			}
			cw.Write([]string{severity, e.Sheet, row, e.Field, string(e.Code), e.Message})
		}
	}
	writeFindings("Fehler", result.Errors)
	writeFindings("Warnung", result.Warnings)
	cw.Flush()
}

// templateHeaders returns the expected column headers per CSV kind.
func templateHeaders(kind string) []string {
	switch kind {
	case "voters":
		return schema.Headers(schema.VoterSpecs)
	case "candidates":
		return schema.Headers(schema.CandidateCSVSpecs)
	default:
		return nil
	}
}

// handleDownloadTemplate serves an empty import template: a headers-only CSV
// for the row-based kinds, a two-sheet workbook skeleton for elections.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	if kind == "elections" {
		s.serveWorkbookTemplate(w, r)
		return
	}

	headers := templateHeaders(kind)
	if headers == nil {
		writeError(w, r, http.StatusNotFound, "unbekannter Importtyp: "+kind)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "vorlage-"+kind+".csv"))
	cw := csv.NewWriter(w)
	cw.Write(headers)
	cw.Flush()
}

// serveWorkbookTemplate builds the election workbook skeleton: the elections
// sheet with the voting-window marker row and the column headers, and the
// candidates sheet with its headers.
func (s *Server) serveWorkbookTemplate(w http.ResponseWriter, r *http.Request) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", tabular.SheetElections)
	f.NewSheet(tabular.SheetCandidates)

	f.SetCellValue(tabular.SheetElections, "A1", tabular.MarkerWindowStart)
	f.SetCellValue(tabular.SheetElections, "D1", "")
	f.SetCellValue(tabular.SheetElections, "E1", tabular.MarkerWindowEnd)
	f.SetCellValue(tabular.SheetElections, "H1", "")
	f.SetSheetRow(tabular.SheetElections, "A2", &[]any{
		schema.ColKennung, schema.ColInfo, schema.ColListen, schema.ColPlaetze,
		schema.ColStimmen, schema.ColMaxKum, schema.ColWahlart, schema.ColVerfahren,
	})
	f.SetSheetRow(tabular.SheetCandidates, "A1", &[]any{
		schema.ColWahlKennung, schema.ColNr, schema.ColVorname, schema.ColNachname,
		schema.ColMatrNr, schema.ColFakultaet, schema.ColStudiengang, schema.ColStichwort,
		schema.ColInfo,
	})

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="vorlage-wahlen.xlsx"`)
	if err := f.Write(w); err != nil {
		logging.FromContext(r.Context()).Error("failed to write workbook template", "error", err)
	}
}
