package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"fjacquet/ekstre-csv/internal/admin"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/pipeline"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Output modes of the convert and download endpoints.
const (
	outputJSON = "json"
)

func pathField(r *http.Request) logging.Field {
	return logging.F("path", r.URL.Path)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func (s *Server) maxUploadBytes() int64 {
	if s.deps.Admin != nil {
		return s.deps.Admin.Settings().MaxUploadBytes()
	}
	return int64(admin.DefaultMaxUploadMB) << 20
}

// uploadedFile returns the multipart "file" field. On failure it has
// already written the response.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	limit := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds the %d MB upload limit", limit>>20), "FILE_TOO_LARGE")
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", "BAD_FORM")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided", "NO_FILE")
		return nil, "", false
	}
	return file, filepath.Base(header.Filename), true
}

// outputOptions resolves the "output" query parameter against the defaults.
func (s *Server) outputOptions(r *http.Request, fallback string) (pipeline.OutputOptions, bool) {
	o := s.deps.Output
	switch out := r.URL.Query().Get("output"); out {
	case "":
		o.Format = fallback
	case outputJSON, pipeline.OutputCSV, pipeline.OutputXLSX:
		o.Format = out
	default:
		return o, false
	}
	return o, true
}

// writeLedgerFile streams a ledger as an attachment.
func (s *Server) writeLedgerFile(w http.ResponseWriter, r *http.Request, name string, table models.LedgerTable, o pipeline.OutputOptions) bool {
	w.Header().Set("Content-Type", o.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(pipeline.LedgerPath("", name, o))))
	if err := pipeline.WriteLedger(w, table, o); err != nil {
		s.logger.WithError(err).Error("Failed to write ledger", pathField(r))
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := s.deps.Registry.Snapshot()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, formats)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	file, name, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	table, err := s.deps.Converter.Read(name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	d, err := s.deps.Converter.Classify(table, name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// convertResponse is the JSON body of a conversion.
type convertResponse struct {
	StatementID    string                        `json:"statement_id,omitempty"`
	FileName       string                        `json:"file_name"`
	Diagnostics    pipeline.Diagnostics          `json:"diagnostics"`
	Transactions   []models.CanonicalTransaction `json:"transactions"`
	Ledger         []models.LedgerEntry          `json:"ledger"`
	SeparatorIndex int                           `json:"separator_index"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	o, ok := s.outputOptions(r, outputJSON)
	if !ok {
		writeError(w, http.StatusBadRequest, "output must be json, csv or xlsx", "BAD_OUTPUT")
		return
	}
	file, name, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	res, err := s.deps.Converter.ConvertReader(r.Context(), name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if o.Format == outputJSON {
		resp := convertResponse{
			FileName:       res.FileName,
			Diagnostics:    res.Diagnostics,
			Transactions:   res.Transactions,
			Ledger:         res.Ledger,
			SeparatorIndex: res.Ledger.SeparatorIndex(),
		}
		if res.StatementID != uuid.Nil {
			resp.StatementID = res.StatementID.String()
		}
		writeJSON(w, resp)
		return
	}

	if s.writeLedgerFile(w, r, name, res.Ledger, o) {
		s.recordExport(r, res.StatementID, o)
	}
}

// recordExport stores a download in history; failures are only logged.
func (s *Server) recordExport(r *http.Request, id uuid.UUID, o pipeline.OutputOptions) {
	if err := s.deps.Converter.RecordExport(r.Context(), id, o.Format, map[string]string{
		"delimiter": string(o.CSV.Delimiter),
		"bom":       strconv.FormatBool(o.CSV.BOM),
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record export", logging.F(logging.FieldStatementID, id.String()))
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", s.deps.RecentLimit)
	recent, err := s.deps.History.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, recent)
}

func (s *Server) statementID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid statement id", "BAD_ID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.statementID(w, r)
	if !ok {
		return
	}
	st, err := s.deps.History.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleHistoryDownload(w http.ResponseWriter, r *http.Request) {
	o, ok := s.outputOptions(r, s.deps.Output.Format)
	if !ok || o.Format == outputJSON {
		writeError(w, http.StatusBadRequest, "output must be csv or xlsx", "BAD_OUTPUT")
		return
	}
	id, ok := s.statementID(w, r)
	if !ok {
		return
	}
	st, err := s.deps.History.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if s.writeLedgerFile(w, r, st.FileName, st.Ledger, o) {
		s.recordExport(r, st.ID, o)
	}
}

func (s *Server) handleAdminListFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := s.deps.Registry.All()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, formats)
}

func decodeFormat(r *http.Request) (models.FormatDescriptor, error) {
	var f models.FormatDescriptor
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		return f, fmt.Errorf("invalid format body: %w", err)
	}
	return f, nil
}

func (s *Server) handleCreateFormat(w http.ResponseWriter, r *http.Request) {
	f, err := decodeFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_BODY")
		return
	}
	if err := s.deps.Registry.Add(f); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.deps.Registry.Get(f.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateFormat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := decodeFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_BODY")
		return
	}
	if err := s.deps.Registry.Update(id, f); err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.deps.Registry.Get(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteFormat(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Registry.Delete(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.History.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	days := admin.DefaultRetentionDays
	if s.deps.Admin != nil {
		days = s.deps.Admin.Settings().FileRetentionDays
	}
	days = parseIntParam(r, "days", days)

	deleted, err := s.deps.History.CleanOlderThan(r.Context(), days)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("Cleaned conversion history",
		logging.F(logging.FieldCount, deleted),
		logging.F("days", days))
	writeJSON(w, map[string]int{"deleted": deleted, "days": days})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.History.Purge(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Warn("Purged conversion history")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.deps.Admin.Settings())
}

type settingsRequest struct {
	FileRetentionDays int `json:"file_retention_days"`
	MaxUploadSizeMB   int `json:"max_upload_size_mb"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	current := s.deps.Admin.Settings()
	req := settingsRequest{
		FileRetentionDays: current.FileRetentionDays,
		MaxUploadSizeMB:   current.MaxUploadSizeMB,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body", "BAD_BODY")
		return
	}
	if err := s.deps.Admin.UpdateSettings(req.FileRetentionDays, req.MaxUploadSizeMB); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, s.deps.Admin.Settings())
}

type passwordRequest struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid password body", "BAD_BODY")
		return
	}
	if err := s.deps.Admin.ChangePassword(req.Current, req.New, req.Confirm); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
