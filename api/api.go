// Package api is the HTTP boundary of the record server. A presentation
// shell calls these endpoints with validated primitive inputs and renders the
// returned values and signals; all widgets, file pickers and chart rendering
// live on the shell side.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/record"
)

// maxUploadSize caps bulk import uploads at 10 MB.
const maxUploadSize = 10 << 20

const exportFilename = "students_data.csv"

// Server handles HTTP requests against the student record collection.
type Server struct {
	db RecordDatabase
}

// NewServer creates a new instance of *Server.
func NewServer(db RecordDatabase) (*Server, error) {
	if db == nil {
		return nil, errors.New("a record database is required")
	}

	return &Server{db: db}, nil
}

// RegisterRoutes mounts all record endpoints on mux.
func (s *Server) RegisterRoutes(mux *chi.Mux) {
	mux.Get("/records", s.handleListRecords)
	mux.Post("/records", s.handleAddRecord)
	mux.Delete("/records", s.handleReset)
	mux.Patch("/records/{rollNo}/marks", s.handleUpdateMarks)
	mux.Delete("/records/{rollNo}", s.handleDeleteRecord)
	mux.Post("/records/import", s.handleImportRecords)
	mux.Get("/records/export", s.handleExportRecords)
	mux.Get("/records/summary", s.handleSummary)
}

// handleListRecords returns the full collection in insertion order.
func (s *Server) handleListRecords(res http.ResponseWriter, req *http.Request) {
	records, err := s.db.Records()
	if err != nil {
		sendError(res, err)
		return
	}

	if records == nil {
		records = []*record.StudentRecord{}
	}

	sendJSON(res, http.StatusOK, records)
}

type addRecordRequest struct {
	Name   string  `json:"name"`
	RollNo string  `json:"roll_no"`
	Marks  float64 `json:"marks"`
}

// handleAddRecord appends a single student record.
func (s *Server) handleAddRecord(res http.ResponseWriter, req *http.Request) {
	var body addRecordRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		sendError(res, fmt.Errorf("%w: invalid request body", db.ErrorInvalidRequest))
		return
	}

	rec, err := s.db.AddRecord(body.Name, body.RollNo, body.Marks)
	if err != nil {
		sendError(res, err)
		return
	}

	sendJSON(res, http.StatusCreated, rec)
}

type updateMarksRequest struct {
	Marks float64 `json:"marks"`
}

// handleUpdateMarks sets new marks for the student matching the roll number
// and rederives their grade.
func (s *Server) handleUpdateMarks(res http.ResponseWriter, req *http.Request) {
	var body updateMarksRequest
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		sendError(res, fmt.Errorf("%w: invalid request body", db.ErrorInvalidRequest))
		return
	}

	rec, err := s.db.UpdateMarks(chi.URLParam(req, "rollNo"), body.Marks)
	if err != nil {
		sendError(res, err)
		return
	}

	sendJSON(res, http.StatusOK, rec)
}

// handleDeleteRecord removes the student matching the roll number.
func (s *Server) handleDeleteRecord(res http.ResponseWriter, req *http.Request) {
	err := s.db.DeleteRecord(chi.URLParam(req, "rollNo"))
	if err != nil {
		sendError(res, err)
		return
	}

	sendJSON(res, http.StatusOK, &messageResponse{Message: "student deleted"})
}

type importResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// handleImportRecords merges an uploaded CSV or xlsx file into the
// collection. A malformed file or one missing required columns aborts the
// whole import; nothing is partially applied.
func (s *Server) handleImportRecords(res http.ResponseWriter, req *http.Request) {
	err := req.ParseMultipartForm(maxUploadSize)
	if err != nil {
		sendError(res, fmt.Errorf("%w: invalid multipart request", db.ErrorBadFile))
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		sendError(res, fmt.Errorf("%w: missing %q form file", db.ErrorBadFile, "file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(res, fmt.Errorf("%w: %v", db.ErrorBadFile, err))
		return
	}

	records, err := record.ParseUpload(header.Filename, data)
	if err != nil {
		sendError(res, err)
		return
	}

	added, skipped, err := s.db.ImportRecords(records)
	if err != nil {
		sendError(res, err)
		return
	}

	sendJSON(res, http.StatusOK, &importResponse{Added: added, Skipped: skipped})
}

// handleExportRecords serves the collection as a CSV download. Responds with
// 204 when there is nothing to export.
func (s *Server) handleExportRecords(res http.ResponseWriter, req *http.Request) {
	records, err := s.db.Records()
	if err != nil {
		sendError(res, err)
		return
	}

	data, err := record.ExportCSV(records)
	if err != nil {
		sendError(res, err)
		return
	}

	if len(data) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	res.Header().Set("Content-Type", "text/csv; charset=utf-8")
	res.Header().Set("Content-Disposition", "attachment; filename="+exportFilename)
	res.Write(data)
}

type summaryResponse struct {
	NoData  bool            `json:"noData"`
	Summary *record.Summary `json:"summary,omitempty"`
}

// handleSummary reports collection statistics. An empty collection is
// reported as a distinct no-data state rather than a zero mean.
func (s *Server) handleSummary(res http.ResponseWriter, req *http.Request) {
	records, err := s.db.Records()
	if err != nil {
		sendError(res, err)
		return
	}

	summary := record.Summarize(records)
	sendJSON(res, http.StatusOK, &summaryResponse{NoData: summary == nil, Summary: summary})
}

// handleReset clears the whole collection.
func (s *Server) handleReset(res http.ResponseWriter, req *http.Request) {
	err := s.db.Reset()
	if err != nil {
		sendError(res, err)
		return
	}

	sendJSON(res, http.StatusOK, &messageResponse{Message: "all student records cleared"})
}
