package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/planreport/internal/export"
	"github.com/dgallion1/planreport/internal/notes"
	"github.com/dgallion1/planreport/internal/plan"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var p plan.Plan
	if !s.decodeJSON(w, r, &p) {
		return
	}
	if p.UserID == "" {
		p.UserID = r.URL.Query().Get("user_id")
	}
	created, err := s.plans.Create(r.Context(), p)
	if err != nil {
		s.storeError(w, r, "create plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := s.plans.List(r.Context(), uid)
	if err != nil {
		s.storeError(w, r, "list plans", err)
		return
	}
	if list == nil {
		list = []plan.Plan{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": list})
}

// loadPlan fetches the plan named in the URL for the requesting user.
func (s *Server) loadPlan(w http.ResponseWriter, r *http.Request) (plan.Plan, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return plan.Plan{}, false
	}
	p, err := s.plans.Get(r.Context(), uid, chi.URLParam(r, "planID"))
	if err != nil {
		s.storeError(w, r, "get plan", err)
		return plan.Plan{}, false
	}
	return p, true
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":    p,
		"totals":  p.Data.Totals(),
		"summary": p.Data.Summary(),
	})
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var p plan.Plan
	if !s.decodeJSON(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "planID")
	p.UserID = uid
	updated, err := s.plans.Update(r.Context(), p)
	if err != nil {
		s.storeError(w, r, "update plan", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := s.plans.Delete(r.Context(), uid, chi.URLParam(r, "planID")); err != nil {
		s.storeError(w, r, "delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportNotes replaces a plan's notes with an uploaded document,
// converted to Markdown.
func (s *Server) handleImportNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	p, ok := s.loadPlan(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	parser, err := notes.ForFile(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxBodyBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxBodyBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
		return
	}

	tree, err := parser.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "failed to parse notes: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if tree.Empty() {
		jsonError(w, "notes document has no content", http.StatusUnprocessableEntity)
		return
	}

	p.Data.Notes = strings.TrimSpace(notes.Markdown(tree))
	p.Data.NotesFormat = plan.NotesMarkdown
	updated, err := s.plans.Update(r.Context(), p)
	if err != nil {
		s.storeError(w, r, "import notes", err)
		return
	}
	s.log.Info("notes imported", "plan_id", p.ID, "filename", filename, "bytes", len(data))
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleExportDOCX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "docx", mimeDOCX, export.DOCX)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", mimeXLSX, export.XLSX)
}

// export renders the plan into a buffer first so a failure can still be
// reported as JSON.
func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, plan.Plan) error) {
	p, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, p); err != nil {
		s.log.Error("export failed", "format", ext, "plan_id", p.ID, "error", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	name := strings.TrimSuffix(exportName(p), ".pdf") + "." + ext
	attachment(w, contentType, name)
	w.Write(buf.Bytes())
}
