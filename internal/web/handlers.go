package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/opsdesk/internal/core"
	"github.com/JonMunkholm/opsdesk/internal/logging"
	"github.com/JonMunkholm/opsdesk/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and part headers.
const multipartOverhead = 1 << 20

var errNoFile = errors.New("no file provided")

// sessionResponse is the client view of a session. The raw file is never sent back.
type sessionResponse struct {
	ID        string              `json:"id"`
	Entity    string              `json:"entity"`
	FileName  string              `json:"fileName,omitempty"`
	State     core.SessionState   `json:"state"`
	Headers   []string            `json:"headers,omitempty"`
	Preview   []map[string]string `json:"preview"`
	RowCount  int                 `json:"rowCount"`
	Issues    []core.RowIssue     `json:"issues,omitempty"`
	Result    *core.ImportResult  `json:"result,omitempty"`
	Error     *core.UserMessage   `json:"error,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func newSessionResponse(sess *core.Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		Entity:    sess.Entity,
		FileName:  sess.FileName,
		State:     sess.State,
		Headers:   sess.Headers,
		Preview:   sess.Preview,
		RowCount:  sess.RowCount,
		Issues:    sess.Issues,
		Result:    sess.Result,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

// entityResponse describes one importable entity and its columns.
type entityResponse struct {
	core.EntityInfo
	Fields []core.FieldSpec `json:"fields"`
}

// handleHealth reports liveness plus submit capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"submits": s.service.LimiterStatus(),
	})
}

// handleListEntities returns every importable entity.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Entities()
	out := make([]entityResponse, len(defs))
	for i, def := range defs {
		out[i] = entityResponse{EntityInfo: def.Info, Fields: def.Fields}
	}
	writeJSON(w, out)
}

// handleDownloadTemplate serves the blank template for an entity.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	format := strings.ToLower(r.URL.Query().Get("format"))

	name, data, err := s.service.Template(entity, format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

// handleStartImport accepts an uploaded file and opens a parsed session.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	maxSize := s.service.Config().MaxFileSize

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, maxSize))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	sess, err := s.service.StartImport(r.Context(), entity, callerID(r), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.renderPreview(w, r, sess)
		return
	}
	writeJSONStatus(w, http.StatusCreated, newSessionResponse(sess))
}

// handleGetImport returns a session's current state.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.GetSession(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		if sess.Result != nil {
			s.renderResult(w, r, sess, nil)
			return
		}
		s.renderPreview(w, r, sess)
		return
	}
	writeJSON(w, newSessionResponse(sess))
}

// handleSubmitImport submits a parsed session. A submit that ran but failed
// still returns the session so the client can show the outcome and resubmit.
func (s *Server) handleSubmitImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.service.Submit(r.Context(), id, callerID(r))
	if sess == nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.renderResult(w, r, sess, err)
		return
	}

	resp := newSessionResponse(sess)
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		msg := core.MapError(err)
		resp.Error = &msg
		logging.FromContext(r.Context()).Warn("import submit failed",
			"session_id", id,
			"entity", sess.Entity,
			"code", msg.Code,
			"error", err,
		)
	}
	writeJSONStatus(w, status, resp)
}

// handleDiscardImport abandons a session.
func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Discard(r.Context(), chi.URLParam(r, "id"), callerID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	def, ok := core.Get(sess.Entity)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownEntity, sess.Entity))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.PreviewTable(templates.PreviewData{
		SessionID: sess.ID,
		Entity:    def,
		Headers:   sess.Headers,
		Rows:      sess.Preview,
		RowCount:  sess.RowCount,
		Issues:    sess.Issues,
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render preview", "error", err)
	}
}

func (s *Server) renderResult(w http.ResponseWriter, r *http.Request, sess *core.Session, submitErr error) {
	result := sess.Result
	if result == nil {
		result = &core.ImportResult{Entity: sess.Entity}
	}

	var msg core.UserMessage
	switch {
	case submitErr != nil:
		msg = core.MapError(submitErr)
	case !result.Succeeded():
		msg = core.MapError(errors.New(result.Error))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if submitErr != nil {
		w.WriteHeader(statusFor(submitErr))
	}
	if err := templates.ImportResultSummary(sess.ID, result, msg).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render import result", "error", err)
	}
}
