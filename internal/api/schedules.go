package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klandestin-s/school-man3/internal/blob"
	"github.com/klandestin-s/school-man3/internal/core"
	"github.com/klandestin-s/school-man3/internal/export"
)

// handleList returns every schedule, or a single one when ?id= is given.
// Method: GET
// Response (200): []ScheduleView, or ScheduleView with ?id=
func (s *Server) handleList(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		s.getOne(c, id)
		return
	}
	records, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.writeRepoError(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, FromRecords(records))
}

// handleGet returns the schedule named in the path.
func (s *Server) handleGet(c *gin.Context) {
	s.getOne(c, c.Param("id"))
}

func (s *Server) getOne(c *gin.Context, id string) {
	rec, err := s.repo.Get(c.Request.Context(), id)
	if err != nil {
		s.writeRepoError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, FromRecord(rec))
}

// handleCreate stores a new schedule.
// Method: POST
// Request: ScheduleRequest JSON (id ignored)
// Response (201): ScheduleView with the assigned id
func (s *Server) handleCreate(c *gin.Context) {
	req, ok := decodeRequest(c)
	if !ok {
		return
	}
	rec, err := s.repo.Apply(c.Request.Context(), req.ToCreateInput())
	if err != nil {
		s.writeRepoError(c, "create", err)
		return
	}
	c.JSON(http.StatusCreated, FromRecord(rec))
}

// handleUpdate replaces a schedule wholesale.
// Method: PUT
// Request: ScheduleRequest JSON; id from /:id, ?id= or the body, in that order
// Response (200): ScheduleView
func (s *Server) handleUpdate(c *gin.Context) {
	req, ok := decodeRequest(c)
	if !ok {
		return
	}
	rec, err := s.repo.Apply(c.Request.Context(), req.ToUpdateInput(idFromURL(c)))
	if err != nil {
		s.writeRepoError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, FromRecord(rec))
}

// handleDelete removes a schedule and returns it.
// Method: DELETE
// Response (200): ScheduleView of the removed record
func (s *Server) handleDelete(c *gin.Context) {
	rec, err := s.repo.Delete(c.Request.Context(), idFromURL(c))
	if err != nil {
		s.writeRepoError(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, FromRecord(rec))
}

// handleExport streams the collection as an xlsx workbook.
func (s *Server) handleExport(c *gin.Context) {
	records, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.writeRepoError(c, "export", err)
		return
	}
	// Render fully before sending headers so failures can still be reported as JSON.
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records); err != nil {
		s.logger.Error("api: export failed", "error", err)
		writeError(c, http.StatusInternalServerError, "could not render export")
		return
	}
	name := fmt.Sprintf("jadwal_%s.xlsx", TimeNow().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// decodeRequest strictly decodes the JSON body, rejecting unknown fields and
// anything after the first value.
// On failure it writes a 400 and returns false.
func decodeRequest(c *gin.Context) (ScheduleRequest, bool) {
	var req ScheduleRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}
	if dec.More() {
		writeError(c, http.StatusBadRequest, "invalid JSON: unexpected data after request body")
		return req, false
	}
	return req, true
}

func idFromURL(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return c.Query("id")
}

// writeRepoError maps repository and store failures onto HTTP statuses.
// User mistakes are 4xx; store failures are 502 so they are not confused
// with bad input.
func (s *Server) writeRepoError(c *gin.Context, op string, err error) {
	var (
		verr      *core.ValidationError
		transport *blob.TransportError
		malformed *blob.MalformedResponseError
		status    *blob.StatusError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, APIError{
			Error:     "validation failed",
			Details:   append([]string(nil), verr.Problems...),
			Timestamp: TimeNow().UTC().Format(time.RFC3339),
		})
	case errors.Is(err, core.ErrMissingIdentifier):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(c, http.StatusNotFound, core.ErrNotFound.Error())
	case errors.Is(err, blob.ErrVersionConflict):
		s.logger.Warn("api: write lost a race", "op", op, "error", err)
		c.JSON(http.StatusConflict, APIError{
			Error:     "schedule data changed concurrently; reload and retry",
			Retryable: true,
			Timestamp: TimeNow().UTC().Format(time.RFC3339),
		})
	case errors.Is(err, blob.ErrAuth):
		s.logger.Error("api: store rejected credentials", "op", op, "error", err)
		writeError(c, http.StatusBadGateway, "storage authentication failed")
	case errors.As(err, &malformed):
		s.logger.Error("api: malformed store response", "op", op, "status", malformed.Status, "body", string(malformed.Body), "error", err)
		writeError(c, http.StatusBadGateway, "storage returned an unreadable response")
	case errors.As(err, &transport), errors.As(err, &status):
		s.logger.Error("api: store unavailable", "op", op, "error", err)
		writeError(c, http.StatusBadGateway, "storage unavailable")
	case errors.Is(err, core.ErrCorruptCollection):
		s.logger.Error("api: stored collection is corrupt", "op", op, "error", err)
		writeError(c, http.StatusBadGateway, "stored schedule data is corrupt")
	default:
		s.logger.Error("api: unexpected error", "op", op, "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, APIError{
		Error:     msg,
		Timestamp: TimeNow().UTC().Format(time.RFC3339),
	})
}
