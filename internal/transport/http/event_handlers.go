package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hrevent/internal/app"
	"hrevent/internal/domain"
	"hrevent/internal/export"
	"hrevent/internal/i18n"
	"hrevent/internal/transport/errcode"
)

// waitSlack is added to the animation length when a request waits for a result
const waitSlack = 5 * time.Second

// DrawResponse is the response for a finished draw
type DrawResponse struct {
	Winner    domain.RankedWinner `json:"winner"`
	Remaining int                 `json:"remaining"`
	Limited   bool                `json:"limited"`
}

// GroupsResponse is the response for a finished grouping
type GroupsResponse struct {
	Size   int            `json:"size"`
	Groups []domain.Group `json:"groups"`
}

// handleSetParticipants handles PUT /api/events/{code}/participants
func (s *Server) handleSetParticipants(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req SetParticipantsRequest
	if err := s.decode(r, &req); err != nil {
		s.sendInfo(w, r, errcode.Invalid(), err)
		return
	}

	if _, err := session.ImportText(*req.Text); err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, session.Snapshot())
}

// handleUploadParticipants handles POST /api/events/{code}/participants/upload
func (s *Server) handleUploadParticipants(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	limit := s.config.Server.MaxUploadBytes
	// multipart framing needs some room on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendFailure(w, r, domain.ErrFileTooLarge)
			return
		}
		s.sendInfo(w, r, errcode.Invalid(), err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendInfo(w, r, errcode.Invalid(), err)
		return
	}
	defer file.Close()

	if _, err := session.ImportUpload(file, header.Filename, limit); err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, session.Snapshot())
}

// handleSampleParticipants handles POST /api/events/{code}/participants/sample
func (s *Server) handleSampleParticipants(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if _, err := session.LoadSample(); err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, session.Snapshot())
}

// handleDedupeParticipants handles POST /api/events/{code}/participants/dedupe
func (s *Server) handleDedupeParticipants(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if _, err := session.Deduplicate(); err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, session.Snapshot())
}

// handleClearParticipants handles DELETE /api/events/{code}/participants
func (s *Server) handleClearParticipants(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.Clear(confirmed(r)); err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, session.Snapshot())
}

// handleDrawSettings handles PUT /api/events/{code}/draw/settings
func (s *Server) handleDrawSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req DrawSettingsRequest
	if err := s.decode(r, &req); err != nil {
		s.sendInfo(w, r, errcode.Invalid(), err)
		return
	}

	settings, err := session.SetAllowDuplicates(*req.AllowDuplicates)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, settings)
}

// handleDraw handles POST /api/events/{code}/draw. The response is sent once
// the spin animation has committed a winner.
func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req DrawRequest
	if err := s.decode(r, &req); err != nil {
		s.sendInfo(w, r, errcode.Invalid(), err)
		return
	}

	wait := app.Total(session.Timing().SpinSchedule()) + waitSlack
	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	outcome, err := session.Draw(ctx, req.Prize)
	if err != nil {
		s.sendWaitFailure(w, r, err)
		return
	}

	s.sendSuccess(w, &DrawResponse{
		Winner:    outcome.Winner,
		Remaining: outcome.Remaining,
		Limited:   outcome.Limited,
	})
}

// handleResetDraw handles POST /api/events/{code}/draw/reset
func (s *Server) handleResetDraw(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := session.ResetDraw(confirmed(r)); err != nil {
		if errors.Is(err, domain.ErrConfirmationRequired) {
			info := errcode.Lookup(err)
			info.Key = i18n.KeyConfirmResetDraw
			s.sendInfo(w, r, info, err)
			return
		}
		s.sendFailure(w, r, err)
		return
	}
	s.sendSuccess(w, session.Snapshot().Draw)
}

// handleDrawSummary handles GET /api/events/{code}/draw/summary
func (s *Server) handleDrawSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	s.sendText(w, session.WinnersText())
}

// handleGroups handles POST /api/events/{code}/groups. The response is sent
// once the grouping animation has finished.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req GroupsRequest
	if err := s.decode(r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) || !errors.Is(err, errInvalidJSON) {
			s.sendFailure(w, r, domain.ErrInvalidGroupSize)
			return
		}
		s.sendInfo(w, r, errcode.Invalid(), err)
		return
	}

	size := s.config.Event.DefaultGroupSize
	if req.Size != nil {
		size = *req.Size
	}

	ctx, cancel := context.WithTimeout(r.Context(), session.Timing().GroupingDelay+waitSlack)
	defer cancel()

	groups, err := session.Group(ctx, size, i18n.GroupLabel(s.printer(r)))
	if err != nil {
		s.sendWaitFailure(w, r, err)
		return
	}

	s.sendSuccess(w, &GroupsResponse{
		Size:   size,
		Groups: groups,
	})
}

// handleGroupsSummary handles GET /api/events/{code}/groups/summary
func (s *Server) handleGroupsSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	s.sendText(w, session.GroupsText())
}

// handleGroupsExport handles GET /api/events/{code}/groups/export
func (s *Server) handleGroupsExport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := session.WriteGroupsCSV(&buf, s.printer(r)); err != nil {
		s.sendFailure(w, r, err)
		return
	}

	filename := export.GroupsCSVFilename(time.Now())
	w.Header().Set("Content-Type", export.CSVContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(buf.Bytes())
}

// sendWaitFailure distinguishes a timed-out wait from a domain error
func (s *Server) sendWaitFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.sendError(w, http.StatusGatewayTimeout, errcode.Timeout, err.Error())
		return
	}
	s.sendFailure(w, r, err)
}
