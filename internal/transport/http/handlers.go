package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/message"

	"hrevent/internal/app"
	"hrevent/internal/i18n"
	"hrevent/internal/transport/errcode"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateEventResponse is the response for event creation
type CreateEventResponse struct {
	EventCode string `json:"eventCode"`
	Link      string `json:"link"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveEvents      int `json:"activeEvents"`
	TotalParticipants int `json:"totalParticipants"`
	ConnectedScreens  int `json:"connectedScreens"`
}

// handleCreateEvent handles POST /api/events
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	session, err := s.hub.CreateEvent()
	if err != nil {
		s.logger.Error("failed to create event", "error", err)
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", s.printer(r).Sprintf(i18n.KeyInternalError))
		return
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	link := scheme + "://" + r.Host + "/?event=" + session.GetEventCode()

	s.sendSuccess(w, &CreateEventResponse{
		EventCode: session.GetEventCode(),
		Link:      link,
	})
}

// handleGetEvent handles GET /api/events/{code}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	s.sendSuccess(w, session.Snapshot())
}

// handleDeleteEvent handles DELETE /api/events/{code}
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	s.hub.DeleteSession(session.GetEventCode())
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveEvents:      s.hub.GetSessionCount(),
		TotalParticipants: s.hub.GetTotalParticipantCount(),
		ConnectedScreens:  s.hub.GetTotalClientCount(),
	})
}

// handleStatic serves static files
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")

	file, err := s.webFS.Open("static/" + path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	rs, ok := file.(io.ReadSeeker)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), rs)
}

// handleSPA serves the single-page shell for every other route
func (s *Server) handleSPA(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
		return
	}

	file, err := s.webFS.Open("index.html")
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	rs, ok := file.(io.ReadSeeker)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", stat.ModTime(), rs)
}

// session resolves the {code} path value, writing a 404 when it is unknown
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*app.EventSession, bool) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	if code == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_EVENT_CODE", "Event code is required")
		return nil, false
	}

	session, err := s.hub.GetSession(code)
	if err != nil {
		s.sendFailure(w, r, err)
		return nil, false
	}
	return session, true
}

// printer returns the message printer for the request's language
func (s *Server) printer(r *http.Request) *message.Printer {
	return i18n.Printer(i18n.Resolve(r, s.defaultLocale))
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// sendFailure reports err with its stable code and a localized message
func (s *Server) sendFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.sendInfo(w, r, errcode.Lookup(err), err)
}

func (s *Server) sendInfo(w http.ResponseWriter, r *http.Request, info errcode.Info, err error) {
	if info.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.sendError(w, info.Status, info.Code, info.Message(s.printer(r)))
}

// sendText sends a plain-text response
func (s *Server) sendText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}
