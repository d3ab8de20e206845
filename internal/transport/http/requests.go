package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// SetParticipantsRequest replaces the registry with the names in Text, one
// per line. Only the first comma-separated field of each line is used.
type SetParticipantsRequest struct {
	Text *string `json:"text" validate:"required"`
}

// DrawSettingsRequest changes the draw mode
type DrawSettingsRequest struct {
	AllowDuplicates *bool `json:"allowDuplicates" validate:"required"`
}

// DrawRequest starts a draw. Prize is optional.
type DrawRequest struct {
	Prize string `json:"prize" validate:"max=100"`
}

// GroupsRequest starts a grouping. A missing size uses the configured default.
type GroupsRequest struct {
	Size *int `json:"size" validate:"omitnil,min=2"`
}

var errInvalidJSON = errors.New("invalid JSON body")

// decode reads an optional JSON body into dst and validates it. An empty body
// leaves dst untouched.
func (s *Server) decode(r *http.Request, dst interface{}) error {
	limit := s.config.Server.MaxUploadBytes + 4096
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))

	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}
	return s.validate.Struct(dst)
}

// confirmed reports whether the request carries confirm=true
func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}
