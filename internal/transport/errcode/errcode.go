// Package errcode maps domain errors to the stable codes, HTTP statuses and
// message keys shared by the REST and WebSocket transports.
package errcode

import (
	"errors"
	"net/http"

	"golang.org/x/text/message"

	"hrevent/internal/domain"
	"hrevent/internal/i18n"
)

// Stable error codes
const (
	EmptyInput           = "EMPTY_INPUT"
	EmptyPool            = "EMPTY_POOL"
	EmptyRegistry        = "EMPTY_REGISTRY"
	NoGroups             = "NO_GROUPS"
	InvalidGroupSize     = "INVALID_GROUP_SIZE"
	DrawInProgress       = "DRAW_IN_PROGRESS"
	GroupingInProgress   = "GROUPING_IN_PROGRESS"
	EventBusy            = "EVENT_BUSY"
	EventNotFound        = "EVENT_NOT_FOUND"
	EventClosed          = "EVENT_CLOSED"
	ConfirmationRequired = "CONFIRMATION_REQUIRED"
	TooManyParticipants  = "TOO_MANY_PARTICIPANTS"
	UnsupportedFile      = "UNSUPPORTED_FILE"
	FileTooLarge         = "FILE_TOO_LARGE"
	InvalidRequest       = "INVALID_REQUEST"
	Timeout              = "TIMEOUT"
	Internal             = "INTERNAL_ERROR"
)

// Info describes how an error is reported to clients
type Info struct {
	Status int
	Code   string
	Key    string // i18n message key
}

// Message renders the localized message for info
func (i Info) Message(p *message.Printer) string {
	return p.Sprintf(i.Key)
}

var table = []struct {
	err  error
	info Info
}{
	{domain.ErrEmptyInput, Info{http.StatusUnprocessableEntity, EmptyInput, i18n.KeyEmptyInput}},
	{domain.ErrEmptyPool, Info{http.StatusConflict, EmptyPool, i18n.KeyEmptyPool}},
	{domain.ErrEmptyRegistry, Info{http.StatusUnprocessableEntity, EmptyRegistry, i18n.KeyEmptyRegistry}},
	{domain.ErrNoGroups, Info{http.StatusNotFound, NoGroups, i18n.KeyNoGroups}},
	{domain.ErrInvalidGroupSize, Info{http.StatusBadRequest, InvalidGroupSize, i18n.KeyInvalidGroupSize}},
	{domain.ErrDrawInProgress, Info{http.StatusConflict, DrawInProgress, i18n.KeyDrawInProgress}},
	{domain.ErrGroupingInProgress, Info{http.StatusConflict, GroupingInProgress, i18n.KeyGroupingBusy}},
	{domain.ErrEventBusy, Info{http.StatusConflict, EventBusy, i18n.KeyEventBusy}},
	{domain.ErrEventNotFound, Info{http.StatusNotFound, EventNotFound, i18n.KeyEventNotFound}},
	{domain.ErrEventClosed, Info{http.StatusGone, EventClosed, i18n.KeyEventClosed}},
	{domain.ErrConfirmationRequired, Info{http.StatusConflict, ConfirmationRequired, i18n.KeyConfirmClear}},
	{domain.ErrTooManyParticipants, Info{http.StatusUnprocessableEntity, TooManyParticipants, i18n.KeyTooManyEntries}},
	{domain.ErrUnsupportedFile, Info{http.StatusUnsupportedMediaType, UnsupportedFile, i18n.KeyUnsupportedFile}},
	{domain.ErrFileTooLarge, Info{http.StatusRequestEntityTooLarge, FileTooLarge, i18n.KeyFileTooLarge}},
}

// Lookup returns the reporting info for err. Unknown errors are internal.
func Lookup(err error) Info {
	for _, entry := range table {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return Info{http.StatusInternalServerError, Internal, i18n.KeyInternalError}
}

// Invalid is the info for malformed or failed-validation requests
func Invalid() Info {
	return Info{http.StatusBadRequest, InvalidRequest, i18n.KeyInvalidRequest}
}
