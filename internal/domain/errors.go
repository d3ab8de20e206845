package domain

import "errors"

// Domain errors
var (
	ErrEmptyInput           = errors.New("no usable names in input")
	ErrEmptyPool            = errors.New("no eligible participants left to draw")
	ErrEmptyRegistry        = errors.New("participant list is empty")
	ErrNoGroups             = errors.New("no grouping result yet")
	ErrInvalidGroupSize     = errors.New("group size must be an integer of at least 2")
	ErrDrawInProgress       = errors.New("a draw is already in progress")
	ErrGroupingInProgress   = errors.New("a grouping is already in progress")
	ErrEventBusy            = errors.New("event is busy drawing or grouping")
	ErrEventNotFound        = errors.New("event not found")
	ErrEventClosed          = errors.New("event is closed")
	ErrConfirmationRequired = errors.New("destructive action requires confirmation")
	ErrTooManyParticipants  = errors.New("participant list exceeds the configured limit")
	ErrUnsupportedFile      = errors.New("only UTF-8 .csv and .txt files are supported")
	ErrFileTooLarge         = errors.New("uploaded file exceeds the size limit")
)
