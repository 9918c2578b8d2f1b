package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAdvanceNotFound is returned when no source knows the advance
	ErrAdvanceNotFound = errors.New("advance request not found")

	// ErrSessionNotLoaded is returned when an operation runs before Load
	ErrSessionNotLoaded = errors.New("session not loaded")

	// ErrReadOnly is returned for edits to a closing the owner may not change
	ErrReadOnly = errors.New("closing is read-only")

	// ErrLineNotFound is returned for an unknown line id or index
	ErrLineNotFound = errors.New("expense line not found")

	// ErrMissingCostCenter is returned by Save when a line has no cost center
	ErrMissingCostCenter = errors.New("expense line has no cost center")

	// ErrNothingToSave is returned by Save when no line has a positive amount
	ErrNothingToSave = errors.New("no expense line with an amount")

	// ErrInvalidLines is returned when closing while some line is incomplete
	ErrInvalidLines = errors.New("some expense lines are incomplete")

	// ErrUnsavedChanges blocks submission until the owner saves
	ErrUnsavedChanges = errors.New("save your changes before submitting")

	// ErrNoSavedLines blocks submission of an empty closing
	ErrNoSavedLines = errors.New("no saved expense lines to submit")

	// ErrCorruptDocument is returned for PDFs that cannot be opened
	ErrCorruptDocument = errors.New("document cannot be read")

	// ErrFeatureDisabled is returned when an optional collaborator is not configured
	ErrFeatureDisabled = errors.New("feature not configured")

	// ErrForbidden is returned when the user lacks the needed capability
	ErrForbidden = errors.New("forbidden")

	// ErrNothingRejected blocks partial approval without rejected lines
	ErrNothingRejected = errors.New("no rejected expense lines")

	// ErrHasRejectedLines blocks full approval while a line is rejected
	ErrHasRejectedLines = errors.New("rejected lines present, use partial approval or reject")

	// ErrReasonTooShort is returned for rejection reasons under MinRejectReason runes
	ErrReasonTooShort = errors.New("rejection reason too short")

	// ErrInvalidScope is returned for a rejection scope other than "all"
	ErrInvalidScope = errors.New("invalid rejection scope")
)

// Step names one request of a multi-request operation
type Step string

const (
	StepSave  Step = "save"
	StepClose Step = "close"
)

// StepError reports which step of SaveAndClose failed
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Logger is the subset of *zap.SugaredLogger the services use
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}
