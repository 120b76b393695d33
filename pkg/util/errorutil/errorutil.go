package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers of the bot core.
const (
	CodeValidation               = "VALIDATION_FAILED"
	CodeDuplicateTicket          = "DUPLICATE_TICKET"
	CodeDuplicateApplication     = "DUPLICATE_APPLICATION"
	CodeRoleNotFound             = "ROLE_NOT_FOUND"
	CodeTranscriptArchiveMissing = "TRANSCRIPT_ARCHIVE_MISSING"
	CodeCategoryNotFound         = "CATEGORY_NOT_FOUND"
	CodeApplicantNotFound        = "APPLICANT_NOT_FOUND"
	CodeChannelNotFound          = "CHANNEL_NOT_FOUND"
	CodeTicketAlreadyClaimed     = "TICKET_ALREADY_CLAIMED"
	CodeTicketClosing            = "TICKET_CLOSING"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeInternal                 = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
//
// Message is the internal description meant for logs. UserMessage is the
// generic, localized text that may be shown to the end user. Operator marks
// misconfiguration failures that should page whoever runs the bot.
type DomainError struct {
	Code        string
	Message     string
	UserMessage string
	HTTPStatus  int
	Details     map[string]any
	Operator    bool
	Err         error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so sentinel values such
// as ErrDuplicateTicket work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation               = &DomainError{Code: CodeValidation}
	ErrDuplicateTicket          = &DomainError{Code: CodeDuplicateTicket}
	ErrDuplicateApplication     = &DomainError{Code: CodeDuplicateApplication}
	ErrRoleNotFound             = &DomainError{Code: CodeRoleNotFound}
	ErrTranscriptArchiveMissing = &DomainError{Code: CodeTranscriptArchiveMissing}
	ErrCategoryNotFound         = &DomainError{Code: CodeCategoryNotFound}
	ErrApplicantNotFound        = &DomainError{Code: CodeApplicantNotFound}
	ErrChannelNotFound          = &DomainError{Code: CodeChannelNotFound}
	ErrTicketAlreadyClaimed     = &DomainError{Code: CodeTicketAlreadyClaimed}
	ErrTicketClosing            = &DomainError{Code: CodeTicketClosing}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{
		Code:        code,
		Message:     message,
		UserMessage: UserMessage(code),
		HTTPStatus:  status,
		Details:     details,
	}
}

func NewValidationError(message string, details map[string]any) error {
	de := NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
	de.UserMessage = message
	return de
}

func NewDuplicateTicket(requesterID, category string) error {
	return NewDomainError(CodeDuplicateTicket,
		fmt.Sprintf("requester %s already has an active ticket in category %q", requesterID, category),
		http.StatusConflict,
		map[string]any{"category": category})
}

func NewDuplicateApplication(applicantID string) error {
	return NewDomainError(CodeDuplicateApplication,
		fmt.Sprintf("applicant %s already has a pending application", applicantID),
		http.StatusConflict, nil)
}

func NewRoleNotFound(roleID string, err error) error {
	de := NewDomainError(CodeRoleNotFound, fmt.Sprintf("role %s not found", roleID), http.StatusInternalServerError,
		map[string]any{"role_id": roleID})
	de.Operator = true
	de.Err = err
	return de
}

func NewTranscriptArchiveMissing(channelID string, err error) error {
	de := NewDomainError(CodeTranscriptArchiveMissing, fmt.Sprintf("transcript archive channel %s not found", channelID),
		http.StatusInternalServerError, map[string]any{"channel_id": channelID})
	de.Operator = true
	de.Err = err
	return de
}

func NewCategoryNotFound(categoryID string, err error) error {
	de := NewDomainError(CodeCategoryNotFound, fmt.Sprintf("category channel %s not found", categoryID),
		http.StatusInternalServerError, map[string]any{"category_id": categoryID})
	de.Operator = true
	de.Err = err
	return de
}

func NewApplicantNotFound(channelID string) error {
	return NewDomainError(CodeApplicantNotFound, fmt.Sprintf("could not find the applicant for channel %s", channelID),
		http.StatusNotFound, map[string]any{"channel_id": channelID})
}

func NewChannelNotFound(channelID string, err error) error {
	de := NewDomainError(CodeChannelNotFound, fmt.Sprintf("channel %s not found", channelID), http.StatusNotFound,
		map[string]any{"channel_id": channelID})
	de.Err = err
	return de
}

func NewTicketAlreadyClaimed(channelID, claimantTag string) error {
	return NewDomainError(CodeTicketAlreadyClaimed, fmt.Sprintf("ticket %s already claimed by %s", channelID, claimantTag),
		http.StatusConflict, map[string]any{"claimed_by": claimantTag})
}

func NewTicketClosing(channelID string) error {
	return NewDomainError(CodeTicketClosing, fmt.Sprintf("ticket %s is already closing", channelID), http.StatusConflict, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:        CodeInternal,
		Message:     "internal server error",
		UserMessage: UserMessage(CodeInternal),
		HTTPStatus:  http.StatusInternalServerError,
		Err:         err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	de, _ := NewInternalError(err).(*DomainError)
	return de
}

// IsOperatorError reports whether err needs operator attention.
func IsOperatorError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Operator
}
