package errorutil

// userMessages holds the generic text shown to end users per error code.
var userMessages = map[string]string{
	CodeDuplicateTicket:          "You already have an active ticket in this category.",
	CodeDuplicateApplication:     "You already have a pending application.",
	CodeApplicantNotFound:        "The applicant could not be found.",
	CodeChannelNotFound:          "This channel no longer exists.",
	CodeTicketAlreadyClaimed:     "This ticket has already been claimed.",
	CodeTicketClosing:            "This ticket is already being closed.",
	CodeUnauthorized:             "You are not allowed to do that.",
	CodeRoleNotFound:             genericFailure,
	CodeTranscriptArchiveMissing: genericFailure,
	CodeCategoryNotFound:         genericFailure,
	CodeInternal:                 genericFailure,
}

const genericFailure = "Something went wrong. Please try again later."

// UserMessage returns the end-user text for code.
func UserMessage(code string) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return genericFailure
}
