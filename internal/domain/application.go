package domain

import "time"

// ApplicationStatus enumerates staff application states.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusAccepted ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// Application is a staff-candidacy submission bound to a private channel.
type Application struct {
	Applicant   User
	Form        ApplicationIntake
	Status      ApplicationStatus
	Reason      string
	Decider     *User
	Channel     ChannelRef
	SubmittedAt time.Time
	DecidedAt   *time.Time
}
