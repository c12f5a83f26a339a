package model

import "slices"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// BlockingStatuses hold their window against new or moved bookings.
var BlockingStatuses = []Status{StatusApproved, StatusPending}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) Blocking() bool {
	return slices.Contains(BlockingStatuses, s)
}

func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusApproved
}

// Decision is the administrator verdict on a pending booking.
type Decision string

const (
	DecisionApprove Decision = Decision(StatusApproved)
	DecisionReject  Decision = Decision(StatusRejected)
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

func (d Decision) Status() Status {
	return Status(d)
}

type RequirementType string

const (
	RequirementAudioVisual RequirementType = "AUDIO_VISUAL"
	RequirementCatering    RequirementType = "CATERING"
	RequirementSeating     RequirementType = "SEATING"
	RequirementLighting    RequirementType = "LIGHTING"
	RequirementInternet    RequirementType = "INTERNET"
	RequirementOther       RequirementType = "OTHER"
)
