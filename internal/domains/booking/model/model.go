package model

import (
	"venue/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                 = "id"
	FieldTitle              = "title"
	FieldDescription        = "description"
	FieldAttendees          = "attendees"
	FieldExternalAudience   = "external_audience"
	FieldPreRegistration    = "pre_registration"
	FieldLayout             = "layout"
	FieldBookingDate        = "booking_date"
	FieldStartTime          = "start_time"
	FieldEndTime            = "end_time"
	FieldStatus             = "status"
	FieldReason             = "reason"
	FieldResponsiblePartyID = "responsible_party_id"
	FieldRequesterID        = "requester_id"
)

type Booking struct {
	ID                 string  `db:"id"`
	Title              string  `db:"title"`
	Description        *string `db:"description"`
	Attendees          int     `db:"attendees"`
	ExternalAudience   bool    `db:"external_audience"`
	PreRegistration    bool    `db:"pre_registration"`
	Layout             string  `db:"layout"`
	BookingDate        Date    `db:"booking_date"`
	StartTime          Clock   `db:"start_time"`
	EndTime            Clock   `db:"end_time"`
	Status             Status  `db:"status"`
	Reason             *string `db:"reason"`
	ResponsiblePartyID string  `db:"responsible_party_id"`
	RequesterID        string  `db:"requester_id"`
	model.Metadata
}

// OwnedBy reports whether userID requested the booking.
func (b Booking) OwnedBy(userID string) bool {
	return b.RequesterID == userID
}

const (
	RequirementTableName  = "requirements"
	RequirementEntityName = "requirement"

	FieldRequirementBookingID = "booking_id"
	FieldRequirementType      = "type"
)

type Requirement struct {
	ID        string          `db:"id"`
	BookingID string          `db:"booking_id"`
	Type      RequirementType `db:"type"`
	Quantity  int             `db:"quantity"`
	Required  bool            `db:"required"`
}

const (
	ResponsiblePartyTableName  = "responsible_parties"
	ResponsiblePartyEntityName = "responsible_party"

	FieldResponsiblePartyName  = "name"
	FieldResponsiblePartyEmail = "email"
	FieldResponsiblePartyPhone = "phone"
)

// ResponsibleParty is shared by every booking that references it. Updates
// through any booking change it for all of them.
type ResponsibleParty struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
	Phone string `db:"phone"`
	model.Metadata
}
