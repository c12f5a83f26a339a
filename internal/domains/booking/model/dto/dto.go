package dto

import (
	"strings"
	"venue/internal/domains/booking/model"
	"venue/shared"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"
	gModel "venue/shared/model"
	"venue/shared/timezone"

	"github.com/google/uuid"
)

type ResponsiblePartyRequest struct {
	ID    string `json:"id,omitempty" validate:"omitempty,uuid"`
	Name  string `json:"name"         validate:"required_without=ID,omitempty,max=150"`
	Email string `json:"email"        validate:"required_without=ID,omitempty,email,max=150"`
	Phone string `json:"phone"        validate:"omitempty,max=30"`
}

func (r *ResponsiblePartyRequest) ToModel(user string) model.ResponsibleParty {
	now := timezone.Now()

	return model.ResponsibleParty{
		ID:    uuid.NewString(),
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateResponsiblePartyRequest overwrites the shared party record in place.
type UpdateResponsiblePartyRequest struct {
	Name  string `db:"name"  json:"name"  validate:"required,max=150"`
	Email string `db:"email" json:"email" validate:"required,email,max=150"`
	Phone string `db:"phone" json:"phone" validate:"omitempty,max=30"`
}

type RequirementRequest struct {
	Type     string `json:"type"     validate:"required,oneof=AUDIO_VISUAL CATERING SEATING LIGHTING INTERNET OTHER"`
	Quantity int    `json:"quantity" validate:"gte=1,lte=100"`
	Required *bool  `json:"required"`
}

// ToRequirementModels assigns fresh ids. Required defaults to true when omitted.
func ToRequirementModels(bookingID string, items []RequirementRequest) []model.Requirement {
	requirements := make([]model.Requirement, 0, len(items))

	for _, item := range items {
		required := true
		if item.Required != nil {
			required = *item.Required
		}

		requirements = append(requirements, model.Requirement{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			Type:      model.RequirementType(item.Type),
			Quantity:  item.Quantity,
			Required:  required,
		})
	}

	return requirements
}

// Slot is the parsed temporal part of a request.
type Slot struct {
	Date  model.Date
	Start model.Clock
	End   model.Clock
}

func ParseSlot(date, start, end string) (Slot, error) {
	var (
		slot Slot
		err  error
	)

	if slot.Date, err = model.ParseDate(date); err != nil {
		return slot, failure.BadRequest(err) //nolint:wrapcheck
	}

	if slot.Start, err = model.ParseClock(start); err != nil {
		return slot, failure.BadRequest(err) //nolint:wrapcheck
	}

	if slot.End, err = model.ParseClock(end); err != nil {
		return slot, failure.BadRequest(err) //nolint:wrapcheck
	}

	if slot.Start >= slot.End {
		return slot, failure.BadRequestFromString("start_time must be before end_time") //nolint:wrapcheck
	}

	return slot, nil
}

type CreateBookingRequest struct {
	Title            string                  `json:"title"                 validate:"required,min=5,max=200"`
	Description      *string                 `json:"description,omitempty" validate:"omitempty,max=1000"`
	Attendees        int                     `json:"attendees"             validate:"gte=1,lte=1000"`
	ExternalAudience bool                    `json:"external_audience"`
	PreRegistration  bool                    `json:"pre_registration"`
	Layout           string                  `json:"layout"                validate:"required,max=100"`
	BookingDate      string                  `json:"booking_date"          validate:"required,dateonly"`
	StartTime        string                  `json:"start_time"            validate:"required,clock"`
	EndTime          string                  `json:"end_time"              validate:"required,clock"`
	ResponsibleParty ResponsiblePartyRequest `json:"responsible_party"`
	Requirements     []RequirementRequest    `json:"requirements"          validate:"omitempty,max=20,dive"`
}

func (c *CreateBookingRequest) Slot() (Slot, error) {
	return ParseSlot(c.BookingDate, c.StartTime, c.EndTime)
}

// ToModel always produces a PENDING booking.
func (c *CreateBookingRequest) ToModel(slot Slot, requesterID, partyID, user string) model.Booking {
	now := timezone.Now()

	return model.Booking{
		ID:                 uuid.NewString(),
		Title:              c.Title,
		Description:        c.Description,
		Attendees:          c.Attendees,
		ExternalAudience:   c.ExternalAudience,
		PreRegistration:    c.PreRegistration,
		Layout:             c.Layout,
		BookingDate:        slot.Date,
		StartTime:          slot.Start,
		EndTime:            slot.End,
		Status:             model.StatusPending,
		ResponsiblePartyID: partyID,
		RequesterID:        requesterID,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateBookingRequest replaces every descriptive and temporal field. A nil
// ResponsibleParty or Requirements leaves that part untouched; an empty
// Requirements list clears it.
type UpdateBookingRequest struct {
	Title            string                         `json:"title"                       validate:"required,min=5,max=200"`
	Description      *string                        `json:"description,omitempty"       validate:"omitempty,max=1000"`
	Attendees        int                            `json:"attendees"                   validate:"gte=1,lte=1000"`
	ExternalAudience bool                           `json:"external_audience"`
	PreRegistration  bool                           `json:"pre_registration"`
	Layout           string                         `json:"layout"                      validate:"required,max=100"`
	BookingDate      string                         `json:"booking_date"                validate:"required,dateonly"`
	StartTime        string                         `json:"start_time"                  validate:"required,clock"`
	EndTime          string                         `json:"end_time"                    validate:"required,clock"`
	ResponsibleParty *UpdateResponsiblePartyRequest `json:"responsible_party,omitempty"`
	Requirements     []RequirementRequest           `json:"requirements,omitempty"      validate:"omitempty,max=20,dive"`
}

func (u *UpdateBookingRequest) Slot() (Slot, error) {
	return ParseSlot(u.BookingDate, u.StartTime, u.EndTime)
}

// Fields returns the full column set written by an update, including cleared values.
func (u *UpdateBookingRequest) Fields(slot Slot, user string) map[string]any {
	return map[string]any{
		model.FieldTitle:            u.Title,
		model.FieldDescription:      u.Description,
		model.FieldAttendees:        u.Attendees,
		model.FieldExternalAudience: u.ExternalAudience,
		model.FieldPreRegistration:  u.PreRegistration,
		model.FieldLayout:           u.Layout,
		model.FieldBookingDate:      slot.Date,
		model.FieldStartTime:        slot.Start,
		model.FieldEndTime:          slot.End,
		constant.FieldModifiedAt:    timezone.Now(),
		constant.FieldModifiedBy:    user,
	}
}

type DecisionRequest struct {
	Decision string  `json:"decision"         validate:"required,oneof=APPROVED REJECTED"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// NonBlank returns nil for a missing or whitespace-only reason.
func NonBlank(reason *string) *string {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return nil
	}

	trimmed := strings.TrimSpace(*reason)

	return &trimmed
}

type AvailabilityRequest struct {
	BookingDate string `json:"booking_date" validate:"required,dateonly"`
	StartTime   string `json:"start_time"   validate:"required,clock"`
	EndTime     string `json:"end_time"     validate:"required,clock"`
}

type AvailabilityResponse struct {
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Available   bool   `json:"available"`
}

type ResponsiblePartyResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r *ResponsiblePartyResponse) FromModel(party model.ResponsibleParty) {
	r.ID = party.ID
	r.Name = party.Name
	r.Email = party.Email
	r.Phone = party.Phone
}

type RequirementResponse struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	Required bool   `json:"required"`
}

type BookingResponse struct {
	ID               string                    `json:"id"`
	Title            string                    `json:"title"`
	Description      *string                   `json:"description,omitempty"`
	Attendees        int                       `json:"attendees"`
	ExternalAudience bool                      `json:"external_audience"`
	PreRegistration  bool                      `json:"pre_registration"`
	Layout           string                    `json:"layout"`
	BookingDate      string                    `json:"booking_date"`
	StartTime        string                    `json:"start_time"`
	EndTime          string                    `json:"end_time"`
	Status           string                    `json:"status"`
	Reason           *string                   `json:"reason,omitempty"`
	RequesterID      string                    `json:"requester_id"`
	ResponsibleParty *ResponsiblePartyResponse `json:"responsible_party,omitempty"`
	Requirements     []RequirementResponse     `json:"requirements"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.Title = booking.Title
	r.Description = booking.Description
	r.Attendees = booking.Attendees
	r.ExternalAudience = booking.ExternalAudience
	r.PreRegistration = booking.PreRegistration
	r.Layout = booking.Layout
	r.BookingDate = booking.BookingDate.String()
	r.StartTime = booking.StartTime.String()
	r.EndTime = booking.EndTime.String()
	r.Status = string(booking.Status)
	r.Reason = booking.Reason
	r.RequesterID = booking.RequesterID
	r.Requirements = []RequirementResponse{}
	r.Metadata.FromModel(booking.Metadata)
}

// Attach fills the related records. A missing party leaves the field empty.
func (r *BookingResponse) Attach(party model.ResponsibleParty, requirements []model.Requirement) {
	if party.ID != "" {
		r.ResponsibleParty = &ResponsiblePartyResponse{}
		r.ResponsibleParty.FromModel(party)
	}

	r.Requirements = make([]RequirementResponse, 0, len(requirements))
	for _, requirement := range requirements {
		r.Requirements = append(r.Requirements, RequirementResponse{
			ID:       requirement.ID,
			Type:     string(requirement.Type),
			Quantity: requirement.Quantity,
			Required: requirement.Required,
		})
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromResponses(bookings []BookingResponse, totalData, limit int) {
	r.Bookings = bookings
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)
}

type CalendarResponse struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Approved []BookingResponse `json:"approved"`
	Pending  []BookingResponse `json:"pending"`
}

// BookingFilter holds the list query filters. Empty fields are ignored.
type BookingFilter struct {
	Status      string `validate:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED COMPLETED"`
	BookingDate string `validate:"omitempty,dateonly"`
	RequesterID string `validate:"omitempty,uuid"`
}

func (f BookingFilter) FilterGroup() gDto.FilterGroup {
	group := gDto.And()

	for _, term := range [][2]string{
		{model.FieldStatus, f.Status},
		{model.FieldBookingDate, f.BookingDate},
		{model.FieldRequesterID, f.RequesterID},
	} {
		if term[1] != "" {
			group.Filters = append(group.Filters, gDto.Eq(term[0], term[1]).On(model.TableName))
		}
	}

	return group
}
