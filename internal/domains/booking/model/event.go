package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated   EventType = "booking.created"
	EventUpdated   EventType = "booking.updated"
	EventApproved  EventType = "booking.approved"
	EventRejected  EventType = "booking.rejected"
	EventCancelled EventType = "booking.cancelled"
	EventDeleted   EventType = "booking.deleted"
	EventCompleted EventType = "booking.completed"
)

// Event is the lifecycle record published after a mutation commits.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Actor       string    `json:"actor"`
	BookingID   string    `json:"booking_id"`
	RequesterID string    `json:"requester_id"`
	Status      Status    `json:"status"`
	BookingDate Date      `json:"booking_date"`
	StartTime   Clock     `json:"start_time"`
	EndTime     Clock     `json:"end_time"`
	Reason      *string   `json:"reason,omitempty"`
}

func NewEvent(eventType EventType, booking Booking, actor string, at time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		OccurredAt:  at,
		Actor:       actor,
		BookingID:   booking.ID,
		RequesterID: booking.RequesterID,
		Status:      booking.Status,
		BookingDate: booking.BookingDate,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Reason:      booking.Reason,
	}
}

// DecisionEvent maps the resulting status of a decision to its event type.
func DecisionEvent(status Status) EventType {
	if status == StatusApproved {
		return EventApproved
	}

	return EventRejected
}
