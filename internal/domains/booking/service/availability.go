package service

import (
	"context"
	"fmt"
	"venue/infras/otel"
	"venue/internal/domains/booking/model"
	"venue/internal/domains/booking/repository"
	"venue/shared/constant"
	gDto "venue/shared/dto"

	"github.com/rs/zerolog/log"
)

// Availability answers whether a window on a date is still free.
type Availability struct {
	repo repository.Booking
	otel otel.Otel
}

func NewAvailability(repo repository.Booking, otel otel.Otel) *Availability {
	return &Availability{repo: repo, otel: otel}
}

// IsAvailable checks the window against every APPROVED or PENDING booking on
// date. excludeID skips the booking being edited.
func (a *Availability) IsAvailable(ctx context.Context, date model.Date, start, end model.Clock, excludeID string) (available bool, err error) {
	ctx, scope := a.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsAvailable")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	bookings, err := a.repo.GetAll(ctx, gDto.QueryParams{}, blockingOn(date))
	if err != nil {
		log.Error().Err(err).Str("date", date.String()).Msg("failed to get bookings for availability")

		return false, fmt.Errorf("failed to get bookings for availability: %w", err)
	}

	for _, booking := range bookings {
		if booking.ID == excludeID {
			continue
		}

		if booking.OverlapsWith(start, end) {
			return false, nil
		}
	}

	return true, nil
}

// IsFreeOfApproved ignores PENDING bookings. Used when approving.
func (a *Availability) IsFreeOfApproved(ctx context.Context, date model.Date, start, end model.Clock) (free bool, err error) {
	ctx, scope := a.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsFreeOfApproved")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	conflict, err := a.repo.HasApprovedConflict(ctx, date, start, end)
	if err != nil {
		log.Error().Err(err).Str("date", date.String()).Msg("failed to check approved conflict")

		return false, fmt.Errorf("failed to check approved conflict: %w", err)
	}

	return !conflict, nil
}
