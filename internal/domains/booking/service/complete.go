package service

import (
	"context"
	"fmt"
	"venue/internal/domains/booking/model"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"
	"venue/shared/timezone"

	"github.com/rs/zerolog/log"
)

// Complete moves every APPROVED booking whose end has passed to COMPLETED.
// Bookings changed by a concurrent request are skipped until the next sweep.
func (s *serviceImpl) Complete(ctx context.Context) (completed int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Complete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	wallClock := timezone.WallClock()

	candidates, err := s.repo.GetAll(ctx, gDto.QueryParams{}, approvedUntil(model.DateOf(wallClock)))
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings to complete")

		return 0, fmt.Errorf("failed to get bookings to complete: %w", err)
	}

	finished := make([]model.Booking, 0, len(candidates))

	var sweepErr error

	for _, candidate := range candidates {
		if candidate.BookingDate.At(candidate.EndTime).After(wallClock) {
			continue
		}

		var booking model.Booking

		err := s.withLockedBooking(ctx, candidate.ID, nil, func(ctx context.Context, current model.Booking) error {
			if current.Status != model.StatusApproved {
				return nil
			}

			booking = current
			booking.Status = model.StatusCompleted

			return s.setStatus(ctx, &booking, constant.ContextSystem)
		})
		if err != nil {
			if failure.IsClientError(err) {
				log.Warn().Err(err).Str("booking_id", candidate.ID).Msg("skipped booking completion")

				continue
			}

			sweepErr = fmt.Errorf("failed to complete booking %s: %w", candidate.ID, err)

			break
		}

		if booking.ID != constant.Empty {
			finished = append(finished, booking)
		}
	}

	if len(finished) > 0 {
		s.afterCommit(ctx, constant.ContextSystem, model.EventCompleted, finished...)
	}

	log.Info().Int("completed", len(finished)).Msg("booking completion sweep finished")

	return len(finished), sweepErr
}
