package service

import (
	"context"
	"fmt"
	"venue/infras/otel"
	"venue/internal/domains/booking/model"
	"venue/internal/domains/booking/model/dto"
	"venue/internal/domains/booking/repository"
	"venue/shared/constant"
	gDto "venue/shared/dto"

	"github.com/rs/zerolog/log"
)

// Requirements keeps the requirement rows of a booking in sync with a request.
type Requirements struct {
	repo repository.Requirement
	otel otel.Otel
}

func NewRequirements(repo repository.Requirement, otel otel.Otel) *Requirements {
	return &Requirements{repo: repo, otel: otel}
}

// Replace drops every requirement of the booking and stores items with fresh ids.
func (r *Requirements) Replace(ctx context.Context, bookingID string, items []dto.RequirementRequest) (res []model.Requirement, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReplaceRequirements")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = r.Clear(ctx, bookingID); err != nil {
		return nil, err
	}

	res = dto.ToRequirementModels(bookingID, items)

	if err = r.repo.InsertBulk(ctx, res); err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to insert requirements")

		return nil, fmt.Errorf("failed to insert requirements: %w", err)
	}

	return res, nil
}

func (r *Requirements) Clear(ctx context.Context, bookingID string) error {
	if err := r.repo.Delete(ctx, requirementsOf(bookingID)); err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to delete requirements")

		return fmt.Errorf("failed to delete requirements: %w", err)
	}

	return nil
}

func (r *Requirements) List(ctx context.Context, bookingID string) ([]model.Requirement, error) {
	requirements, err := r.repo.GetAll(ctx, gDto.QueryParams{}, requirementsOf(bookingID))
	if err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to get requirements")

		return nil, fmt.Errorf("failed to get requirements: %w", err)
	}

	return requirements, nil
}
