package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks -mock_names=Booking=MockBookingRepository

import (
	"context"
	"fmt"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/internal/domains/booking/model"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	gRepo "venue/shared/repository"
)

const (
	queryApprovedConflict = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE booking_date = :booking_date
		AND status = :status
		AND start_time < :end_time
		AND end_time > :start_time
	)`

	queryLockDate = `SELECT pg_advisory_xact_lock(hashtext(:lock_key))`

	lockKeyPrefix = "bookings:"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	HasApprovedConflict(ctx context.Context, date model.Date, start, end model.Clock) (bool, error)
	LockDate(ctx context.Context, date model.Date) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel,
			gRepo.WithDefaultOrder(model.FieldBookingDate, model.FieldStartTime)),
		otel: otel,
	}
}

// HasApprovedConflict reports whether an APPROVED booking on date overlaps [start, end).
func (r *repositoryImpl) HasApprovedConflict(ctx context.Context, date model.Date, start, end model.Clock) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.HasApprovedConflict")
	defer scope.End()

	var exist bool

	err := r.Query(ctx, &exist, queryApprovedConflict, map[string]any{
		model.FieldBookingDate: date,
		model.FieldStatus:      model.StatusApproved,
		model.FieldStartTime:   start,
		model.FieldEndTime:     end,
	})
	if err != nil {
		scope.TraceError(err)

		return false, fmt.Errorf("failed to check approved conflict: %w", err)
	}

	return exist, nil
}

// LockDate serializes writers of one calendar day until the surrounding
// transaction ends. It must be called inside a transaction.
func (r *repositoryImpl) LockDate(ctx context.Context, date model.Date) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.LockDate")
	defer scope.End()

	if _, ok := postgres.TxFromContext(ctx); !ok {
		return postgres.ErrNoTransaction
	}

	err := r.Exec(ctx, queryLockDate, map[string]any{
		"lock_key": lockKeyPrefix + date.String(),
	})
	if err != nil {
		scope.TraceError(err)

		return fmt.Errorf("failed to lock booking date %s: %w", date, err)
	}

	return nil
}
