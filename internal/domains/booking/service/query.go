package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"venue/internal/domains/booking/model"
	"venue/internal/domains/booking/model/dto"
	"venue/shared"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	maxUpcomingDays = 365
	maxCalendarDays = 366
)

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		booking, err := s.load(ctx, id)
		if err != nil {
			return res, err
		}

		if res, err = s.hydrate(ctx, booking); err != nil {
			return res, err
		}

		s.saveCache(ctx, cacheKey, res)
	} else {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")
	}

	if res.RequesterID != caller.ID && !caller.Role.IsAdministrator() {
		return dto.BookingResponse{}, failure.Forbidden("you are not allowed to view this booking") //nolint:wrapcheck
	}

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	return shared.CacheAside(ctx, s.cache, cacheKey, s.cfg.Cache.TTL, func(ctx context.Context) (res dto.GetBookingsResponse, err error) {
		total, err := s.count(ctx, filter)
		if err != nil {
			return res, err
		}

		models, err := s.repo.GetAll(ctx, req, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to get bookings")

			return res, fmt.Errorf("failed to get bookings: %w", err)
		}

		bookings, err := s.hydrateAll(ctx, models)
		if err != nil {
			return res, err
		}

		res.FromResponses(bookings, total, req.Limit)

		return res, nil
	})
}

func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMine")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	return s.GetAll(ctx, req, requesterIs(caller.ID))
}

func (s *serviceImpl) count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, gDto.QueryParams{}, filter)

	return shared.CacheAside(ctx, s.cache, cacheKey, s.cfg.Cache.TTL, func(ctx context.Context) (int, error) {
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count bookings")

			return 0, fmt.Errorf("failed to count bookings: %w", err)
		}

		return total, nil
	})
}

// Upcoming lists APPROVED bookings from today through today+days, ordered by
// date then start time. A non-positive days falls back to the default window.
func (s *serviceImpl) Upcoming(ctx context.Context, days int) (res []dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Upcoming")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if days <= 0 {
		days = constant.DefaultUpcoming
	}

	if days > maxUpcomingDays {
		return nil, failure.BadRequestFromString(fmt.Sprintf("days must not exceed %d", maxUpcomingDays)) //nolint:wrapcheck
	}

	from := today()
	to := from.AddDays(days)
	cacheKey := shared.BuildCacheKey(cacheUpcomingBooking, from.String(), strconv.Itoa(days))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.between(ctx, from, to, model.StatusApproved)
	if err != nil {
		return nil, err
	}

	s.saveCache(ctx, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	slot, err := dto.ParseSlot(req.BookingDate, req.StartTime, req.EndTime)
	if err != nil {
		return res, err
	}

	available, err := s.availability.IsAvailable(ctx, slot.Date, slot.Start, slot.End, constant.Empty)
	if err != nil {
		return res, err
	}

	return dto.AvailabilityResponse{
		BookingDate: slot.Date.String(),
		StartTime:   slot.Start.String(),
		EndTime:     slot.End.String(),
		Available:   available,
	}, nil
}

// Calendar groups the APPROVED and PENDING bookings dated from..to inclusive.
func (s *serviceImpl) Calendar(ctx context.Context, from, to string) (res dto.CalendarResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Calendar")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	start, err := model.ParseDate(from)
	if err != nil {
		return res, failure.BadRequest(err) //nolint:wrapcheck
	}

	end, err := model.ParseDate(to)
	if err != nil {
		return res, failure.BadRequest(err) //nolint:wrapcheck
	}

	if end.Before(start) {
		return res, failure.BadRequestFromString("from must not be after to") //nolint:wrapcheck
	}

	if start.AddDays(maxCalendarDays).Before(end) {
		return res, failure.BadRequestFromString(fmt.Sprintf("calendar range must not exceed %d days", maxCalendarDays)) //nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheCalendarBooking, start.String(), end.String())

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	bookings, err := s.between(ctx, start, end, model.BlockingStatuses...)
	if err != nil {
		return res, err
	}

	res = dto.CalendarResponse{
		From:     start.String(),
		To:       end.String(),
		Approved: []dto.BookingResponse{},
		Pending:  []dto.BookingResponse{},
	}

	for _, booking := range bookings {
		switch model.Status(booking.Status) {
		case model.StatusApproved:
			res.Approved = append(res.Approved, booking)
		case model.StatusPending:
			res.Pending = append(res.Pending, booking)
		}
	}

	s.saveCache(ctx, cacheKey, res)

	return res, nil
}

// between returns bookings in statuses dated from..to, sorted by date then start time.
func (s *serviceImpl) between(ctx context.Context, from, to model.Date, statuses ...model.Status) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.GetAll(ctx, gDto.QueryParams{}, statusBetween(from, to, statuses...))
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings in range")

		return nil, fmt.Errorf("failed to get bookings in range: %w", err)
	}

	slices.SortStableFunc(bookings, func(a, b model.Booking) int {
		if c := a.BookingDate.Compare(b.BookingDate); c != 0 {
			return c
		}

		return cmp.Compare(a.StartTime, b.StartTime)
	})

	return s.hydrateAll(ctx, bookings)
}

// hydrate attaches the responsible party and requirements.
func (s *serviceImpl) hydrate(ctx context.Context, booking model.Booking) (res dto.BookingResponse, err error) {
	res.FromModel(booking)

	var party model.ResponsibleParty

	if booking.ResponsiblePartyID != constant.Empty {
		party, err = s.partyRepo.Get(ctx, shared.FilterByID(booking.ResponsiblePartyID, model.FieldID, model.ResponsiblePartyTableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get responsible party")

			return res, fmt.Errorf("failed to get responsible party: %w", err)
		}
	}

	requirements, err := s.requirements.List(ctx, booking.ID)
	if err != nil {
		return res, err
	}

	res.Attach(party, requirements)

	return res, nil
}

func (s *serviceImpl) hydrateAll(ctx context.Context, bookings []model.Booking) ([]dto.BookingResponse, error) {
	res := make([]dto.BookingResponse, 0, len(bookings))

	for _, booking := range bookings {
		item, err := s.hydrate(ctx, booking)
		if err != nil {
			return nil, err
		}

		res = append(res, item)
	}

	return res, nil
}

func (s *serviceImpl) saveCache(ctx context.Context, key string, value any) {
	shared.SaveCacheAsync(ctx, s.cache, key, value, s.cfg.Cache.TTL)
}
