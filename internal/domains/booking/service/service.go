package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"slices"
	"venue/config"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/internal/domains/booking/event"
	"venue/internal/domains/booking/model"
	"venue/internal/domains/booking/model/dto"
	"venue/internal/domains/booking/repository"
	userModel "venue/internal/domains/user/model"
	"venue/shared"
	"venue/shared/cache"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"
	"venue/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking      = "booking:get"
	cacheGetAllBooking   = "booking:gets"
	cacheCountBooking    = "booking:count"
	cacheCalendarBooking = "booking:calendar"
	cacheUpcomingBooking = "booking:upcoming"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (dto.BookingResponse, error)
	Decide(ctx context.Context, req dto.DecisionRequest, id string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, req dto.CancelRequest, id string) (dto.BookingResponse, error)
	Delete(ctx context.Context, id string) error
	// Complete closes every APPROVED booking whose end has passed.
	Complete(ctx context.Context) (int, error)

	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	GetMine(ctx context.Context, req gDto.QueryParams) (dto.GetBookingsResponse, error)
	Upcoming(ctx context.Context, days int) ([]dto.BookingResponse, error)
	CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	Calendar(ctx context.Context, from, to string) (dto.CalendarResponse, error)
}

// IdentityResolver maps the authenticated username to a user record.
type IdentityResolver interface {
	Resolve(ctx context.Context, username string) (userModel.User, error)
}

type serviceImpl struct {
	repo         repository.Booking
	partyRepo    repository.ResponsibleParty
	tx           postgres.Transactor
	identity     IdentityResolver
	publisher    event.Publisher
	availability *Availability
	requirements *Requirements
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(
	repo repository.Booking,
	requirementRepo repository.Requirement,
	partyRepo repository.ResponsibleParty,
	tx postgres.Transactor,
	identity IdentityResolver,
	publisher event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:         repo,
		partyRepo:    partyRepo,
		tx:           tx,
		identity:     identity,
		publisher:    publisher,
		availability: NewAvailability(repo, otel),
		requirements: NewRequirements(requirementRepo, otel),
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	slot, err := req.Slot()
	if err != nil {
		return res, err
	}

	if slot.Date.Before(today()) {
		return res, failure.BadRequestFromString("booking_date cannot be in the past") //nolint:wrapcheck
	}

	var (
		booking      model.Booking
		party        model.ResponsibleParty
		requirements []model.Requirement
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockDates(ctx, slot.Date); err != nil {
			return err
		}

		available, err := s.availability.IsAvailable(ctx, slot.Date, slot.Start, slot.End, constant.Empty)
		if err != nil {
			return err
		}

		if !available {
			return failure.Conflict("the requested time slot is not available") //nolint:wrapcheck
		}

		party, err = s.responsibleParty(ctx, req.ResponsibleParty, caller.Username)
		if err != nil {
			return err
		}

		booking = req.ToModel(slot, caller.ID, party.ID, caller.Username)

		if err := s.repo.Insert(ctx, booking); err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return failure.NotFound("requester or responsible party no longer exists") //nolint:wrapcheck
			}

			log.Error().Err(err).Msg("failed to create booking")

			return fmt.Errorf("failed to create booking: %w", err)
		}

		requirements, err = s.requirements.Replace(ctx, booking.ID, req.Requirements)

		return err
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)
	res.Attach(party, requirements)

	s.afterCommit(ctx, caller.Username, model.EventCreated, booking)

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	slot, err := req.Slot()
	if err != nil {
		return res, err
	}

	var booking model.Booking

	err = s.withLockedBooking(ctx, id, []model.Date{slot.Date}, func(ctx context.Context, current model.Booking) error {
		if !caller.canManage(current) {
			return failure.Forbidden("you are not allowed to modify this booking") //nolint:wrapcheck
		}

		available, err := s.availability.IsAvailable(ctx, slot.Date, slot.Start, slot.End, current.ID)
		if err != nil {
			return err
		}

		if !available {
			return failure.Conflict("the requested time slot is not available") //nolint:wrapcheck
		}

		if err := s.repo.Update(ctx, req.Fields(slot, caller.Username), byID(current.ID)); err != nil {
			log.Error().Err(err).Msg("failed to update booking")

			return fmt.Errorf("failed to update booking: %w", err)
		}

		if req.ResponsibleParty != nil && current.ResponsiblePartyID != constant.Empty {
			if err := s.updateResponsibleParty(ctx, current.ResponsiblePartyID, *req.ResponsibleParty, caller.Username); err != nil {
				return err
			}
		}

		if req.Requirements != nil {
			if _, err := s.requirements.Replace(ctx, current.ID, req.Requirements); err != nil {
				return err
			}
		}

		booking, err = s.load(ctx, current.ID)

		return err
	})
	if err != nil {
		return res, err
	}

	res, err = s.hydrate(ctx, booking)
	if err != nil {
		return res, err
	}

	s.afterCommit(ctx, caller.Username, model.EventUpdated, booking)

	return res, nil
}

func (s *serviceImpl) Decide(ctx context.Context, req dto.DecisionRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Decide")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	if !caller.Role.IsAdministrator() {
		return res, failure.Forbidden("only administrators can approve or reject bookings") //nolint:wrapcheck
	}

	decision := model.Decision(req.Decision)
	if !decision.Valid() {
		return res, failure.BadRequestFromString("decision must be APPROVED or REJECTED") //nolint:wrapcheck
	}

	status := decision.Status()

	var booking model.Booking

	err = s.withLockedBooking(ctx, id, nil, func(ctx context.Context, current model.Booking) error {
		if current.Status != model.StatusPending {
			return failure.InvalidState(fmt.Sprintf("only pending bookings can be decided, booking is %s", current.Status)) //nolint:wrapcheck
		}

		if status == model.StatusApproved {
			free, err := s.availability.IsFreeOfApproved(ctx, current.BookingDate, current.StartTime, current.EndTime)
			if err != nil {
				return err
			}

			if !free {
				return failure.Conflict("an approved booking already occupies this time slot") //nolint:wrapcheck
			}
		}

		booking = current
		booking.Status = status
		booking.Reason = nil

		if status == model.StatusRejected {
			booking.Reason = dto.NonBlank(req.Reason)
		}

		return s.setStatus(ctx, &booking, caller.Username)
	})
	if err != nil {
		return res, err
	}

	res, err = s.hydrate(ctx, booking)
	if err != nil {
		return res, err
	}

	s.afterCommit(ctx, caller.Username, model.DecisionEvent(status), booking)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, req dto.CancelRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	var booking model.Booking

	err = s.withLockedBooking(ctx, id, nil, func(ctx context.Context, current model.Booking) error {
		if !caller.canManage(current) {
			return failure.Forbidden("you are not allowed to cancel this booking") //nolint:wrapcheck
		}

		if !current.Status.Cancellable() {
			return failure.InvalidState(fmt.Sprintf("only pending or approved bookings can be cancelled, booking is %s", current.Status)) //nolint:wrapcheck
		}

		booking = current
		booking.Status = model.StatusCancelled
		booking.Reason = dto.NonBlank(req.Reason)

		return s.setStatus(ctx, &booking, caller.Username)
	})
	if err != nil {
		return res, err
	}

	res, err = s.hydrate(ctx, booking)
	if err != nil {
		return res, err
	}

	s.afterCommit(ctx, caller.Username, model.EventCancelled, booking)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}

	var booking model.Booking

	err = s.withLockedBooking(ctx, id, nil, func(ctx context.Context, current model.Booking) error {
		if !caller.canManage(current) {
			return failure.Forbidden("you are not allowed to delete this booking") //nolint:wrapcheck
		}

		if current.Status == model.StatusApproved {
			return failure.InvalidState("approved bookings cannot be deleted, cancel it first") //nolint:wrapcheck
		}

		if err := s.requirements.Clear(ctx, current.ID); err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, byID(current.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking")

			return fmt.Errorf("failed to delete booking: %w", err)
		}

		booking = current

		return nil
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, caller.Username, model.EventDeleted, booking)

	return nil
}

// caller is the authenticated user behind a request.
type caller struct {
	ID       string
	Username string
	Role     userModel.Role
}

func (c caller) canManage(booking model.Booking) bool {
	return booking.OwnedBy(c.ID) || c.Role.IsAdministrator()
}

func (s *serviceImpl) caller(ctx context.Context) (caller, error) {
	username, _ := ctx.Value(constant.ContextKeyUsername).(string)
	if username == constant.Empty {
		return caller{}, failure.Unauthorized("missing authenticated user") //nolint:wrapcheck
	}

	user, err := s.identity.Resolve(ctx, username)
	if err != nil {
		return caller{}, err //nolint:wrapcheck
	}

	return caller{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// withLockedBooking loads the booking from the primary, locks its date plus any
// extra dates in ascending order, then reloads it inside the transaction before
// calling fn.
func (s *serviceImpl) withLockedBooking(ctx context.Context, id string, extra []model.Date, fn func(ctx context.Context, current model.Booking) error) error {
	snapshot, err := s.load(postgres.WithPrimary(ctx), id)
	if err != nil {
		return err
	}

	dates := append([]model.Date{snapshot.BookingDate}, extra...)

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockDates(ctx, dates...); err != nil {
			return err
		}

		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		if !current.BookingDate.Equal(snapshot.BookingDate) {
			return failure.Conflict("booking was modified concurrently, retry the request") //nolint:wrapcheck
		}

		return fn(ctx, current)
	})
}

func (s *serviceImpl) lockDates(ctx context.Context, dates ...model.Date) error {
	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, func(a, b model.Date) int {
		return a.Compare(b)
	})
	sorted = slices.CompactFunc(sorted, model.Date.Equal)

	for _, date := range sorted {
		if err := s.repo.LockDate(ctx, date); err != nil {
			log.Error().Err(err).Str("date", date.String()).Msg("failed to lock booking date")

			return fmt.Errorf("failed to lock booking date: %w", err)
		}
	}

	return nil
}

// load answers NotFound for ids that are not UUIDs; no booking can carry one.
func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	if uuid.Validate(id) != nil {
		return model.Booking{}, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	booking, err := s.repo.Get(ctx, byID(id))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) setStatus(ctx context.Context, booking *model.Booking, user string) error {
	booking.ModifiedAt = timezone.Now()
	booking.ModifiedBy = user

	fields := map[string]any{
		model.FieldStatus:        booking.Status,
		model.FieldReason:        booking.Reason,
		constant.FieldModifiedAt: booking.ModifiedAt,
		constant.FieldModifiedBy: booking.ModifiedBy,
	}

	if err := s.repo.Update(ctx, fields, byID(booking.ID)); err != nil {
		log.Error().Err(err).Str("status", string(booking.Status)).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	return nil
}

// responsibleParty reuses an existing party by id or stores a new one.
func (s *serviceImpl) responsibleParty(ctx context.Context, req dto.ResponsiblePartyRequest, user string) (model.ResponsibleParty, error) {
	if req.ID != constant.Empty {
		party, err := s.partyRepo.Get(ctx, shared.FilterByID(req.ID, model.FieldID, model.ResponsiblePartyTableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get responsible party")

			return party, fmt.Errorf("failed to get responsible party: %w", err)
		}

		if party.ID == constant.Empty {
			return party, failure.NotFound("responsible party not found") //nolint:wrapcheck
		}

		return party, nil
	}

	party := req.ToModel(user)

	if err := s.partyRepo.Insert(ctx, party); err != nil {
		log.Error().Err(err).Msg("failed to create responsible party")

		return party, fmt.Errorf("failed to create responsible party: %w", err)
	}

	return party, nil
}

// updateResponsibleParty writes through to the shared record, so every
// booking referencing it sees the change. Last writer wins.
func (s *serviceImpl) updateResponsibleParty(ctx context.Context, id string, req dto.UpdateResponsiblePartyRequest, user string) error {
	fields := map[string]any{
		model.FieldResponsiblePartyName:  req.Name,
		model.FieldResponsiblePartyEmail: req.Email,
		model.FieldResponsiblePartyPhone: req.Phone,
		constant.FieldModifiedAt:         timezone.Now(),
		constant.FieldModifiedBy:         user,
	}

	if err := s.partyRepo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.ResponsiblePartyTableName)); err != nil {
		log.Error().Err(err).Msg("failed to update responsible party")

		return fmt.Errorf("failed to update responsible party: %w", err)
	}

	return nil
}

// afterCommit drops stale caches before the caller gets its response, then
// publishes the lifecycle event in the background. Neither can fail the request.
func (s *serviceImpl) afterCommit(ctx context.Context, actor string, eventType model.EventType, bookings ...model.Booking) {
	c := context.WithoutCancel(ctx)

	events := make([]model.Event, 0, len(bookings))
	now := timezone.Now()

	for _, booking := range bookings {
		events = append(events, model.NewEvent(eventType, booking, actor, now))

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, booking.ID)); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to delete booking from cache")
		}
	}

	for _, prefix := range []string{cacheGetAllBooking, cacheCountBooking, cacheCalendarBooking, cacheUpcomingBooking} {
		shared.InvalidateCaches(c, s.cache, prefix)
	}

	go func() {
		if err := s.publisher.Publish(c, events...); err != nil {
			log.Error().Err(err).Str("event", string(eventType)).Msg("failed to publish booking event")
		}
	}()
}

func byID(id string) gDto.FilterGroup {
	return shared.FilterByID(id, model.FieldID, model.TableName)
}

// today is the current calendar day at the venue.
func today() model.Date {
	return model.DateOf(timezone.Today())
}
