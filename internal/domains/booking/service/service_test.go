package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"
	"venue/config"
	"venue/infras/otel/mocks"
	bookingMocks "venue/internal/domains/booking/mocks"
	"venue/internal/domains/booking/model"
	"venue/internal/domains/booking/model/dto"
	userModel "venue/internal/domains/user/model"
	"venue/shared"
	"venue/shared/constant"
	"venue/shared/failure"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	requester = userModel.User{ID: "7c1f9a52-0000-4000-8000-000000000001", Username: "r1", Role: userModel.RoleRequester, Active: true}
	other     = userModel.User{ID: "7c1f9a52-0000-4000-8000-000000000002", Username: "r2", Role: userModel.RoleRequester, Active: true}
	admin     = userModel.User{ID: "7c1f9a52-0000-4000-8000-000000000003", Username: "admin", Role: userModel.RoleAdministrator, Active: true}
	inactive  = userModel.User{ID: "7c1f9a52-0000-4000-8000-000000000004", Username: "gone", Role: userModel.RoleRequester}
)

type fixture struct {
	store  *store
	events *recorder
	svc    Booking
}

func newFixture() *fixture {
	st := newStore(requester, other, admin, inactive)
	events := &recorder{}

	return &fixture{
		store:  st,
		events: events,
		svc:    New(bookingRepo{st}, requirementRepo{st}, partyRepo{st}, st, st, events, &config.Config{}, missCache{}, mocks.NewOtel()),
	}
}

func as(user userModel.User) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUsername, user.Username)
}

func day(offset int) model.Date {
	return today().AddDays(offset)
}

func clock(value string) model.Clock {
	c, err := model.ParseClock(value)
	if err != nil {
		panic(err)
	}

	return c
}

func ptr[T any](v T) *T {
	return &v
}

func seed(st *store, owner userModel.User, date model.Date, start, end string, status model.Status) model.Booking {
	booking := model.Booking{
		ID:          uuid.NewString(),
		Title:       "Seeded booking",
		Attendees:   10,
		Layout:      "banquet",
		BookingDate: date,
		StartTime:   clock(start),
		EndTime:     clock(end),
		Status:      status,
		RequesterID: owner.ID,
	}

	st.put(booking)

	return booking
}

func newCreateRequest(date model.Date, start, end string) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		Title:       "Quarterly planning",
		Attendees:   40,
		Layout:      "theatre",
		BookingDate: date.String(),
		StartTime:   start,
		EndTime:     end,
		ResponsibleParty: dto.ResponsiblePartyRequest{
			Name:  "Ana Lima",
			Email: "ana@example.com",
			Phone: "555-0100",
		},
		Requirements: []dto.RequirementRequest{
			{Type: string(model.RequirementAudioVisual), Quantity: 2},
			{Type: string(model.RequirementSeating), Quantity: 40, Required: ptr(false)},
		},
	}
}

func newUpdateRequest(date model.Date, start, end string) dto.UpdateBookingRequest {
	return dto.UpdateBookingRequest{
		Title:       "Quarterly planning (moved)",
		Attendees:   55,
		Layout:      "classroom",
		BookingDate: date.String(),
		StartTime:   start,
		EndTime:     end,
	}
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()

	if code == 0 {
		require.NoError(t, err)

		return
	}

	require.Error(t, err)
	assert.Equal(t, code, failure.GetCode(err), err.Error())
}

func (f *fixture) eventually(t *testing.T, eventType model.EventType) {
	t.Helper()

	assert.Eventually(t, func() bool {
		return slices.Contains(f.events.types(), eventType)
	}, time.Second, 10*time.Millisecond)
}

func TestCreate(t *testing.T) {
	date := day(30)

	tests := []struct {
		name string
		ctx  context.Context
		seed func(st *store)
		req  func() dto.CreateBookingRequest
		code int
	}{
		{
			name: "creates pending booking",
			ctx:  as(requester),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "09:00", "10:00") },
		},
		{
			name: "today is allowed",
			ctx:  as(requester),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(day(0), "22:00", "23:00") },
		},
		{
			name: "end before start",
			ctx:  as(requester),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "11:00", "10:00") },
			code: http.StatusBadRequest,
		},
		{
			name: "empty window",
			ctx:  as(requester),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "10:00", "10:00") },
			code: http.StatusBadRequest,
		},
		{
			name: "date in the past",
			ctx:  as(requester),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(day(-1), "09:00", "10:00") },
			code: http.StatusBadRequest,
		},
		{
			name: "missing identity",
			ctx:  context.Background(),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "09:00", "10:00") },
			code: http.StatusUnauthorized,
		},
		{
			name: "inactive requester",
			ctx:  as(inactive),
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "09:00", "10:00") },
			code: http.StatusNotFound,
		},
		{
			name: "pending booking blocks",
			ctx:  as(requester),
			seed: func(st *store) { seed(st, other, date, "09:00", "10:00", model.StatusPending) },
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "09:30", "10:30") },
			code: http.StatusConflict,
		},
		{
			name: "approved booking blocks",
			ctx:  as(requester),
			seed: func(st *store) { seed(st, other, date, "08:00", "12:00", model.StatusApproved) },
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "09:30", "10:30") },
			code: http.StatusConflict,
		},
		{
			name: "back to back is free",
			ctx:  as(requester),
			seed: func(st *store) {
				seed(st, other, date, "08:00", "09:00", model.StatusApproved)
				seed(st, other, date, "10:00", "11:00", model.StatusPending)
			},
			req: func() dto.CreateBookingRequest { return newCreateRequest(date, "09:00", "10:00") },
		},
		{
			name: "closed bookings do not block",
			ctx:  as(requester),
			seed: func(st *store) {
				seed(st, other, date, "09:00", "10:00", model.StatusRejected)
				seed(st, other, date, "09:00", "10:00", model.StatusCancelled)
				seed(st, other, date, "09:00", "10:00", model.StatusCompleted)
			},
			req: func() dto.CreateBookingRequest { return newCreateRequest(date, "09:00", "10:00") },
		},
		{
			name: "same window on another date",
			ctx:  as(requester),
			seed: func(st *store) { seed(st, other, day(31), "09:00", "10:00", model.StatusApproved) },
			req:  func() dto.CreateBookingRequest { return newCreateRequest(date, "09:00", "10:00") },
		},
		{
			name: "unknown responsible party",
			ctx:  as(requester),
			req: func() dto.CreateBookingRequest {
				req := newCreateRequest(date, "09:00", "10:00")
				req.ResponsibleParty = dto.ResponsiblePartyRequest{ID: uuid.NewString()}

				return req
			},
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.seed != nil {
				tt.seed(f.store)
			}

			before := len(f.store.allBookings())

			res, err := f.svc.Create(tt.ctx, tt.req())
			assertCode(t, err, tt.code)

			if tt.code != 0 {
				assert.Len(t, f.store.allBookings(), before)

				return
			}

			assert.Equal(t, string(model.StatusPending), res.Status)
			assert.Equal(t, requester.ID, res.RequesterID)
			assert.Nil(t, res.Reason)
			require.NotNil(t, res.ResponsibleParty)
			assert.Equal(t, "Ana Lima", res.ResponsibleParty.Name)
			require.Len(t, res.Requirements, 2)
			assert.True(t, res.Requirements[0].Required)
			assert.False(t, res.Requirements[1].Required)

			stored, ok := f.store.booking(res.ID)
			require.True(t, ok)
			assert.Equal(t, model.StatusPending, stored.Status)
			assert.Equal(t, requester.Username, stored.CreatedBy)
			assert.Len(t, f.store.requirementsOf(res.ID), 2)

			f.eventually(t, model.EventCreated)
		})
	}
}

func TestCreate_ReusesResponsibleParty(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Create(as(requester), newCreateRequest(day(30), "09:00", "10:00"))
	require.NoError(t, err)

	req := newCreateRequest(day(30), "10:00", "11:00")
	req.ResponsibleParty = dto.ResponsiblePartyRequest{ID: first.ResponsibleParty.ID}

	second, err := f.svc.Create(as(other), req)
	require.NoError(t, err)

	assert.Equal(t, first.ResponsibleParty.ID, second.ResponsibleParty.ID)
	assert.Len(t, f.store.parties, 1)
}

func TestCreate_RollsBackOnFailure(t *testing.T) {
	f := newFixture()
	f.store.failInsertRequirements = true

	_, err := f.svc.Create(as(requester), newCreateRequest(day(30), "09:00", "10:00"))
	assertCode(t, err, http.StatusInternalServerError)

	assert.Empty(t, f.store.allBookings())
	assert.Empty(t, f.store.parties)
}

func TestCreate_VanishedReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := bookingMocks.NewMockBookingRepository(ctrl)
	st := newStore(requester)
	svc := New(repo, requirementRepo{st}, partyRepo{st}, st, st, &recorder{}, &config.Config{}, missCache{}, mocks.NewOtel())

	repo.EXPECT().LockDate(gomock.Any(), day(30)).Return(nil)
	repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(fmt.Errorf("insert: %w", &pq.Error{Code: constant.PqErrorCodeFkViolation}))

	_, err := svc.Create(as(requester), newCreateRequest(day(30), "09:00", "10:00"))
	assertCode(t, err, http.StatusNotFound)
	assert.Empty(t, st.parties)
}

func TestUpdate(t *testing.T) {
	date := day(30)

	tests := []struct {
		name   string
		ctx    context.Context
		seed   func(st *store) model.Booking
		req    dto.UpdateBookingRequest
		code   int
		expect func(t *testing.T, st *store, booking model.Booking)
	}{
		{
			name: "unchanged window does not conflict with itself",
			ctx:  as(requester),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  newUpdateRequest(date, "09:00", "10:00"),
			expect: func(t *testing.T, _ *store, booking model.Booking) {
				assert.Equal(t, date, booking.BookingDate)
				assert.Equal(t, clock("09:00"), booking.StartTime)
				assert.Equal(t, clock("10:00"), booking.EndTime)
				assert.Equal(t, "Quarterly planning (moved)", booking.Title)
				assert.Equal(t, "classroom", booking.Layout)
			},
		},
		{
			name: "moving within its own window excludes itself",
			ctx:  as(requester),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  newUpdateRequest(date, "09:30", "10:30"),
			expect: func(t *testing.T, _ *store, booking model.Booking) {
				assert.Equal(t, clock("09:30"), booking.StartTime)
				assert.Equal(t, clock("10:30"), booking.EndTime)
				assert.Equal(t, "classroom", booking.Layout)
				assert.Equal(t, 55, booking.Attendees)
			},
		},
		{
			name: "administrator may edit any booking",
			ctx:  as(admin),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusApproved) },
			req:  newUpdateRequest(date, "13:00", "14:00"),
			expect: func(t *testing.T, _ *store, booking model.Booking) {
				assert.Equal(t, model.StatusApproved, booking.Status)
				assert.Equal(t, admin.Username, booking.ModifiedBy)
			},
		},
		{
			name: "moving to another date",
			ctx:  as(requester),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  newUpdateRequest(day(40), "09:00", "10:00"),
			expect: func(t *testing.T, _ *store, booking model.Booking) {
				assert.True(t, booking.BookingDate.Equal(day(40)))
			},
		},
		{
			name: "overlap with another pending booking",
			ctx:  as(requester),
			seed: func(st *store) model.Booking {
				seed(st, other, date, "11:00", "12:00", model.StatusPending)

				return seed(st, requester, date, "09:00", "10:00", model.StatusPending)
			},
			req:  newUpdateRequest(date, "10:30", "11:30"),
			code: http.StatusConflict,
		},
		{
			name: "overlap with an approved booking on the target date",
			ctx:  as(requester),
			seed: func(st *store) model.Booking {
				seed(st, other, day(40), "09:00", "12:00", model.StatusApproved)

				return seed(st, requester, date, "09:00", "10:00", model.StatusPending)
			},
			req:  newUpdateRequest(day(40), "10:00", "11:00"),
			code: http.StatusConflict,
		},
		{
			name: "not the owner",
			ctx:  as(other),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  newUpdateRequest(date, "09:00", "10:00"),
			code: http.StatusForbidden,
		},
		{
			name: "invalid window",
			ctx:  as(requester),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  newUpdateRequest(date, "10:00", "09:00"),
			code: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			original := tt.seed(f.store)

			_, err := f.svc.Update(tt.ctx, tt.req, original.ID)
			assertCode(t, err, tt.code)

			stored, ok := f.store.booking(original.ID)
			require.True(t, ok)

			if tt.code != 0 {
				assert.Equal(t, original, stored)

				return
			}

			tt.expect(t, f.store, stored)
			f.eventually(t, model.EventUpdated)
		})
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(as(admin), newUpdateRequest(day(30), "09:00", "10:00"), uuid.NewString())
	assertCode(t, err, http.StatusNotFound)
}

func TestUpdate_Requirements(t *testing.T) {
	tests := []struct {
		name     string
		items    []dto.RequirementRequest
		expected []model.RequirementType
	}{
		{
			name:     "omitted list leaves requirements untouched",
			items:    nil,
			expected: []model.RequirementType{model.RequirementAudioVisual, model.RequirementSeating},
		},
		{
			name:     "empty list clears requirements",
			items:    []dto.RequirementRequest{},
			expected: []model.RequirementType{},
		},
		{
			name:     "list replaces requirements",
			items:    []dto.RequirementRequest{{Type: string(model.RequirementCatering), Quantity: 3}},
			expected: []model.RequirementType{model.RequirementCatering},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			created, err := f.svc.Create(as(requester), newCreateRequest(day(30), "09:00", "10:00"))
			require.NoError(t, err)

			req := newUpdateRequest(day(30), "09:00", "10:00")
			req.Requirements = tt.items

			res, err := f.svc.Update(as(requester), req, created.ID)
			require.NoError(t, err)

			got := []model.RequirementType{}
			for _, item := range res.Requirements {
				got = append(got, model.RequirementType(item.Type))
			}

			assert.ElementsMatch(t, tt.expected, got)
			assert.Len(t, f.store.requirementsOf(created.ID), len(tt.expected))
		})
	}
}

func TestUpdate_ResponsiblePartyIsShared(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Create(as(requester), newCreateRequest(day(30), "09:00", "10:00"))
	require.NoError(t, err)

	req := newCreateRequest(day(30), "10:00", "11:00")
	req.ResponsibleParty = dto.ResponsiblePartyRequest{ID: first.ResponsibleParty.ID}

	second, err := f.svc.Create(as(requester), req)
	require.NoError(t, err)

	update := newUpdateRequest(day(30), "10:00", "11:00")
	update.ResponsibleParty = &dto.UpdateResponsiblePartyRequest{Name: "Bruno Costa", Email: "bruno@example.com"}

	_, err = f.svc.Update(as(requester), update, second.ID)
	require.NoError(t, err)

	reloaded, err := f.svc.Get(as(requester), first.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ResponsibleParty)
	assert.Equal(t, "Bruno Costa", reloaded.ResponsibleParty.Name)
	assert.Empty(t, reloaded.ResponsibleParty.Phone)
}

func TestDecide(t *testing.T) {
	date := day(30)

	tests := []struct {
		name   string
		ctx    context.Context
		seed   func(st *store) model.Booking
		req    dto.DecisionRequest
		code   int
		status model.Status
		reason *string
	}{
		{
			name:   "approve pending",
			ctx:    as(admin),
			seed:   func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:    dto.DecisionRequest{Decision: string(model.DecisionApprove), Reason: ptr("looks good")},
			status: model.StatusApproved,
		},
		{
			name:   "reject with reason",
			ctx:    as(admin),
			seed:   func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:    dto.DecisionRequest{Decision: string(model.DecisionReject), Reason: ptr(" space needed ")},
			status: model.StatusRejected,
			reason: ptr("space needed"),
		},
		{
			name:   "reject with blank reason",
			ctx:    as(admin),
			seed:   func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:    dto.DecisionRequest{Decision: string(model.DecisionReject), Reason: ptr("   ")},
			status: model.StatusRejected,
		},
		{
			name: "pending overlap does not block approval",
			ctx:  as(admin),
			seed: func(st *store) model.Booking {
				seed(st, other, date, "09:30", "10:30", model.StatusPending)

				return seed(st, requester, date, "09:00", "10:00", model.StatusPending)
			},
			req:    dto.DecisionRequest{Decision: string(model.DecisionApprove)},
			status: model.StatusApproved,
		},
		{
			name: "approved overlap blocks approval",
			ctx:  as(admin),
			seed: func(st *store) model.Booking {
				seed(st, other, date, "09:30", "10:30", model.StatusApproved)

				return seed(st, requester, date, "09:00", "10:00", model.StatusPending)
			},
			req:  dto.DecisionRequest{Decision: string(model.DecisionApprove)},
			code: http.StatusConflict,
		},
		{
			name: "approved overlap does not block rejection",
			ctx:  as(admin),
			seed: func(st *store) model.Booking {
				seed(st, other, date, "09:30", "10:30", model.StatusApproved)

				return seed(st, requester, date, "09:00", "10:00", model.StatusPending)
			},
			req:    dto.DecisionRequest{Decision: string(model.DecisionReject)},
			status: model.StatusRejected,
		},
		{
			name: "already decided",
			ctx:  as(admin),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusApproved) },
			req:  dto.DecisionRequest{Decision: string(model.DecisionReject)},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "cancelled booking",
			ctx:  as(admin),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusCancelled) },
			req:  dto.DecisionRequest{Decision: string(model.DecisionApprove)},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "requester cannot decide",
			ctx:  as(requester),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  dto.DecisionRequest{Decision: string(model.DecisionApprove)},
			code: http.StatusForbidden,
		},
		{
			name: "unknown decision",
			ctx:  as(admin),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  dto.DecisionRequest{Decision: "MAYBE"},
			code: http.StatusBadRequest,
		},
		{
			name: "empty decision",
			ctx:  as(admin),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  dto.DecisionRequest{},
			code: http.StatusBadRequest,
		},
		{
			name: "decision is a target status, not a verb",
			ctx:  as(admin),
			seed: func(st *store) model.Booking { return seed(st, requester, date, "09:00", "10:00", model.StatusPending) },
			req:  dto.DecisionRequest{Decision: string(model.StatusCancelled)},
			code: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			original := tt.seed(f.store)

			res, err := f.svc.Decide(tt.ctx, tt.req, original.ID)
			assertCode(t, err, tt.code)

			stored, _ := f.store.booking(original.ID)

			if tt.code != 0 {
				assert.Equal(t, original, stored)

				return
			}

			assert.Equal(t, tt.status, stored.Status)
			assert.Equal(t, string(tt.status), res.Status)
			assert.Equal(t, tt.reason, stored.Reason)
			f.eventually(t, model.DecisionEvent(tt.status))
		})
	}
}

func TestDecide_Twice(t *testing.T) {
	f := newFixture()
	booking := seed(f.store, requester, day(30), "09:00", "10:00", model.StatusPending)

	_, err := f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, booking.ID)
	require.NoError(t, err)

	_, err = f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, booking.ID)
	assertCode(t, err, http.StatusUnprocessableEntity)
}

func TestCancel(t *testing.T) {
	date := day(30)

	tests := []struct {
		name   string
		ctx    context.Context
		status model.Status
		reason *string
		code   int
		want   *string
	}{
		{name: "owner cancels pending", ctx: as(requester), status: model.StatusPending, reason: ptr("plans changed"), want: ptr("plans changed")},
		{name: "administrator cancels approved", ctx: as(admin), status: model.StatusApproved, reason: ptr("maintenance"), want: ptr("maintenance")},
		{name: "blank reason is dropped", ctx: as(requester), status: model.StatusApproved, reason: ptr(" ")},
		{name: "no reason", ctx: as(requester), status: model.StatusPending},
		{name: "rejected", ctx: as(requester), status: model.StatusRejected, code: http.StatusUnprocessableEntity},
		{name: "completed", ctx: as(admin), status: model.StatusCompleted, code: http.StatusUnprocessableEntity},
		{name: "already cancelled", ctx: as(requester), status: model.StatusCancelled, code: http.StatusUnprocessableEntity},
		{name: "not the owner", ctx: as(other), status: model.StatusPending, code: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			original := seed(f.store, requester, date, "09:00", "10:00", tt.status)

			_, err := f.svc.Cancel(tt.ctx, dto.CancelRequest{Reason: tt.reason}, original.ID)
			assertCode(t, err, tt.code)

			stored, _ := f.store.booking(original.ID)

			if tt.code != 0 {
				assert.Equal(t, original, stored)

				return
			}

			assert.Equal(t, model.StatusCancelled, stored.Status)
			assert.Equal(t, tt.want, stored.Reason)
			f.eventually(t, model.EventCancelled)
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		status model.Status
		code   int
	}{
		{name: "pending", ctx: as(requester), status: model.StatusPending},
		{name: "rejected", ctx: as(requester), status: model.StatusRejected},
		{name: "cancelled by administrator", ctx: as(admin), status: model.StatusCancelled},
		{name: "approved", ctx: as(requester), status: model.StatusApproved, code: http.StatusUnprocessableEntity},
		{name: "approved as administrator", ctx: as(admin), status: model.StatusApproved, code: http.StatusUnprocessableEntity},
		{name: "not the owner", ctx: as(other), status: model.StatusPending, code: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			created, err := f.svc.Create(as(requester), newCreateRequest(day(30), "09:00", "10:00"))
			require.NoError(t, err)

			require.NoError(t, bookingRepo{f.store}.Update(context.Background(), map[string]any{model.FieldStatus: tt.status}, byID(created.ID)))

			err = f.svc.Delete(tt.ctx, created.ID)
			assertCode(t, err, tt.code)

			_, exist := f.store.booking(created.ID)

			if tt.code != 0 {
				assert.True(t, exist)
				assert.Len(t, f.store.requirementsOf(created.ID), 2)

				return
			}

			assert.False(t, exist)
			assert.Empty(t, f.store.requirementsOf(created.ID))
			f.eventually(t, model.EventDeleted)
		})
	}
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture()

	assertCode(t, f.svc.Delete(as(admin), uuid.NewString()), http.StatusNotFound)
}

func TestMalformedID(t *testing.T) {
	ids := []string{"abc", "1", "7c1f9a52-0000-4000-8000", "7c1f9a52-0000-4000-8000-00000000000z"}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// no expectations: a malformed id must never reach the database
			repo := bookingMocks.NewMockBookingRepository(ctrl)
			st := newStore(requester, admin)
			svc := New(repo, requirementRepo{st}, partyRepo{st}, st, st, &recorder{}, &config.Config{}, missCache{}, mocks.NewOtel())

			_, err := svc.Get(as(admin), id)
			assertCode(t, err, http.StatusNotFound)

			_, err = svc.Update(as(requester), newUpdateRequest(day(30), "09:00", "10:00"), id)
			assertCode(t, err, http.StatusNotFound)

			_, err = svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, id)
			assertCode(t, err, http.StatusNotFound)

			_, err = svc.Cancel(as(requester), dto.CancelRequest{}, id)
			assertCode(t, err, http.StatusNotFound)

			assertCode(t, svc.Delete(as(admin), id), http.StatusNotFound)
		})
	}
}

func TestDecide_InvalidatesBeforeReturning(t *testing.T) {
	st := newStore(requester, admin)
	cache := &recordingCache{}
	svc := New(bookingRepo{st}, requirementRepo{st}, partyRepo{st}, st, st, &recorder{}, &config.Config{}, cache, mocks.NewOtel())
	booking := seed(st, requester, day(30), "09:00", "10:00", model.StatusPending)

	_, err := svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, booking.ID)
	require.NoError(t, err)

	deleted, cleared := cache.snapshot()
	assert.Contains(t, deleted, shared.BuildCacheKey(cacheGetBooking, booking.ID))
	assert.Contains(t, cleared, shared.BuildCacheKey(cacheGetAllBooking, constant.Asterix))
	assert.Contains(t, cleared, shared.BuildCacheKey(cacheCalendarBooking, constant.Asterix))
}

func TestLifecycleScenario(t *testing.T) {
	f := newFixture()
	date := day(30)

	a, err := f.svc.Create(as(requester), newCreateRequest(date, "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusPending), a.Status)

	_, err = f.svc.Create(as(other), newCreateRequest(date, "09:30", "10:30"))
	assertCode(t, err, http.StatusConflict)

	rejected, err := f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionReject), Reason: ptr("space needed")}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusRejected), rejected.Status)
	require.NotNil(t, rejected.Reason)
	assert.Equal(t, "space needed", *rejected.Reason)

	b, err := f.svc.Create(as(other), newCreateRequest(date, "09:30", "10:30"))
	require.NoError(t, err)

	approved, err := f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusApproved), approved.Status)

	c := seed(f.store, requester, date, "09:45", "10:15", model.StatusPending)

	_, err = f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, c.ID)
	assertCode(t, err, http.StatusConflict)

	stored, _ := f.store.booking(c.ID)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestCreate_Concurrent(t *testing.T) {
	f := newFixture()
	date := day(30)
	users := []userModel.User{requester, other, admin}

	const attempts = 12

	errs := make(chan error, attempts)

	for i := range attempts {
		go func(user userModel.User) {
			_, err := f.svc.Create(as(user), newCreateRequest(date, "09:00", "10:00"))
			errs <- err
		}(users[i%len(users)])
	}

	succeeded := 0

	for range attempts {
		err := <-errs
		if err == nil {
			succeeded++

			continue
		}

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	}

	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.allBookings(), 1)
}

func TestComplete(t *testing.T) {
	f := newFixture()

	finished := seed(f.store, requester, day(-1), "09:00", "10:00", model.StatusApproved)
	future := seed(f.store, requester, day(1), "09:00", "10:00", model.StatusApproved)
	stale := seed(f.store, requester, day(-1), "11:00", "12:00", model.StatusPending)
	cancelled := seed(f.store, requester, day(-2), "09:00", "10:00", model.StatusCancelled)

	count, err := f.svc.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := map[string]model.Status{
		finished.ID:  model.StatusCompleted,
		future.ID:    model.StatusApproved,
		stale.ID:     model.StatusPending,
		cancelled.ID: model.StatusCancelled,
	}

	for id, status := range expected {
		stored, _ := f.store.booking(id)
		assert.Equal(t, status, stored.Status, id)
	}

	completed, _ := f.store.booking(finished.ID)
	assert.Equal(t, constant.ContextSystem, completed.ModifiedBy)
	f.eventually(t, model.EventCompleted)

	count, err = f.svc.Complete(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := bookingMocks.NewMockPublisher(ctrl)
	st := newStore(requester, other, admin, inactive)
	svc := New(bookingRepo{st}, requirementRepo{st}, partyRepo{st}, st, st, publisher, &config.Config{}, missCache{}, mocks.NewOtel())

	published := make(chan model.Event, 1)

	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, events ...model.Event) error {
			published <- events[0]

			return errors.New("broker unavailable")
		})

	res, err := svc.Create(as(requester), newCreateRequest(day(12), "09:00", "10:00"))
	require.NoError(t, err)

	select {
	case e := <-published:
		assert.Equal(t, model.EventCreated, e.Type)
		assert.Equal(t, res.ID, e.BookingID)
		assert.Equal(t, requester.Username, e.Actor)
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}

	stored, ok := st.booking(res.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, stored.Status)
}
