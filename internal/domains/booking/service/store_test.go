package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"
	"venue/infras/postgres"
	"venue/internal/domains/booking/model"
	userModel "venue/internal/domains/user/model"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"
)

// store is an in-memory stand-in for the postgres repositories. It keeps
// insertion order, evaluates filter groups over column values and undoes the
// writes of a failed transaction.
type store struct {
	mu           sync.Mutex
	bookings     []model.Booking
	requirements []model.Requirement
	parties      []model.ResponsibleParty
	users        map[string]userModel.User

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// failInsertRequirements makes InsertBulk fail, to exercise rollback.
	failInsertRequirements bool
}

func newStore(users ...userModel.User) *store {
	s := &store{
		users: map[string]userModel.User{},
		locks: map[string]*sync.Mutex{},
	}

	for _, user := range users {
		s.users[user.Username] = user
	}

	return s
}

type fakeTx struct {
	undo []func()
	held []*sync.Mutex
}

type fakeTxKey struct{}

func txOf(ctx context.Context) (*fakeTx, bool) {
	tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx)

	return tx, ok
}

func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txOf(ctx); ok {
		return fn(ctx)
	}

	tx := &fakeTx{}

	defer func() {
		for i := len(tx.held) - 1; i >= 0; i-- {
			tx.held[i].Unlock()
		}
	}()

	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}

	return err
}

// journal records how to revert a write. Caller holds s.mu.
func (s *store) journal(ctx context.Context, undo func()) {
	if tx, ok := txOf(ctx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (s *store) lockDate(ctx context.Context, date model.Date) error {
	tx, ok := txOf(ctx)
	if !ok {
		return postgres.ErrNoTransaction
	}

	s.locksMu.Lock()
	lock, exist := s.locks[date.String()]
	if !exist {
		lock = &sync.Mutex{}
		s.locks[date.String()] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	tx.held = append(tx.held, lock)

	return nil
}

func (s *store) Resolve(_ context.Context, username string) (userModel.User, error) {
	user, ok := s.users[username]
	if !ok || !user.Active {
		return userModel.User{}, failure.NotFound("user not found")
	}

	return user, nil
}

// put seeds a booking directly, bypassing the lifecycle.
func (s *store) put(booking model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookings = append(s.bookings, booking)
}

func (s *store) booking(id string) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.ID == id {
			return b, true
		}
	}

	return model.Booking{}, false
}

func (s *store) requirementsOf(bookingID string) []model.Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []model.Requirement

	for _, r := range s.requirements {
		if r.BookingID == bookingID {
			res = append(res, r)
		}
	}

	return res
}

func (s *store) allBookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.bookings)
}

func bookingColumn(b model.Booking, field string) any {
	switch field {
	case model.FieldID:
		return b.ID
	case model.FieldStatus:
		return b.Status
	case model.FieldBookingDate:
		return b.BookingDate.String()
	case model.FieldStartTime:
		return b.StartTime.String()
	case model.FieldEndTime:
		return b.EndTime.String()
	case model.FieldRequesterID:
		return b.RequesterID
	case model.FieldResponsiblePartyID:
		return b.ResponsiblePartyID
	case model.FieldTitle:
		return b.Title
	default:
		panic("unsupported booking column " + field)
	}
}

func requirementColumn(r model.Requirement, field string) any {
	switch field {
	case model.FieldID:
		return r.ID
	case model.FieldRequirementBookingID:
		return r.BookingID
	default:
		panic("unsupported requirement column " + field)
	}
}

func partyColumn(p model.ResponsibleParty, field string) any {
	if field != model.FieldID {
		panic("unsupported responsible party column " + field)
	}

	return p.ID
}

func text(v any) string {
	return fmt.Sprint(v)
}

func matchFilter(column func(string) any, f gDto.Filter) bool {
	got := text(column(f.Field))

	switch f.Operator {
	case gDto.FilterOperatorEq:
		return got == text(f.Value)
	case gDto.FilterOperatorNotEq:
		return got != text(f.Value)
	case gDto.FilterOperatorGreaterEq:
		return got >= text(f.Value)
	case gDto.FilterOperatorLessEq:
		return got <= text(f.Value)
	case gDto.FilterOperatorIn:
		values := reflect.ValueOf(f.Value)
		for i := range values.Len() {
			if got == text(values.Index(i).Interface()) {
				return true
			}
		}

		return false
	default:
		panic("unsupported filter operator " + f.Operator)
	}
}

func matchGroup(column func(string) any, group gDto.FilterGroup) bool {
	if len(group.Filters) == 0 {
		return true
	}

	or := group.Operator == gDto.FilterGroupOperatorOr

	for _, item := range group.Filters {
		var ok bool

		switch f := item.(type) {
		case gDto.Filter:
			ok = matchFilter(column, f)
		case gDto.FilterGroup:
			ok = matchGroup(column, f)
		}

		if or && ok {
			return true
		}

		if !or && !ok {
			return false
		}
	}

	return !or
}

func replaceByID[T any](rows []T, row T, id func(T) string) {
	for i := range rows {
		if id(rows[i]) == id(row) {
			rows[i] = row

			return
		}
	}
}

func page[T any](rows []T, params gDto.QueryParams) []T {
	if params.Limit <= 0 {
		return rows
	}

	offset := 0
	if params.Page > 0 {
		offset = (params.Page - 1) * params.Limit
	}

	if offset >= len(rows) {
		return []T{}
	}

	return rows[offset:min(offset+params.Limit, len(rows))]
}

// bookingRepo implements repository.Booking.
type bookingRepo struct{ *store }

func (r bookingRepo) Insert(ctx context.Context, booking model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings = append(r.bookings, booking)
	r.journal(ctx, func() {
		r.bookings = slices.DeleteFunc(r.bookings, func(b model.Booking) bool { return b.ID == booking.ID })
	})

	return nil
}

func (r bookingRepo) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if matchGroup(func(field string) any { return bookingColumn(b, field) }, filter) {
			return b, nil
		}
	}

	return model.Booking{}, nil
}

func (r bookingRepo) GetAll(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := []model.Booking{}

	for _, b := range r.bookings {
		if matchGroup(func(field string) any { return bookingColumn(b, field) }, filter) {
			res = append(res, b)
		}
	}

	return page(res, params), nil
}

func (r bookingRepo) Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error) {
	count, err := r.Count(ctx, filter)

	return count > 0, err
}

func (r bookingRepo) Count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	res, err := r.GetAll(ctx, gDto.QueryParams{}, filter)

	return len(res), err
}

func (r bookingRepo) Update(ctx context.Context, fields map[string]any, filter gDto.FilterGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, b := range r.bookings {
		if !matchGroup(func(field string) any { return bookingColumn(b, field) }, filter) {
			continue
		}

		previous := b
		r.journal(ctx, func() { replaceByID(r.bookings, previous, func(b model.Booking) string { return b.ID }) })

		for field, value := range fields {
			applyBookingField(&b, field, value)
		}

		r.bookings[i] = b
	}

	return nil
}

func applyBookingField(b *model.Booking, field string, value any) {
	switch field {
	case model.FieldTitle:
		b.Title = value.(string)
	case model.FieldDescription:
		b.Description = value.(*string)
	case model.FieldAttendees:
		b.Attendees = value.(int)
	case model.FieldExternalAudience:
		b.ExternalAudience = value.(bool)
	case model.FieldPreRegistration:
		b.PreRegistration = value.(bool)
	case model.FieldLayout:
		b.Layout = value.(string)
	case model.FieldBookingDate:
		b.BookingDate = value.(model.Date)
	case model.FieldStartTime:
		b.StartTime = value.(model.Clock)
	case model.FieldEndTime:
		b.EndTime = value.(model.Clock)
	case model.FieldStatus:
		b.Status = value.(model.Status)
	case model.FieldReason:
		b.Reason = value.(*string)
	case constant.FieldModifiedAt:
		b.ModifiedAt = value.(time.Time)
	case constant.FieldModifiedBy:
		b.ModifiedBy = value.(string)
	default:
		panic("unsupported booking update column " + field)
	}
}

func (r bookingRepo) Delete(ctx context.Context, filter gDto.FilterGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []model.Booking

	r.bookings = slices.DeleteFunc(r.bookings, func(b model.Booking) bool {
		if matchGroup(func(field string) any { return bookingColumn(b, field) }, filter) {
			deleted = append(deleted, b)

			return true
		}

		return false
	})
	r.journal(ctx, func() { r.bookings = append(r.bookings, deleted...) })

	return nil
}

func (r bookingRepo) HasApprovedConflict(_ context.Context, date model.Date, start, end model.Clock) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.Status == model.StatusApproved && b.BookingDate.Equal(date) && b.OverlapsWith(start, end) {
			return true, nil
		}
	}

	return false, nil
}

func (r bookingRepo) LockDate(ctx context.Context, date model.Date) error {
	return r.lockDate(ctx, date)
}

// requirementRepo implements repository.Requirement.
type requirementRepo struct{ *store }

func (r requirementRepo) InsertBulk(ctx context.Context, requirements []model.Requirement) error {
	if r.failInsertRequirements {
		return errors.New("insert requirements: connection reset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.requirements = append(r.requirements, requirements...)
	r.journal(ctx, func() {
		r.requirements = slices.DeleteFunc(r.requirements, func(item model.Requirement) bool {
			return slices.ContainsFunc(requirements, func(inserted model.Requirement) bool { return inserted.ID == item.ID })
		})
	})

	return nil
}

func (r requirementRepo) GetAll(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Requirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := []model.Requirement{}

	for _, item := range r.requirements {
		if matchGroup(func(field string) any { return requirementColumn(item, field) }, filter) {
			res = append(res, item)
		}
	}

	return res, nil
}

func (r requirementRepo) Delete(ctx context.Context, filter gDto.FilterGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []model.Requirement

	r.requirements = slices.DeleteFunc(r.requirements, func(item model.Requirement) bool {
		if matchGroup(func(field string) any { return requirementColumn(item, field) }, filter) {
			deleted = append(deleted, item)

			return true
		}

		return false
	})
	r.journal(ctx, func() { r.requirements = append(r.requirements, deleted...) })

	return nil
}

// partyRepo implements repository.ResponsibleParty.
type partyRepo struct{ *store }

func (r partyRepo) Insert(ctx context.Context, party model.ResponsibleParty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parties = append(r.parties, party)
	r.journal(ctx, func() {
		r.parties = slices.DeleteFunc(r.parties, func(p model.ResponsibleParty) bool { return p.ID == party.ID })
	})

	return nil
}

func (r partyRepo) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (model.ResponsibleParty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.parties {
		if matchGroup(func(field string) any { return partyColumn(p, field) }, filter) {
			return p, nil
		}
	}

	return model.ResponsibleParty{}, nil
}

func (r partyRepo) Update(ctx context.Context, fields map[string]any, filter gDto.FilterGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.parties {
		if !matchGroup(func(field string) any { return partyColumn(p, field) }, filter) {
			continue
		}

		previous := p
		r.journal(ctx, func() { replaceByID(r.parties, previous, func(p model.ResponsibleParty) string { return p.ID }) })

		for field, value := range fields {
			switch field {
			case model.FieldResponsiblePartyName:
				p.Name = value.(string)
			case model.FieldResponsiblePartyEmail:
				p.Email = value.(string)
			case model.FieldResponsiblePartyPhone:
				p.Phone = value.(string)
			case constant.FieldModifiedAt:
				p.ModifiedAt = value.(time.Time)
			case constant.FieldModifiedBy:
				p.ModifiedBy = value.(string)
			}
		}

		r.parties[i] = p
	}

	return nil
}

// missCache never holds anything.
type missCache struct{}

func (missCache) Save(context.Context, string, any, int) error { return nil }

func (missCache) Get(context.Context, string, any) error { return errors.New("cache miss") }

func (missCache) Delete(context.Context, string) error { return nil }

func (missCache) Clear(context.Context, string) error { return nil }

func (missCache) Increment(context.Context, string, int) (int64, error) { return 1, nil }

// recordingCache misses like missCache and remembers what was dropped.
type recordingCache struct {
	missCache

	mu      sync.Mutex
	deleted []string
	cleared []string
}

func (c *recordingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleted = append(c.deleted, key)

	return nil
}

func (c *recordingCache) Clear(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleared = append(c.cleared, pattern)

	return nil
}

func (c *recordingCache) snapshot() (deleted, cleared []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.deleted), slices.Clone(c.cleared)
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) Publish(_ context.Context, events ...model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, events...)

	return nil
}

func (r *recorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		res = append(res, e.Type)
	}

	return res
}
