package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"testing"
	"venue/infras/postgres"
	"venue/internal/domains/booking/model"
	"venue/internal/domains/booking/model/dto"
	userModel "venue/internal/domains/user/model"
	"venue/shared/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApprovedNeverOverlap drives random lifecycle operations from several
// goroutines and checks the stored bookings afterwards.
func TestApprovedNeverOverlap(t *testing.T) {
	f := newFixture()
	dates := []model.Date{day(30), day(31), day(32)}
	users := []userModel.User{requester, other, admin}

	const (
		workers = 4
		steps   = 150
	)

	var wg sync.WaitGroup

	for worker := range workers {
		wg.Add(1)

		go func(rng *rand.Rand) {
			defer wg.Done()

			for range steps {
				err := randomStep(f, rng, dates, users)
				if err != nil {
					assert.Less(t, failure.GetCode(err), http.StatusInternalServerError, err.Error())
				}
			}
		}(rand.New(rand.NewPCG(uint64(worker), 42)))
	}

	wg.Wait()

	bookings := f.store.allBookings()
	require.NotEmpty(t, bookings)

	for i, a := range bookings {
		assert.True(t, a.StartTime < a.EndTime, a.ID)

		if a.Reason != nil {
			assert.Contains(t, []model.Status{model.StatusRejected, model.StatusCancelled}, a.Status, a.ID)
		}

		for _, b := range bookings[i+1:] {
			if a.Status != model.StatusApproved || b.Status != model.StatusApproved || !a.BookingDate.Equal(b.BookingDate) {
				continue
			}

			assert.False(t, model.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
				"approved bookings %s and %s overlap", a.ID, b.ID)
		}
	}
}

func randomStep(f *fixture, rng *rand.Rand, dates []model.Date, users []userModel.User) error {
	user := users[rng.IntN(len(users))]
	ctx := as(user)
	date := dates[rng.IntN(len(dates))]
	startHour := 7 + rng.IntN(10)
	start := fmt.Sprintf("%02d:%02d", startHour, 30*rng.IntN(2))
	end := fmt.Sprintf("%02d:00", startHour+1+rng.IntN(3))

	bookings := f.store.allBookings()
	if len(bookings) == 0 || rng.IntN(4) == 0 {
		_, err := f.svc.Create(ctx, newCreateRequest(date, start, end))

		return err
	}

	target := bookings[rng.IntN(len(bookings))].ID

	switch rng.IntN(5) {
	case 0:
		_, err := f.svc.Update(ctx, newUpdateRequest(date, start, end), target)

		return err
	case 1:
		_, err := f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionApprove)}, target)

		return err
	case 2:
		_, err := f.svc.Decide(as(admin), dto.DecisionRequest{Decision: string(model.DecisionReject), Reason: ptr("busy")}, target)

		return err
	case 3:
		_, err := f.svc.Cancel(ctx, dto.CancelRequest{Reason: ptr("changed")}, target)

		return err
	default:
		return f.svc.Delete(ctx, target)
	}
}

func TestLockDates_DeduplicatesAndReleases(t *testing.T) {
	f := newFixture()
	svc := f.svc.(*serviceImpl)

	done := make(chan struct{})

	err := f.store.WithinTx(context.Background(), func(ctx context.Context) error {
		return svc.lockDates(ctx, day(5), day(3), day(5))
	})
	require.NoError(t, err)

	go func() {
		defer close(done)

		_ = f.store.WithinTx(context.Background(), func(ctx context.Context) error {
			return svc.lockDates(ctx, day(3), day(5))
		})
	}()

	<-done

	assert.ErrorIs(t, svc.lockDates(context.Background(), day(3)), postgres.ErrNoTransaction)
}
