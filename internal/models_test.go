package models_test

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCanTransition(t *testing.T) {
	allowed := map[models.BookingStatus][]models.BookingStatus{
		models.StatusPending:        {models.StatusConfirmed, models.StatusRejected, models.StatusCancelled},
		models.StatusConfirmed:      {models.StatusPaymentPending, models.StatusPaid, models.StatusCancelled},
		models.StatusPaymentPending: {models.StatusPaid, models.StatusCancelled},
		models.StatusPaid:           {models.StatusActive, models.StatusCancelled},
		models.StatusActive:         {models.StatusCompleted, models.StatusCancelled},
		models.StatusCompleted:      {models.StatusRefunded},
		models.StatusCancelled:      {models.StatusRefunded},
	}

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, models.CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	t.Run("self transitions are never allowed", func(t *testing.T) {
		for _, s := range models.AllStatuses() {
			assert.False(t, models.CanTransition(s, s))
		}
	})

	t.Run("unknown statuses", func(t *testing.T) {
		assert.False(t, models.CanTransition("archived", models.StatusPending))
		assert.False(t, models.CanTransition(models.StatusPending, "archived"))
		assert.Empty(t, models.BookingStatus("archived").AllowedTransitions())
	})

	t.Run("rejected and refunded have no exits", func(t *testing.T) {
		assert.Empty(t, models.StatusRejected.AllowedTransitions())
		assert.Empty(t, models.StatusRefunded.AllowedTransitions())
	})
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	next := models.StatusPending.AllowedTransitions()
	next[0] = models.StatusRefunded
	assert.Equal(t, models.StatusConfirmed, models.StatusPending.AllowedTransitions()[0])
}

func TestIsTerminal(t *testing.T) {
	for _, s := range models.AllStatuses() {
		want := s == models.StatusCancelled || s == models.StatusRejected || s == models.StatusRefunded
		assert.Equal(t, want, s.IsTerminal(), string(s))
	}
	assert.ElementsMatch(t, []models.BookingStatus{
		models.StatusCancelled, models.StatusRejected, models.StatusRefunded,
	}, models.TerminalStatuses())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := models.ParseBookingStatus("payment_pending")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentPending, s)

	_, err = models.ParseBookingStatus("PAID")
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestDateRangeOverlaps(t *testing.T) {
	base := models.DateRange{Start: day(2025, 6, 1), End: day(2025, 6, 5)}
	tests := []struct {
		name  string
		other models.DateRange
		want  bool
	}{
		{"contained", models.DateRange{Start: day(2025, 6, 2), End: day(2025, 6, 3)}, true},
		{"straddles start", models.DateRange{Start: day(2025, 5, 30), End: day(2025, 6, 2)}, true},
		{"straddles end", models.DateRange{Start: day(2025, 6, 4), End: day(2025, 6, 9)}, true},
		{"encloses", models.DateRange{Start: day(2025, 5, 1), End: day(2025, 7, 1)}, true},
		{"shares end date", models.DateRange{Start: day(2025, 6, 5), End: day(2025, 6, 8)}, true},
		{"shares start date", models.DateRange{Start: day(2025, 5, 28), End: day(2025, 6, 1)}, true},
		{"day after", models.DateRange{Start: day(2025, 6, 6), End: day(2025, 6, 8)}, false},
		{"before", models.DateRange{Start: day(2025, 5, 1), End: day(2025, 5, 31)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := models.ParseDateRange("2025-06-01", "2025-06-05T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, day(2025, 6, 1), r.Start)
	assert.Equal(t, time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC), r.End)

	_, err = models.ParseDateRange("2025-06-05", "2025-06-01")
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	_, err = models.ParseDateRange("2025-06-05", "2025-06-05")
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	_, err = models.ParseDateRange("06/01/2025", "2025-06-05")
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestTotalDays(t *testing.T) {
	assert.Equal(t, 4, models.TotalDays(day(2025, 6, 1), day(2025, 6, 5)))
	assert.Equal(t, 1, models.TotalDays(day(2025, 6, 1), day(2025, 6, 1).Add(3*time.Hour)))
	assert.Equal(t, 2, models.TotalDays(day(2025, 6, 1), day(2025, 6, 2).Add(time.Millisecond)))
	assert.Equal(t, 1, models.TotalDays(day(2025, 6, 1), day(2025, 6, 1)))
}

func TestComputePricing(t *testing.T) {
	vehicle := models.Vehicle{ID: "v1", DailyRate: 100, SecurityDeposit: 300}

	t.Run("without driver", func(t *testing.T) {
		p := models.ComputePricing(vehicle, 4, false)
		assert.Equal(t, int64(100), p.DailyRate)
		assert.Equal(t, int64(400), p.Subtotal)
		assert.Equal(t, int64(20), p.ServiceFee)
		assert.Equal(t, int64(32), p.Taxes)
		assert.Equal(t, int64(300), p.SecurityDeposit)
		assert.Equal(t, int64(0), p.DriverFee)
		assert.Equal(t, int64(452+300), p.TotalAmount)
	})

	t.Run("with driver", func(t *testing.T) {
		p := models.ComputePricing(vehicle, 4, true)
		assert.Equal(t, int64(8000), p.DriverFee)
		assert.Equal(t, int64(452+300+8000), p.TotalAmount)
	})

	t.Run("rounds half up", func(t *testing.T) {
		p := models.ComputePricing(models.Vehicle{DailyRate: 10}, 1, false)
		// 0.5 and 0.8
		assert.Equal(t, int64(1), p.ServiceFee)
		assert.Equal(t, int64(1), p.Taxes)
	})

	t.Run("components sum to total", func(t *testing.T) {
		for rate := int64(1); rate < 500; rate += 37 {
			for days := 1; days < 12; days++ {
				p := models.ComputePricing(models.Vehicle{DailyRate: rate, SecurityDeposit: rate * 2}, days, days%2 == 0)
				assert.Equal(t, p.Subtotal+p.ServiceFee+p.Taxes+p.SecurityDeposit+p.DriverFee, p.TotalAmount)
			}
		}
	})
}

func TestCancellationFeeBasisPoints(t *testing.T) {
	assert.Equal(t, int64(0), models.CancellationFeeBasisPoints(72))
	assert.Equal(t, int64(2500), models.CancellationFeeBasisPoints(48))
	assert.Equal(t, int64(2500), models.CancellationFeeBasisPoints(30))
	assert.Equal(t, int64(5000), models.CancellationFeeBasisPoints(24))
	assert.Equal(t, int64(5000), models.CancellationFeeBasisPoints(20))
	assert.Equal(t, int64(7500), models.CancellationFeeBasisPoints(12))
	assert.Equal(t, int64(7500), models.CancellationFeeBasisPoints(10))

	t.Run("fee never decreases as start approaches", func(t *testing.T) {
		prev := int64(0)
		for h := 100.0; h > 0; h -= 0.5 {
			bp := models.CancellationFeeBasisPoints(h)
			assert.GreaterOrEqual(t, bp, prev)
			prev = bp
		}
	})
}

func TestQuoteCancellation(t *testing.T) {
	start := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	booking := func(status models.BookingStatus) *models.Booking {
		return &models.Booking{
			ID:        uuid.New(),
			Reference: "PG2506011234",
			StartDate: start,
			EndDate:   start.Add(72 * time.Hour),
			Status:    status,
			Pricing:   models.Pricing{TotalAmount: 1000},
		}
	}

	tests := []struct {
		name       string
		hours      float64
		wantFee    int64
		wantRefund int64
		wantPct    int64
	}{
		{"72h notice", 72, 0, 1000, 0},
		{"30h notice", 30, 250, 750, 25},
		{"20h notice", 20, 500, 500, 50},
		{"10h notice", 10, 750, 250, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := start.Add(-time.Duration(tt.hours * float64(time.Hour)))
			q, err := models.QuoteCancellation(booking(models.StatusConfirmed), now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFee, q.Fee)
			assert.Equal(t, tt.wantRefund, q.Refund)
			assert.Equal(t, tt.wantPct, q.FeePercent)
			assert.Equal(t, q.TotalAmount, q.Fee+q.Refund)
		})
	}

	t.Run("not allowed after start", func(t *testing.T) {
		_, err := models.QuoteCancellation(booking(models.StatusActive), start)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
		_, err = models.QuoteCancellation(booking(models.StatusActive), start.Add(time.Hour))
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})

	t.Run("not allowed from closed statuses", func(t *testing.T) {
		for _, s := range []models.BookingStatus{models.StatusCancelled, models.StatusCompleted, models.StatusRefunded} {
			_, err := models.QuoteCancellation(booking(s), start.Add(-100*time.Hour))
			assert.Equal(t, models.KindConflict, models.KindOf(err), string(s))
		}
	})
}

func TestNewReference(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "PG2506011234", models.NewReference(now, func(int) int { return 234 }))
	assert.Equal(t, "PG2506011000", models.NewReference(now, func(int) int { return 0 }))
	assert.Equal(t, "PG2506019999", models.NewReference(now, func(n int) int { return n - 1 }))

	pattern := regexp.MustCompile(`^PG\d{6}\d{4}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, models.NewReference(now, nil))
	}
}

func TestErrorKinds(t *testing.T) {
	err := models.NewInvalidTransitionError(models.StatusCompleted, models.StatusPending)
	assert.Equal(t, models.KindInvalidTransition, err.Kind)
	assert.Equal(t, models.StatusCompleted, err.Current)
	assert.Equal(t, []models.BookingStatus{models.StatusRefunded}, err.Allowed)

	wrapped := models.NewInternalError("store failure", models.ErrBookingNotFound)
	assert.True(t, errors.Is(wrapped, models.ErrBookingNotFound))
	assert.Equal(t, "store failure: booking not found", wrapped.Error())

	assert.Equal(t, models.KindInternal, models.KindOf(errors.New("boom")))
	assert.Equal(t, models.KindNotFound, models.KindOf(models.NewNotFoundError("missing")))
	assert.Equal(t, models.KindForbidden, models.KindOf(fmt.Errorf("assign: %w", models.NewForbiddenError("not yours"))))
}
