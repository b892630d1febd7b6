package models

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	// rates are in basis points of the subtotal
	ServiceFeeBasisPoints int64 = 500
	TaxBasisPoints        int64 = 800

	DriverDailyFee int64 = 2000

	millisPerDay = int64(24 * time.Hour / time.Millisecond)
)

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps is inclusive: ranges that share an endpoint overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return NewValidationError("start and end dates are required")
	}
	if !r.Start.Before(r.End) {
		return NewValidationError("start date must be before end date")
	}
	return nil
}

// ParseDate accepts a calendar date (UTC midnight) or an RFC 3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("invalid date %q", value))
	}
	return t.UTC(), nil
}

func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// TotalDays is the number of started 24h periods, never less than one.
func TotalDays(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	days := ms / millisPerDay
	if ms%millisPerDay > 0 {
		days++
	}
	if days < 1 {
		return 1
	}
	return int(days)
}

// applyRate rounds half up, which matches rounding for non-negative amounts.
func applyRate(amount, basisPoints int64) int64 {
	return (amount*basisPoints + 5000) / 10000
}

func ComputePricing(vehicle Vehicle, totalDays int, needDriver bool) Pricing {
	days := int64(totalDays)
	p := Pricing{
		DailyRate:       vehicle.DailyRate,
		Subtotal:        vehicle.DailyRate * days,
		SecurityDeposit: vehicle.SecurityDeposit,
	}
	p.ServiceFee = applyRate(p.Subtotal, ServiceFeeBasisPoints)
	p.Taxes = applyRate(p.Subtotal, TaxBasisPoints)
	if needDriver {
		p.DriverFee = DriverDailyFee * days
	}
	p.TotalAmount = p.Subtotal + p.ServiceFee + p.Taxes + p.SecurityDeposit + p.DriverFee
	return p
}

type CancellationQuote struct {
	BookingID       string  `json:"booking_id"`
	Reference       string  `json:"reference"`
	HoursUntilStart float64 `json:"hours_until_start"`
	FeePercent      int64   `json:"fee_percent"`
	Fee             int64   `json:"fee"`
	Refund          int64   `json:"refund"`
	TotalAmount     int64   `json:"total_amount"`
}

// CancellationFeeBasisPoints maps the notice given before start to the fee rate.
func CancellationFeeBasisPoints(hoursUntilStart float64) int64 {
	switch {
	case hoursUntilStart > 48:
		return 0
	case hoursUntilStart > 24:
		return 2500
	case hoursUntilStart > 12:
		return 5000
	default:
		return 7500
	}
}

func QuoteCancellation(b *Booking, now time.Time) (CancellationQuote, error) {
	switch b.Status {
	case StatusCancelled, StatusCompleted, StatusRefunded:
		return CancellationQuote{}, NewConflictError(fmt.Sprintf("booking in status %s cannot be cancelled", b.Status))
	}
	if !now.Before(b.StartDate) {
		return CancellationQuote{}, NewConflictError("booking has already started")
	}

	hours := b.StartDate.Sub(now).Hours()
	bp := CancellationFeeBasisPoints(hours)
	total := b.Pricing.TotalAmount
	fee := applyRate(total, bp)
	refund := total - fee
	if refund < 0 {
		refund = 0
	}
	return CancellationQuote{
		BookingID:       b.ID.String(),
		Reference:       b.Reference,
		HoursUntilStart: hours,
		FeePercent:      bp / 100,
		Fee:             fee,
		Refund:          refund,
		TotalAmount:     total,
	}, nil
}

// NewReference builds PG<YYMMDD><4 digits>; intn is rand.IntN unless a test supplies one.
func NewReference(now time.Time, intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return fmt.Sprintf("PG%s%04d", now.UTC().Format("060102"), 1000+intn(9000))
}
