package service

import (
	"context"
	"fmt"
	"strings"

	models "github.com/chrisdamba/rentalbooking/internal"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	MaxExportRows    = 10000

	// MaxPage keeps (page-1)*limit far from overflowing the OFFSET.
	MaxPage = 100000
)

var sortFields = map[string]bool{
	"created_at":   true,
	"start_date":   true,
	"end_date":     true,
	"total_amount": true,
	"status":       true,
	"reference":    true,
}

func normalizeFilter(f models.BookingFilter) (models.BookingFilter, error) {
	if f.Sort == "" {
		f.Sort = "created_at"
	}
	if !sortFields[f.Sort] {
		return f, models.NewValidationError(fmt.Sprintf("cannot sort by %q", f.Sort))
	}

	f.Order = strings.ToLower(f.Order)
	if f.Order == "" {
		f.Order = "desc"
	}
	if f.Order != "asc" && f.Order != "desc" {
		return f, models.NewValidationError("order must be asc or desc")
	}

	switch {
	case f.Page == 0:
		f.Page = 1
	case f.Page < 0:
		return f, models.NewValidationError("page must be at least 1")
	case f.Page > MaxPage:
		return f, models.NewValidationError(fmt.Sprintf("page must be at most %d", MaxPage))
	}
	switch {
	case f.Limit == 0:
		f.Limit = DefaultPageLimit
	case f.Limit < 1 || f.Limit > MaxPageLimit:
		return f, models.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}

	if f.Status != nil && !f.Status.IsValid() {
		return f, models.NewValidationError(fmt.Sprintf("unknown booking status %q", *f.Status))
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, models.NewValidationError("from must not be after to")
	}

	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

func (s *bookingService) ListBookings(ctx context.Context, filter models.BookingFilter) (*models.BookingPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	if err := s.resolveSearch(ctx, &filter); err != nil {
		return nil, err
	}

	bookings, total, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, s.internal("list bookings", err)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &models.BookingPage{
		Bookings: bookings,
		Pagination: models.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
			TotalCount: total,
			HasNext:    filter.Page < totalPages,
			HasPrev:    filter.Page > 1,
		},
	}, nil
}

// ExportBookings returns the filtered list without pagination, capped at MaxExportRows.
func (s *bookingService) ExportBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	filter.Page, filter.Limit = 0, 0
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = 1, MaxExportRows

	if err := s.resolveSearch(ctx, &filter); err != nil {
		return nil, err
	}

	bookings, total, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, s.internal("export bookings", err)
	}
	if total > MaxExportRows {
		s.logger.Warn("booking export truncated", zap.Int64("total", total), zap.Int("rows", len(bookings)))
	}
	return bookings, nil
}

func (s *bookingService) resolveSearch(ctx context.Context, filter *models.BookingFilter) error {
	if filter.Search == "" {
		return nil
	}
	ids, err := s.clients.SearchClientIDs(ctx, filter.Search)
	if err != nil {
		return s.internal("search clients", err)
	}
	filter.SearchClientIDs = ids
	return nil
}

func (s *bookingService) Stats(ctx context.Context) (*models.BookingStats, error) {
	cached, generation, cacheErr := s.stats.GetStats(ctx)
	if cacheErr != nil {
		s.logger.Warn("read cached booking stats failed", zap.Error(cacheErr))
	}
	if cached != nil {
		return cached, nil
	}

	rows, err := s.repo.AggregateByStatus(ctx)
	if err != nil {
		return nil, s.internal("aggregate bookings", err)
	}

	byStatus := make(map[models.BookingStatus]models.StatusStat, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r
	}

	stats := &models.BookingStats{GeneratedAt: s.now().UTC()}
	for _, status := range models.AllStatuses() {
		row := byStatus[status]
		row.Status = status
		stats.ByStatus = append(stats.ByStatus, row)
		stats.TotalBookings += row.Count
		if status.CountsAsRevenue() {
			stats.TotalRevenue += row.Revenue
		}
	}

	// without a generation the entry could outlive a write
	if cacheErr != nil {
		return stats, nil
	}
	if err := s.stats.SetStats(ctx, generation, stats); err != nil {
		s.logger.Warn("cache booking stats failed", zap.Error(err))
	}
	return stats, nil
}
