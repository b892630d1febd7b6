package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingColumnNames = []string{
	"id", "reference", "client_id", "vehicle_id", "owner_id", "driver_required", "driver_id",
	"start_date", "end_date", "start_time", "end_time", "pickup_location", "dropoff_location",
	"total_days", "daily_rate", "subtotal", "service_fee", "taxes", "security_deposit", "driver_fee", "total_amount",
	"status", "payment", "approval", "cancellation", "messages", "review", "special_requests", "created_at", "updated_at",
}

func TestInsertBooking(t *testing.T) {
	t.Run("inserts all columns", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		b := newBooking()
		mockDb.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings (id, reference,")).
			WithArgs(
				b.ID, b.Reference, b.ClientID, b.VehicleID, b.OwnerID, false, b.Driver.DriverID,
				b.StartDate, b.EndDate, "", "", pgxmock.AnyArg(), pgxmock.AnyArg(),
				4, int64(100), int64(400), int64(20), int64(32), int64(300), int64(0), int64(752),
				models.StatusPending, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				"", b.CreatedAt, b.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.InsertBooking(context.Background(), b)
		require.NoError(t, err)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})

	t.Run("exclusion violation maps to overlap", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
			WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_vehicle_no_overlap"})

		err := repo.InsertBooking(context.Background(), newBooking())
		assert.True(t, errors.Is(err, models.ErrOverlap))
		assert.Contains(t, err.Error(), "bookings_vehicle_no_overlap")
	})

	t.Run("reference collision maps to duplicate", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_reference_key"})

		err := repo.InsertBooking(context.Background(), newBooking())
		assert.Equal(t, models.ErrDuplicateReference, err)
	})

	t.Run("other unique violations pass through", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_pkey"})

		err := repo.InsertBooking(context.Background(), newBooking())
		require.Error(t, err)
		assert.False(t, errors.Is(err, models.ErrDuplicateReference))
	})
}

func TestGetBookingByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		b := newBooking()
		b.Messages = []models.Message{{SenderRole: models.RoleClient, SenderID: "c1", Text: "hi", SentAt: b.CreatedAt}}
		mockDb.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
			WithArgs(b.ID).
			WillReturnRows(createMockRows(t, b))

		got, err := repo.GetBookingByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.Reference, got.Reference)
		assert.Equal(t, b.PickupLocation, got.PickupLocation)
		assert.Equal(t, b.Pricing, got.Pricing)
		assert.Equal(t, models.PaymentPending, got.Payment.Status)
		assert.Nil(t, got.Approval)
		assert.Nil(t, got.Cancellation)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "hi", got.Messages[0].Text)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		id := uuid.New()
		mockDb.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(bookingColumnNames))

		got, err := repo.GetBookingByID(context.Background(), id)
		assert.Nil(t, got)
		assert.Equal(t, models.ErrBookingNotFound, err)
	})
}

func TestGetBookingByReference(t *testing.T) {
	mockDb, repo := setupMockDB(t)
	defer mockDb.Close()

	b := newBooking()
	mockDb.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE reference = $1")).
		WithArgs(b.Reference).
		WillReturnRows(createMockRows(t, b))

	got, err := repo.GetBookingByReference(context.Background(), b.Reference)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestFindOverlapping(t *testing.T) {
	terminal := []string{"cancelled", "rejected", "refunded"}
	r := models.DateRange{Start: day(6, 1), End: day(6, 5)}

	t.Run("vehicle", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		existing := newBooking()
		mockDb.ExpectQuery(regexp.QuoteMeta("WHERE vehicle_id = $1 AND status <> ALL($2) AND start_date <= $3 AND end_date >= $4 ORDER BY start_date")).
			WithArgs("v1", terminal, r.End, r.Start).
			WillReturnRows(createMockRows(t, existing))

		got, err := repo.FindOverlapping(context.Background(), models.OverlapQuery{
			Resource: models.OverlapVehicle, ID: "v1", Range: r,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, existing.Reference, got[0].Reference)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})

	t.Run("driver excluding booking", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		exclude := uuid.New()
		mockDb.ExpectQuery(regexp.QuoteMeta("WHERE driver_id = $1 AND status <> ALL($2) AND start_date <= $3 AND end_date >= $4 AND id <> $5")).
			WithArgs("d1", terminal, r.End, r.Start, exclude).
			WillReturnRows(pgxmock.NewRows(bookingColumnNames))

		got, err := repo.FindOverlapping(context.Background(), models.OverlapQuery{
			Resource: models.OverlapDriver, ID: "d1", Range: r, ExcludeID: &exclude,
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})
}

func TestUpdateStatus(t *testing.T) {
	query := formatQueryForRegex(`
        UPDATE bookings
        SET status = $3, payment = $4, approval = $5, cancellation = $6, updated_at = $7
        WHERE id = $1 AND status = $2
    `)

	t.Run("compare and set succeeds", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		b := newBooking()
		b.Status = models.StatusConfirmed
		mockDb.ExpectExec(query).
			WithArgs(b.ID, models.StatusPending, models.StatusConfirmed, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), b.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), b, models.StatusPending))
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})

	t.Run("lost race", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		b := newBooking()
		b.Status = models.StatusConfirmed
		mockDb.ExpectExec(query).
			WithArgs(b.ID, models.StatusPending, models.StatusConfirmed, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), b.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(context.Background(), b, models.StatusPending)
		assert.Equal(t, models.ErrStaleStatus, err)
	})
}

func TestSetDriver(t *testing.T) {
	t.Run("assign", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		b := newBooking()
		driverID := "d1"
		b.Driver = models.DriverAssignment{Required: true, DriverID: &driverID}
		mockDb.ExpectQuery(regexp.QuoteMeta("UPDATE bookings SET driver_id = $2, updated_at = now() WHERE id = $1 RETURNING")).
			WithArgs(b.ID, &driverID).
			WillReturnRows(createMockRows(t, b))

		got, err := repo.SetDriver(context.Background(), b.ID, &driverID)
		require.NoError(t, err)
		require.NotNil(t, got.Driver.DriverID)
		assert.Equal(t, "d1", *got.Driver.DriverID)
	})

	t.Run("driver already booked", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		id := uuid.New()
		driverID := "d1"
		mockDb.ExpectQuery(regexp.QuoteMeta("UPDATE bookings SET driver_id")).
			WithArgs(id, &driverID).
			WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_driver_no_overlap"})

		_, err := repo.SetDriver(context.Background(), id, &driverID)
		assert.True(t, errors.Is(err, models.ErrOverlap))
	})
}

func TestAppendMessage(t *testing.T) {
	mockDb, repo := setupMockDB(t)
	defer mockDb.Close()

	b := newBooking()
	msg := models.Message{SenderRole: models.RoleOwner, SenderID: "o1", Text: "keys at reception", SentAt: b.CreatedAt}
	payload, err := json.Marshal([]models.Message{msg})
	require.NoError(t, err)

	b.Messages = []models.Message{msg}
	mockDb.ExpectQuery(regexp.QuoteMeta("SET messages = messages || $2::jsonb")).
		WithArgs(b.ID, payload).
		WillReturnRows(createMockRows(t, b))

	got, err := repo.AppendMessage(context.Background(), b.ID, msg)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, models.RoleOwner, got.Messages[0].SenderRole)
}

func TestMarkMessagesRead(t *testing.T) {
	mockDb, repo := setupMockDB(t)
	defer mockDb.Close()

	b := newBooking()
	mockDb.ExpectQuery(regexp.QuoteMeta("FROM jsonb_array_elements(bookings.messages) WITH ORDINALITY")).
		WithArgs(b.ID, "client").
		WillReturnRows(createMockRows(t, b))

	_, err := repo.MarkMessagesRead(context.Background(), b.ID, models.RoleClient)
	require.NoError(t, err)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestSetReview(t *testing.T) {
	review := models.Review{Rating: 5, Comment: "smooth", Date: day(6, 6)}
	payload, _ := json.Marshal(review)
	query := regexp.QuoteMeta("WHERE id = $1 AND status = 'completed' AND NOT (review ? $2::text)")

	t.Run("sets side", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		b := newBooking()
		b.Status = models.StatusCompleted
		b.Review.Client = &review
		mockDb.ExpectQuery(query).
			WithArgs(b.ID, "client", payload).
			WillReturnRows(createMockRows(t, b))

		got, err := repo.SetReview(context.Background(), b.ID, models.ReviewSideClient, review)
		require.NoError(t, err)
		require.NotNil(t, got.Review.Client)
		assert.Equal(t, 5, got.Review.Client.Rating)
		assert.Nil(t, got.Review.Owner)
	})

	t.Run("side already set", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		id := uuid.New()
		mockDb.ExpectQuery(query).
			WithArgs(id, "owner", payload).
			WillReturnRows(pgxmock.NewRows(bookingColumnNames))

		_, err := repo.SetReview(context.Background(), id, models.ReviewSideOwner, review)
		assert.Equal(t, models.ErrReviewExists, err)
	})
}

func TestListBookings(t *testing.T) {
	t.Run("filters, sorts and paginates", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		status := models.StatusConfirmed
		from := day(6, 1)
		filter := models.BookingFilter{
			Status:          &status,
			OwnerID:         "o1",
			From:            &from,
			Search:          "pg25_",
			SearchClientIDs: []string{"c1", "c2"},
			Sort:            "total_amount",
			Order:           "asc",
			Page:            2,
			Limit:           10,
		}
		where := " WHERE status = $1 AND owner_id = $2 AND start_date >= $3 AND (reference ILIKE $4 OR client_id = ANY($5))"

		mockDb.ExpectQuery(formatQueryForRegex("SELECT COUNT(*) FROM bookings" + where)).
			WithArgs("confirmed", "o1", from, `%pg25\_%`, []string{"c1", "c2"}).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
		mockDb.ExpectQuery(regexp.QuoteMeta(where + " ORDER BY total_amount ASC, id ASC LIMIT $6 OFFSET $7")).
			WithArgs("confirmed", "o1", from, `%pg25\_%`, []string{"c1", "c2"}, 10, 10).
			WillReturnRows(createMockRows(t, newBooking()))

		bookings, total, err := repo.ListBookings(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(11), total)
		assert.Len(t, bookings, 1)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})

	t.Run("unknown sort falls back to created_at desc", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectQuery(formatQueryForRegex("SELECT COUNT(*) FROM bookings")).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mockDb.ExpectQuery(regexp.QuoteMeta("FROM bookings ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")).
			WithArgs(10, 0).
			WillReturnRows(pgxmock.NewRows(bookingColumnNames))

		bookings, total, err := repo.ListBookings(context.Background(), models.BookingFilter{
			Sort: "client_id; DROP TABLE bookings", Page: 1, Limit: 10,
		})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, bookings)
	})

	t.Run("search without client matches", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectQuery(formatQueryForRegex("SELECT COUNT(*) FROM bookings WHERE reference ILIKE $1")).
			WithArgs("%PG2506%").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mockDb.ExpectQuery(regexp.QuoteMeta("WHERE reference ILIKE $1 ORDER BY")).
			WithArgs("%PG2506%", 10, 0).
			WillReturnRows(pgxmock.NewRows(bookingColumnNames))

		_, _, err := repo.ListBookings(context.Background(), models.BookingFilter{Search: "PG2506", Page: 1, Limit: 10})
		require.NoError(t, err)
	})

	t.Run("count failure", func(t *testing.T) {
		mockDb, repo := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).WillReturnError(errors.New("connection reset"))

		_, _, err := repo.ListBookings(context.Background(), models.BookingFilter{Page: 1, Limit: 10})
		assert.EqualError(t, err, "connection reset")
	})
}

func TestAggregateByStatus(t *testing.T) {
	mockDb, repo := setupMockDB(t)
	defer mockDb.Close()

	mockDb.ExpectQuery(formatQueryForRegex(`
        SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
        FROM bookings
        GROUP BY status
        ORDER BY status
    `)).WillReturnRows(pgxmock.NewRows([]string{"status", "count", "sum"}).
		AddRow(models.StatusCompleted, int64(3), int64(1500)).
		AddRow(models.StatusPending, int64(2), int64(900)))

	stats, err := repo.AggregateByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.StatusStat{Status: models.StatusCompleted, Count: 3, Revenue: 1500}, stats[0])
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	t.Run("applies new migrations", func(t *testing.T) {
		mockDb, _ := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mockDb.ExpectBegin()
		mockDb.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
			WithArgs("migrations/0001_bookings.sql").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockDb.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS btree_gist")).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mockDb.ExpectCommit()

		applied, err := repository.Migrate(context.Background(), mockDb)
		require.NoError(t, err)
		assert.Equal(t, []string{"migrations/0001_bookings.sql"}, applied)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})

	t.Run("skips applied migrations", func(t *testing.T) {
		mockDb, _ := setupMockDB(t)
		defer mockDb.Close()

		mockDb.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mockDb.ExpectBegin()
		mockDb.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
			WithArgs("migrations/0001_bookings.sql").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mockDb.ExpectRollback()

		applied, err := repository.Migrate(context.Background(), mockDb)
		require.NoError(t, err)
		assert.Empty(t, applied)
		assert.NoError(t, mockDb.ExpectationsWereMet())
	})
}

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *repository.BookingRepository) {
	mockDb, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mockDb, repository.NewBookingRepository(mockDb)
}

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func newBooking() *models.Booking {
	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	return &models.Booking{
		ID:              uuid.New(),
		Reference:       "PG2505201234",
		ClientID:        "c1",
		VehicleID:       "v1",
		OwnerID:         "o1",
		StartDate:       day(6, 1),
		EndDate:         day(6, 5),
		PickupLocation:  models.Location{Address: "1 Main St", City: "Nairobi"},
		DropoffLocation: models.Location{Address: "2 Side St", City: "Nairobi"},
		TotalDays:       4,
		Pricing: models.Pricing{
			DailyRate: 100, Subtotal: 400, ServiceFee: 20, Taxes: 32, SecurityDeposit: 300, TotalAmount: 752,
		},
		Status:    models.StatusPending,
		Payment:   models.Payment{Method: models.PaymentCash, Status: models.PaymentPending},
		Messages:  []models.Message{},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func createMockRows(t *testing.T, bookings ...*models.Booking) *pgxmock.Rows {
	rows := pgxmock.NewRows(bookingColumnNames)
	for _, b := range bookings {
		approval := []byte("null")
		if b.Approval != nil {
			approval = mustJSON(t, b.Approval)
		}
		cancellation := []byte("null")
		if b.Cancellation != nil {
			cancellation = mustJSON(t, b.Cancellation)
		}
		rows.AddRow(
			b.ID, b.Reference, b.ClientID, b.VehicleID, b.OwnerID, b.Driver.Required, b.Driver.DriverID,
			b.StartDate, b.EndDate, b.StartTime, b.EndTime, mustJSON(t, b.PickupLocation), mustJSON(t, b.DropoffLocation),
			b.TotalDays, b.Pricing.DailyRate, b.Pricing.Subtotal, b.Pricing.ServiceFee, b.Pricing.Taxes,
			b.Pricing.SecurityDeposit, b.Pricing.DriverFee, b.Pricing.TotalAmount,
			b.Status, mustJSON(t, b.Payment), approval, cancellation, mustJSON(t, b.Messages), mustJSON(t, b.Review),
			b.SpecialRequests, b.CreatedAt, b.UpdatedAt,
		)
	}
	return rows
}

func formatQueryForRegex(query string) string {
	// remove extra whitespace and newlines
	query = strings.Join(strings.Fields(query), " ")
	// escape special regex characters
	query = regexp.QuoteMeta(query)
	return fmt.Sprintf("^%s$", query)
}
