package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	referenceConstraint = "bookings_reference_key"
)

type DBConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type BookingRepository struct {
	db DBConn
}

func NewBookingRepository(db DBConn) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, reference, client_id, vehicle_id, owner_id, driver_required, driver_id,
            start_date, end_date, start_time, end_time, pickup_location, dropoff_location,
            total_days, daily_rate, subtotal, service_fee, taxes, security_deposit, driver_fee, total_amount,
            status, payment, approval, cancellation, messages, review, special_requests, created_at, updated_at`

var sortColumns = map[string]string{
	"created_at":   "created_at",
	"start_date":   "start_date",
	"end_date":     "end_date",
	"total_amount": "total_amount",
	"status":       "status",
	"reference":    "reference",
}

func (r *BookingRepository) InsertBooking(ctx context.Context, b *models.Booking) error {
	pickup, err := json.Marshal(b.PickupLocation)
	if err != nil {
		return err
	}
	dropoff, err := json.Marshal(b.DropoffLocation)
	if err != nil {
		return err
	}
	payment, approval, cancellation, err := encodeLifecycle(b)
	if err != nil {
		return err
	}
	messages, err := json.Marshal(orEmpty(b.Messages))
	if err != nil {
		return err
	}
	review, err := json.Marshal(b.Review)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO bookings (` + bookingColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
                $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)
    `
	_, err = r.db.Exec(ctx, query,
		b.ID, b.Reference, b.ClientID, b.VehicleID, b.OwnerID, b.Driver.Required, b.Driver.DriverID,
		b.StartDate, b.EndDate, b.StartTime, b.EndTime, pickup, dropoff,
		b.TotalDays, b.Pricing.DailyRate, b.Pricing.Subtotal, b.Pricing.ServiceFee, b.Pricing.Taxes,
		b.Pricing.SecurityDeposit, b.Pricing.DriverFee, b.Pricing.TotalAmount,
		b.Status, payment, approval, cancellation, messages, review, b.SpecialRequests, b.CreatedAt, b.UpdatedAt,
	)
	return translateError(err)
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *BookingRepository) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	return scanOne(r.db.QueryRow(ctx, query, reference))
}

// FindOverlapping is the single overlap query behind creation, driver assignment and availability.
func (r *BookingRepository) FindOverlapping(ctx context.Context, q models.OverlapQuery) ([]models.Booking, error) {
	column := "vehicle_id"
	if q.Resource == models.OverlapDriver {
		column = "driver_id"
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE ` + column + ` = $1 AND status <> ALL($2) AND start_date <= $3 AND end_date >= $4`
	args := []interface{}{q.ID, statusStrings(models.TerminalStatuses()), q.Range.End, q.Range.Start}
	if q.ExcludeID != nil {
		query += ` AND id <> $5`
		args = append(args, *q.ExcludeID)
	}
	query += ` ORDER BY start_date`

	return r.queryBookings(ctx, query, args...)
}

// UpdateStatus writes the lifecycle fields only if the stored status is still from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, b *models.Booking, from models.BookingStatus) error {
	payment, approval, cancellation, err := encodeLifecycle(b)
	if err != nil {
		return err
	}

	query := `
        UPDATE bookings
        SET status = $3, payment = $4, approval = $5, cancellation = $6, updated_at = $7
        WHERE id = $1 AND status = $2
    `
	tag, err := r.db.Exec(ctx, query, b.ID, from, b.Status, payment, approval, cancellation, b.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStaleStatus
	}
	return nil
}

func (r *BookingRepository) SetDriver(ctx context.Context, id uuid.UUID, driverID *string) (*models.Booking, error) {
	query := `
        UPDATE bookings SET driver_id = $2, updated_at = now()
        WHERE id = $1
        RETURNING ` + bookingColumns
	return scanOne(r.db.QueryRow(ctx, query, id, driverID))
}

func (r *BookingRepository) AppendMessage(ctx context.Context, id uuid.UUID, msg models.Message) (*models.Booking, error) {
	payload, err := json.Marshal([]models.Message{msg})
	if err != nil {
		return nil, err
	}
	query := `
        UPDATE bookings SET messages = messages || $2::jsonb, updated_at = now()
        WHERE id = $1
        RETURNING ` + bookingColumns
	return scanOne(r.db.QueryRow(ctx, query, id, payload))
}

// MarkMessagesRead flags every message not sent by reader as read.
func (r *BookingRepository) MarkMessagesRead(ctx context.Context, id uuid.UUID, reader models.Role) (*models.Booking, error) {
	query := `
        UPDATE bookings SET messages = COALESCE((
            SELECT jsonb_agg(
                CASE WHEN m->>'sender_role' <> $2 THEN jsonb_set(m, '{read}', 'true'::jsonb) ELSE m END
                ORDER BY ord)
            FROM jsonb_array_elements(bookings.messages) WITH ORDINALITY AS t(m, ord)
        ), '[]'::jsonb), updated_at = now()
        WHERE id = $1
        RETURNING ` + bookingColumns
	return scanOne(r.db.QueryRow(ctx, query, id, string(reader)))
}

// SetReview sets one side of the review, once, on a completed booking.
func (r *BookingRepository) SetReview(ctx context.Context, id uuid.UUID, side models.ReviewSide, review models.Review) (*models.Booking, error) {
	payload, err := json.Marshal(review)
	if err != nil {
		return nil, err
	}
	query := `
        UPDATE bookings SET review = jsonb_set(review, ARRAY[$2::text], $3::jsonb), updated_at = now()
        WHERE id = $1 AND status = 'completed' AND NOT (review ? $2::text)
        RETURNING ` + bookingColumns
	b, err := scanOne(r.db.QueryRow(ctx, query, id, string(side), payload))
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, models.ErrReviewExists
	}
	return b, err
}

func (r *BookingRepository) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error) {
	where, args := buildFilter(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM bookings` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.Sort]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", column, order, order)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	bookings, err := r.queryBookings(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *BookingRepository) AggregateByStatus(ctx context.Context) ([]models.StatusStat, error) {
	query := `
        SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
        FROM bookings
        GROUP BY status
        ORDER BY status
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.StatusStat
	for rows.Next() {
		var s models.StatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.Revenue); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func buildFilter(f models.BookingFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.ClientID != "" {
		add("client_id = $%d", f.ClientID)
	}
	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if f.VehicleID != "" {
		add("vehicle_id = $%d", f.VehicleID)
	}
	if f.DriverID != "" {
		add("driver_id = $%d", f.DriverID)
	}
	if f.From != nil {
		add("start_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("start_date <= $%d", *f.To)
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		cond := fmt.Sprintf("reference ILIKE $%d", len(args))
		if len(f.SearchClientIDs) > 0 {
			args = append(args, f.SearchClientIDs)
			cond = fmt.Sprintf("(%s OR client_id = ANY($%d))", cond, len(args))
		}
		conditions = append(conditions, cond)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func scanOne(row pgx.Row) (*models.Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var pickup, dropoff, payment, approval, cancellation, messages, review []byte

	err := row.Scan(
		&b.ID, &b.Reference, &b.ClientID, &b.VehicleID, &b.OwnerID, &b.Driver.Required, &b.Driver.DriverID,
		&b.StartDate, &b.EndDate, &b.StartTime, &b.EndTime, &pickup, &dropoff,
		&b.TotalDays, &b.Pricing.DailyRate, &b.Pricing.Subtotal, &b.Pricing.ServiceFee, &b.Pricing.Taxes,
		&b.Pricing.SecurityDeposit, &b.Pricing.DriverFee, &b.Pricing.TotalAmount,
		&b.Status, &payment, &approval, &cancellation, &messages, &review, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		raw []byte
		dst interface{}
	}{
		{pickup, &b.PickupLocation},
		{dropoff, &b.DropoffLocation},
		{payment, &b.Payment},
		{approval, &b.Approval},
		{cancellation, &b.Cancellation},
		{messages, &b.Messages},
		{review, &b.Review},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode booking %s: %w", b.ID, err)
		}
	}
	if b.Messages == nil {
		b.Messages = []models.Message{}
	}
	return &b, nil
}

func encodeLifecycle(b *models.Booking) (payment []byte, approval []byte, cancellation []byte, err error) {
	payment, err = json.Marshal(b.Payment)
	if err != nil {
		return nil, nil, nil, err
	}
	if b.Approval != nil {
		if approval, err = json.Marshal(b.Approval); err != nil {
			return nil, nil, nil, err
		}
	}
	if b.Cancellation != nil {
		if cancellation, err = json.Marshal(b.Cancellation); err != nil {
			return nil, nil, nil, err
		}
	}
	return payment, approval, cancellation, nil
}

// translateError maps constraint violations onto the store sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgExclusionViolation:
			return fmt.Errorf("%w: %s", models.ErrOverlap, pgErr.ConstraintName)
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == referenceConstraint:
			return models.ErrDuplicateReference
		}
	}
	return err
}

func statusStrings(statuses []models.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func orEmpty(messages []models.Message) []models.Message {
	if messages == nil {
		return []models.Message{}
	}
	return messages
}
