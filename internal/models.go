package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient        Role = "client"
	RoleOwner         Role = "owner"
	RoleDriver        Role = "driver"
	RoleBusinessOwner Role = "business_owner"
	RoleAdmin         Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleOwner, RoleDriver, RoleBusinessOwner, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller, taken from the bearer token claims.
type Actor struct {
	ID   string `json:"id" xml:"id"`
	Role Role   `json:"role" xml:"role"`
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentWallet       PaymentMethod = "wallet"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Location struct {
	Address string `json:"address" xml:"address"`
	City    string `json:"city" xml:"city"`
	State   string `json:"state,omitempty" xml:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty" xml:"zip_code,omitempty"`
}

type DriverAssignment struct {
	Required bool    `json:"required" xml:"required"`
	DriverID *string `json:"driver_id,omitempty" xml:"driver_id,omitempty"`
}

type Pricing struct {
	DailyRate       int64 `json:"daily_rate" xml:"daily_rate"`
	Subtotal        int64 `json:"subtotal" xml:"subtotal"`
	ServiceFee      int64 `json:"service_fee" xml:"service_fee"`
	Taxes           int64 `json:"taxes" xml:"taxes"`
	SecurityDeposit int64 `json:"security_deposit" xml:"security_deposit"`
	DriverFee       int64 `json:"driver_fee" xml:"driver_fee"`
	TotalAmount     int64 `json:"total_amount" xml:"total_amount"`
}

type Payment struct {
	Method       PaymentMethod `json:"method" xml:"method"`
	Status       PaymentStatus `json:"status" xml:"status"`
	PaidAmount   int64         `json:"paid_amount" xml:"paid_amount"`
	PaidAt       *time.Time    `json:"paid_at,omitempty" xml:"paid_at,omitempty"`
	RefundAmount int64         `json:"refund_amount" xml:"refund_amount"`
	RefundedAt   *time.Time    `json:"refunded_at,omitempty" xml:"refunded_at,omitempty"`
}

type Approval struct {
	ApprovedBy      string     `json:"approved_by,omitempty" xml:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" xml:"approved_at,omitempty"`
	Notes           string     `json:"notes,omitempty" xml:"notes,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty" xml:"rejection_reason,omitempty"`
}

type Cancellation struct {
	CancelledBy   Role      `json:"cancelled_by" xml:"cancelled_by"`
	CancelledByID string    `json:"cancelled_by_id,omitempty" xml:"cancelled_by_id,omitempty"`
	Reason        string    `json:"reason" xml:"reason"`
	CancelledAt   time.Time `json:"cancelled_at" xml:"cancelled_at"`
	Fee           int64     `json:"fee" xml:"fee"`
	Refund        int64     `json:"refund" xml:"refund"`
}

type Message struct {
	SenderRole Role      `json:"sender_role" xml:"sender_role"`
	SenderID   string    `json:"sender_id" xml:"sender_id"`
	Text       string    `json:"text" xml:"text"`
	SentAt     time.Time `json:"sent_at" xml:"sent_at"`
	Read       bool      `json:"read" xml:"read"`
}

type ReviewSide string

const (
	ReviewSideClient ReviewSide = "client"
	ReviewSideOwner  ReviewSide = "owner"
)

type Review struct {
	Rating  int       `json:"rating" xml:"rating"`
	Comment string    `json:"comment,omitempty" xml:"comment,omitempty"`
	Date    time.Time `json:"date" xml:"date"`
}

type Reviews struct {
	Client *Review `json:"client,omitempty" xml:"client,omitempty"`
	Owner  *Review `json:"owner,omitempty" xml:"owner,omitempty"`
}

func (r Reviews) Side(side ReviewSide) *Review {
	if side == ReviewSideClient {
		return r.Client
	}
	return r.Owner
}

type Booking struct {
	ID              uuid.UUID        `json:"id" xml:"id"`
	Reference       string           `json:"reference" xml:"reference"`
	ClientID        string           `json:"client_id" xml:"client_id"`
	VehicleID       string           `json:"vehicle_id" xml:"vehicle_id"`
	OwnerID         string           `json:"owner_id" xml:"owner_id"`
	Driver          DriverAssignment `json:"driver" xml:"driver"`
	StartDate       time.Time        `json:"start_date" xml:"start_date"`
	EndDate         time.Time        `json:"end_date" xml:"end_date"`
	StartTime       string           `json:"start_time,omitempty" xml:"start_time,omitempty"`
	EndTime         string           `json:"end_time,omitempty" xml:"end_time,omitempty"`
	PickupLocation  Location         `json:"pickup_location" xml:"pickup_location"`
	DropoffLocation Location         `json:"dropoff_location" xml:"dropoff_location"`
	TotalDays       int              `json:"total_days" xml:"total_days"`
	Pricing         Pricing          `json:"pricing" xml:"pricing"`
	Status          BookingStatus    `json:"status" xml:"status"`
	Payment         Payment          `json:"payment" xml:"payment"`
	Approval        *Approval        `json:"approval,omitempty" xml:"approval,omitempty"`
	Cancellation    *Cancellation    `json:"cancellation,omitempty" xml:"cancellation,omitempty"`
	Messages        []Message        `json:"messages" xml:"messages"`
	Review          Reviews          `json:"review" xml:"review"`
	SpecialRequests string           `json:"special_requests,omitempty" xml:"special_requests,omitempty"`
	CreatedAt       time.Time        `json:"created_at" xml:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" xml:"updated_at"`
}

func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

func (b *Booking) Summary() ConflictSummary {
	return ConflictSummary{
		ID:        b.ID,
		Reference: b.Reference,
		Status:    b.Status,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
	}
}

type CreateBookingRequest struct {
	ClientID        string        `json:"client_id" validate:"required"`
	VehicleID       string        `json:"vehicle_id" validate:"required"`
	StartDate       string        `json:"start_date" validate:"required"`
	EndDate         string        `json:"end_date" validate:"required"`
	StartTime       string        `json:"start_time" validate:"omitempty,clock"`
	EndTime         string        `json:"end_time" validate:"omitempty,clock"`
	PickupLocation  *Location     `json:"pickup_location" validate:"required"`
	DropoffLocation *Location     `json:"dropoff_location" validate:"required"`
	NeedDriver      bool          `json:"need_driver"`
	PaymentMethod   PaymentMethod `json:"payment_method" validate:"omitempty,payment_method"`
	SpecialRequests string        `json:"special_requests" validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,booking_status"`
	Reason string        `json:"reason" validate:"max=500"`
	Notes  string        `json:"notes" validate:"max=1000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required"`
}

type MessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type VehicleStatus string

const (
	VehiclePending     VehicleStatus = "pending"
	VehicleAvailable   VehicleStatus = "available"
	VehicleRejected    VehicleStatus = "rejected"
	VehicleRented      VehicleStatus = "rented"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleUnavailable VehicleStatus = "unavailable"
)

type Vehicle struct {
	ID              string        `json:"id" xml:"id"`
	OwnerID         string        `json:"owner_id" xml:"owner_id"`
	Status          VehicleStatus `json:"status" xml:"status"`
	DailyRate       int64         `json:"daily_rate" xml:"daily_rate"`
	SecurityDeposit int64         `json:"security_deposit" xml:"security_deposit"`
}

type Client struct {
	ID       string `json:"id" xml:"id"`
	FullName string `json:"full_name" xml:"full_name"`
	Email    string `json:"email" xml:"email"`
	Phone    string `json:"phone" xml:"phone"`
}

type DriverApprovalStatus string

const (
	DriverPending   DriverApprovalStatus = "pending"
	DriverApproved  DriverApprovalStatus = "approved"
	DriverRejected  DriverApprovalStatus = "rejected"
	DriverSuspended DriverApprovalStatus = "suspended"
)

type Driver struct {
	ID             string               `json:"id" xml:"id"`
	ApprovalStatus DriverApprovalStatus `json:"approval_status" xml:"approval_status"`
}

type ConflictSummary struct {
	ID        uuid.UUID     `json:"id" xml:"id"`
	Reference string        `json:"reference" xml:"reference"`
	Status    BookingStatus `json:"status" xml:"status"`
	StartDate time.Time     `json:"start_date" xml:"start_date"`
	EndDate   time.Time     `json:"end_date" xml:"end_date"`
}

type Availability struct {
	ResourceID string            `json:"resource_id" xml:"resource_id"`
	StartDate  time.Time         `json:"start_date" xml:"start_date"`
	EndDate    time.Time         `json:"end_date" xml:"end_date"`
	Available  bool              `json:"available" xml:"available"`
	Conflicts  []ConflictSummary `json:"conflicts" xml:"conflicts"`
}

type OverlapResource string

const (
	OverlapVehicle OverlapResource = "vehicle"
	OverlapDriver  OverlapResource = "driver"
)

type OverlapQuery struct {
	Resource  OverlapResource
	ID        string
	Range     DateRange
	ExcludeID *uuid.UUID
}

type BookingFilter struct {
	Status    *BookingStatus
	ClientID  string
	OwnerID   string
	VehicleID string
	DriverID  string
	From      *time.Time
	To        *time.Time
	Search    string
	// SearchClientIDs holds client ids matched by the free-text search.
	SearchClientIDs []string
	Sort            string
	Order           string
	Page            int
	Limit           int
}

type Pagination struct {
	Page       int   `json:"page" xml:"page"`
	Limit      int   `json:"limit" xml:"limit"`
	TotalPages int   `json:"total_pages" xml:"total_pages"`
	TotalCount int64 `json:"total_count" xml:"total_count"`
	HasNext    bool  `json:"has_next" xml:"has_next"`
	HasPrev    bool  `json:"has_prev" xml:"has_prev"`
}

type BookingPage struct {
	Bookings   []Booking  `json:"bookings" xml:"bookings"`
	Pagination Pagination `json:"pagination" xml:"pagination"`
}

type StatusStat struct {
	Status  BookingStatus `json:"status" xml:"status"`
	Count   int64         `json:"count" xml:"count"`
	Revenue int64         `json:"revenue" xml:"revenue"`
}

type BookingStats struct {
	ByStatus      []StatusStat `json:"by_status" xml:"by_status"`
	TotalBookings int64        `json:"total_bookings" xml:"total_bookings"`
	TotalRevenue  int64        `json:"total_revenue" xml:"total_revenue"`
	GeneratedAt   time.Time    `json:"generated_at" xml:"generated_at"`
}
