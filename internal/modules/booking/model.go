// README: Booking aggregate, payment record and status definitions.
package booking

import (
	"time"

	"copool/internal/types"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundProcessed RefundStatus = "processed"
)

// Booking is a passenger's reservation of seats on a trip. It is created
// atomically with the seat decrement and, once cancelled, immutable except
// for refund bookkeeping.
type Booking struct {
	ID          types.ID      `json:"id"`
	TripID      types.ID      `json:"trip_id"`
	PassengerID types.ID      `json:"passenger_id"`
	Seats       int           `json:"seats"`
	BaseFare    int64         `json:"base_fare"`
	PlatformFee int64         `json:"platform_fee"`
	GST         int64         `json:"gst_amount"`
	TotalAmount int64         `json:"total_amount"`
	Status      Status        `json:"status"`
	Payment     PaymentStatus `json:"payment_status"`
	Pickup      string        `json:"pickup"`
	Dropoff     string        `json:"dropoff"`
	CreatedAt   time.Time     `json:"created_at"`

	CancelReason *string      `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`
	RefundAmount int64        `json:"refund_amount"`
	RefundStatus RefundStatus `json:"refund_status"`
}

// PaymentRecord is the one-to-one payment row for a booking.
type PaymentRecord struct {
	ID            types.ID
	BookingID     types.ID
	Amount        int64
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
}
