// README: Refund policy engine; pure tiered computation against departure time.
package refund

import (
	"time"

	"copool/internal/types"
)

// Refund tiers by lead time before departure. The no-refund window matches
// the platform's minimum booking lead time: inside it no new booking may be
// created either.
const (
	FullRefundLead = 24 * time.Hour
	NoRefundLead   = 2 * time.Hour

	// PartialRefundPercent applies between NoRefundLead and FullRefundLead.
	PartialRefundPercent = 50
)

// Calculation is the derived refund decision for a cancellation, computed at
// the instant of the request. The same function serves previews and actual
// cancellations, so the two can never disagree.
type Calculation struct {
	IsEligible   bool        `json:"is_eligible"`
	RefundAmount types.Money `json:"refund_amount"`
	Reason       string      `json:"reason"`
}

// Compute returns the refund owed for a booking of totalAmount whose trip
// departs at departure, evaluated at now. The platform fee is non-refundable
// in every tier and the refund never exceeds the total paid.
func Compute(departure, now time.Time, totalAmount, platformFee int64) Calculation {
	refundable := totalAmount - platformFee
	if refundable < 0 {
		refundable = 0
	}

	lead := departure.Sub(now)
	switch {
	case lead >= FullRefundLead:
		return Calculation{
			IsEligible:   true,
			RefundAmount: types.INR(refundable),
			Reason:       "full refund (platform fee non-refundable)",
		}
	case lead >= NoRefundLead:
		return Calculation{
			IsEligible:   true,
			RefundAmount: types.INR(refundable * PartialRefundPercent / 100),
			Reason:       "50% refund within 24 hours of departure",
		}
	default:
		return Calculation{
			IsEligible:   false,
			RefundAmount: types.INR(0),
			Reason:       "no refund within 2 hours of departure",
		}
	}
}
