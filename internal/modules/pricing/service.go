// README: Pricing engine; pure fare computation with fixed fee/tax rates.
package pricing

import (
	"errors"
	"fmt"

	"copool/internal/types"
)

var ErrInvalidInput = errors.New("invalid pricing input")

// Quote computes the price breakdown for seats at pricePerSeat, adjusted by
// toll charges and discount before the platform fee and GST are applied.
// Pure and deterministic: identical inputs always yield identical output.
func Quote(req QuoteRequest) (Breakdown, error) {
	switch {
	case req.Seats <= 0:
		return Breakdown{}, fmt.Errorf("%w: seats must be >= 1, got %d", ErrInvalidInput, req.Seats)
	case req.PricePerSeat < 0:
		return Breakdown{}, fmt.Errorf("%w: negative price per seat", ErrInvalidInput)
	case req.TollCharges < 0:
		return Breakdown{}, fmt.Errorf("%w: negative toll charges", ErrInvalidInput)
	case req.Discount < 0:
		return Breakdown{}, fmt.Errorf("%w: negative discount", ErrInvalidInput)
	}

	gross := req.PricePerSeat*int64(req.Seats) + req.TollCharges
	if req.Discount > gross {
		return Breakdown{}, fmt.Errorf("%w: discount %d exceeds fare %d", ErrInvalidInput, req.Discount, gross)
	}

	base := gross - req.Discount
	fee := base * PlatformFeePercent / 100
	gst := base * GSTPercent / 100

	return Breakdown{
		BaseFare:    types.INR(base),
		PlatformFee: types.INR(fee),
		GST:         types.INR(gst),
		TotalAmount: types.INR(base + fee + gst),
	}, nil
}
