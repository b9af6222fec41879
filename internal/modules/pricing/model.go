// README: Price breakdown value object and fee/tax rates.
package pricing

import "copool/internal/types"

// Rates are fixed platform-wide percentages applied to the base fare.
const (
	PlatformFeePercent = 10
	GSTPercent         = 5
)

// Breakdown is the derived price of a booking. It is recomputed on demand and
// never persisted as a source of truth.
type Breakdown struct {
	BaseFare    types.Money
	PlatformFee types.Money
	GST         types.Money
	TotalAmount types.Money
}

// QuoteRequest carries the inputs of a price computation.
type QuoteRequest struct {
	PricePerSeat int64
	Seats        int
	TollCharges  int64
	Discount     int64
}
