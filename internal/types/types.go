// README: Common identifier and money value objects used across modules.
package types

import "fmt"

// ID is an opaque entity identifier (uuid string for rows we create,
// provider uid for users).
type ID string

// Money is an integer amount in the smallest useful unit (whole rupees).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// INR builds a Money in the platform's default currency.
func INR(amount int64) Money {
	return Money{Amount: amount, Currency: "INR"}
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
