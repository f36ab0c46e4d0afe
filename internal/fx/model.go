// Package fx manages per-company exchange rates and currency conversion.
package fx

import "time"

// DateLayout is the day-granularity key format for rate lookups.
const DateLayout = "2006-01-02"

// Rate is an exchange-rate record. Rate holds units of the company base
// currency per one unit of Target, so converting an amount denominated in
// Target into base is amount * Rate. Lookup is an exact match on
// (company, target, date); there is no interpolation between dates.
type Rate struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Base      string    `json:"base"`
	Target    string    `json:"target"`
	Date      string    `json:"date"`
	Rate      float64   `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
}

// RateInput carries the fields required to register a rate.
type RateInput struct {
	Base   string  `json:"base" validate:"required,len=3"`
	Target string  `json:"target" validate:"required,len=3"`
	Date   string  `json:"date" validate:"required"`
	Rate   float64 `json:"rate" validate:"required,gt=0"`
}

// Conversion reports the outcome of converting one amount into base currency.
type Conversion struct {
	Amount       float64
	FallbackUsed bool
}
