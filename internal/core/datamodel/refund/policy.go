package refund

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/money"
)

const (
	fullRefundDays    = 7
	partialRefundDays = 3
)

var partialRefundRate = decimal.RequireFromString("0.5")

// Policy computes the refundable amount from the time left until check-in.
// Days are counted on calendar dates, not elapsed hours: a request at 23:00
// the day before check-in is one day out regardless of the clock.
type Policy struct {
	checkInDate time.Time
	requestDate time.Time
}

func NewPolicy(checkInDate, requestDate time.Time) (Policy, error) {
	if checkInDate.IsZero() {
		return Policy{}, errors.NewValidationFieldError("check_in_date", "check_in_date is required", errors.ErrCodeInvalidDate)
	}
	if requestDate.IsZero() {
		return Policy{}, errors.NewValidationFieldError("request_date", "request_date is required", errors.ErrCodeInvalidDate)
	}
	return Policy{checkInDate: checkInDate, requestDate: requestDate}, nil
}

// CalculateRefundAmount applies the tier brackets: 7+ days out refunds the
// full amount, 3-6 days out refunds half, anything closer is refused.
func (p Policy) CalculateRefundAmount(originalAmount money.Money) (money.Money, error) {
	days := p.daysUntilCheckIn()

	switch {
	case days >= fullRefundDays:
		return originalAmount, nil
	case days >= partialRefundDays:
		return originalAmount.Multiply(partialRefundRate)
	default:
		return money.Money{}, errors.ErrRefundNotAllowed.WithDetails(map[string]any{
			"days_until_check_in": days,
			"minimum_days":        partialRefundDays,
		}).WithCause(fmt.Errorf("refund requested %d days before check-in, minimum is %d", days, partialRefundDays))
	}
}

// RefundRate mirrors the same tiers as a percentage, for responses and logs.
func (p Policy) RefundRate() int {
	days := p.daysUntilCheckIn()
	switch {
	case days >= fullRefundDays:
		return 100
	case days >= partialRefundDays:
		return 50
	default:
		return 0
	}
}

func (p Policy) IsRefundable() bool {
	return p.daysUntilCheckIn() >= partialRefundDays
}

func (p Policy) daysUntilCheckIn() int {
	request := truncateToDate(p.requestDate)
	checkIn := truncateToDate(p.checkInDate)
	return int(checkIn.Sub(request).Hours() / 24)
}

// truncateToDate re-anchors the calendar date in UTC so every day is
// exactly 24 hours. Midnights in the wall-clock zone would make spans
// crossing a DST transition come up an hour short and truncate to one
// day fewer.
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
