package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	errors "github.com/staybook/payment-service/internal"
)

// DefaultCurrency is used when callers pass plain integer amounts.
const DefaultCurrency = "KRW"

// Money is a non-negative amount tagged with a currency. The amount is
// truncated to zero decimal places on construction; values are immutable and
// every operation returns a new Money.
type Money struct {
	Amount   decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(19,0);not null"`
	Currency string          `json:"currency" gorm:"column:currency;size:3;not null"`
}

func Zero() Money {
	return Money{Amount: decimal.Zero, Currency: DefaultCurrency}
}

// New builds a Money in the default currency from an integer amount.
func New(amount int64) (Money, error) {
	return FromDecimal(decimal.NewFromInt(amount), DefaultCurrency)
}

// FromDecimal validates and truncates an arbitrary-precision amount.
func FromDecimal(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, errors.NewValidationError("currency must not be empty", errors.ErrCodeValidationFailed)
	}
	if amount.IsNegative() {
		return Money{}, errors.NewValidationError(
			fmt.Sprintf("amount must not be negative: %s", amount), errors.ErrCodeInvalidAmount)
	}
	return Money{Amount: amount.Truncate(0), Currency: currency}, nil
}

// MustNew is for constants and tests where the amount is known to be valid.
func MustNew(amount int64) Money {
	m, err := New(amount)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return FromDecimal(m.Amount.Add(other.Amount), m.Currency)
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return FromDecimal(m.Amount.Sub(other.Amount), m.Currency)
}

// Multiply scales the amount by a ratio. The result is truncated back to
// integer scale, so 50% of 10001 is 5000.
func (m Money) Multiply(ratio decimal.Decimal) (Money, error) {
	return FromDecimal(m.Amount.Mul(ratio), m.Currency)
}

func (m Money) IsGreaterThan(other Money) (bool, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount.GreaterThan(other.Amount), nil
}

func (m Money) IsGreaterThanOrEqual(other Money) (bool, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount.GreaterThanOrEqual(other.Amount), nil
}

func (m Money) IsLessThan(other Money) (bool, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount.LessThan(other.Amount), nil
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// Equals compares numeric value and currency, ignoring scale representation.
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// Int64 returns the amount as a plain integer for wire payloads.
func (m Money) Int64() int64 {
	return m.Amount.IntPart()
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}

func (m Money) requireSameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return errors.NewValidationError(
			fmt.Sprintf("cannot operate on different currencies: %s and %s", m.Currency, other.Currency),
			errors.ErrCodeCurrencyMismatch)
	}
	return nil
}
