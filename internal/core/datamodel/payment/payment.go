package payment

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/idgen"
	"github.com/staybook/payment-service/internal/core/money"
)

type Status string

const (
	StatusPrepared  Status = "PREPARED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

type Method string

const (
	MethodCard           Method = "CARD"
	MethodVirtualAccount Method = "VIRTUAL_ACCOUNT"
	MethodEasyPay        Method = "EASY_PAY"
)

// checkInTolerance allows same-day bookings whose check-in timestamp is a
// few seconds in the past by the time the request lands.
const checkInTolerance = 5 * time.Second

// Payment is one payment attempt, tied 1:1 to a reservation. The
// reservation_id unique index is the system's only duplicate-prevention
// mechanism for payment creation.
type Payment struct {
	ID             string      `json:"payment_id" gorm:"column:payment_id;primaryKey;size:50"`
	ReservationID  string      `json:"reservation_id" gorm:"column:reservation_id;size:50;not null;uniqueIndex"`
	Amount         money.Money `json:"amount" gorm:"embedded"`
	Method         Method      `json:"method,omitempty" gorm:"column:method;size:20"`
	Status         Status      `json:"status" gorm:"column:status;size:20;not null"`
	OrderID        string      `json:"order_id,omitempty" gorm:"column:order_id;size:100"`
	PaymentKey     string      `json:"payment_key,omitempty" gorm:"column:payment_key;size:200"`
	TransactionID  string      `json:"transaction_id,omitempty" gorm:"column:transaction_id;size:100"`
	CheckInDate    time.Time   `json:"check_in_date" gorm:"column:check_in_date;not null"`
	IdempotencyKey string      `json:"idempotency_key" gorm:"column:idempotency_key;size:100;uniqueIndex"`
	CreatedAt      time.Time   `json:"created_at" gorm:"column:created_at;not null"`
	PaidAt         *time.Time  `json:"paid_at,omitempty" gorm:"column:paid_at"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty" gorm:"column:cancelled_at"`
	FailureReason  string      `json:"failure_reason,omitempty" gorm:"column:failure_reason;type:text"`
}

func (Payment) TableName() string {
	return "payments"
}

// Prepare validates inputs and builds a new payment in PREPARED state.
func Prepare(reservationID string, amount money.Money, checkInDate time.Time, gen idgen.Generator) (*Payment, error) {
	if reservationID == "" {
		return nil, errors.NewValidationFieldError("reservation_id", "reservation_id is required", errors.ErrCodeValidationFailed)
	}
	if !amount.IsPositive() {
		return nil, errors.NewValidationFieldError("amount", "amount must be positive", errors.ErrCodeInvalidAmount)
	}
	if checkInDate.IsZero() {
		return nil, errors.NewValidationFieldError("check_in_date", "check_in_date is required", errors.ErrCodeInvalidDate)
	}
	if checkInDate.Before(time.Now().Add(-checkInTolerance)) {
		return nil, errors.NewValidationFieldError("check_in_date", "check_in_date must not be in the past", errors.ErrCodeInvalidDate)
	}

	return &Payment{
		ID:             "PAY-" + strconv.FormatInt(gen.NextID(), 10),
		ReservationID:  reservationID,
		Amount:         amount,
		Status:         StatusPrepared,
		CheckInDate:    checkInDate,
		IdempotencyKey: newIdempotencyKey(reservationID),
		CreatedAt:      time.Now(),
	}, nil
}

// Complete moves PREPARED -> COMPLETED with the gateway confirmation data.
func (p *Payment) Complete(orderID, paymentKey, transactionID string, method Method) error {
	if p.Status != StatusPrepared {
		return errors.NewStateConflictError(
			fmt.Sprintf("only a PREPARED payment can be completed, current status: %s", p.Status),
			errors.ErrCodeInvalidPaymentStatus)
	}
	if orderID == "" {
		return errors.NewValidationFieldError("order_id", "order_id is required", errors.ErrCodeValidationFailed)
	}
	if paymentKey == "" {
		return errors.NewValidationFieldError("payment_key", "payment_key is required", errors.ErrCodeValidationFailed)
	}

	now := time.Now()
	p.Status = StatusCompleted
	p.OrderID = orderID
	p.PaymentKey = paymentKey
	p.TransactionID = transactionID
	p.Method = method
	p.PaidAt = &now
	return nil
}

// Fail marks the payment FAILED. Failing an already-failed payment just
// overwrites the reason.
func (p *Payment) Fail(reason string) error {
	if p.Status == StatusCompleted {
		return errors.NewStateConflictError(
			"a completed payment cannot be marked failed",
			errors.ErrCodeInvalidPaymentStatus)
	}

	p.Status = StatusFailed
	p.FailureReason = reason
	return nil
}

// Cancel moves COMPLETED -> CANCELLED.
func (p *Payment) Cancel() error {
	if p.Status != StatusCompleted {
		return errors.NewStateConflictError(
			fmt.Sprintf("only a COMPLETED payment can be cancelled, current status: %s", p.Status),
			errors.ErrCodeInvalidPaymentStatus)
	}

	now := time.Now()
	p.Status = StatusCancelled
	p.CancelledAt = &now
	return nil
}

// ValidateAmount checks a confirmation request against the prepared amount.
func (p *Payment) ValidateAmount(requested money.Money) error {
	if !p.Amount.Equals(requested) {
		return errors.ErrAmountMismatch.WithDetails(map[string]string{
			"prepared_amount":  p.Amount.String(),
			"requested_amount": requested.String(),
		})
	}
	return nil
}

// ValidateRefundable checks that the payment is COMPLETED and the check-in
// date has not passed.
func (p *Payment) ValidateRefundable() error {
	if p.Status != StatusCompleted {
		return errors.NewStateConflictError(
			fmt.Sprintf("only a COMPLETED payment can be refunded, current status: %s", p.Status),
			errors.ErrCodeInvalidPaymentStatus)
	}
	if time.Now().After(p.CheckInDate) {
		return errors.NewStateConflictError(
			"refunds are not possible after the check-in date",
			errors.ErrCodeRefundWindowClosed)
	}
	return nil
}

func (p *Payment) IsCompleted() bool {
	return p.Status == StatusCompleted
}

func newIdempotencyKey(reservationID string) string {
	return "IDEM-" + reservationID + "-" + uuid.NewString()[:8]
}

// ParseMethod maps a gateway method string onto the domain enum, defaulting
// to CARD for anything unrecognized.
func ParseMethod(raw string) Method {
	switch Method(raw) {
	case MethodCard, MethodVirtualAccount, MethodEasyPay:
		return Method(raw)
	default:
		return MethodCard
	}
}
