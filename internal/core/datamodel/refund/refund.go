package refund

import (
	"fmt"
	"strconv"
	"time"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/idgen"
	"github.com/staybook/payment-service/internal/core/money"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Refund is one refund attempt against a payment. There is no ownership
// relation: the link is the payment id value only, and a payment may have
// any number of refund rows.
type Refund struct {
	ID             string      `json:"refund_id" gorm:"column:refund_id;primaryKey;size:50"`
	PaymentID      string      `json:"payment_id" gorm:"column:payment_id;size:50;not null;index"`
	OriginalAmount money.Money `json:"original_amount" gorm:"embedded;embeddedPrefix:original_"`
	RefundAmount   money.Money `json:"refund_amount" gorm:"embedded;embeddedPrefix:refund_"`
	Status         Status      `json:"status" gorm:"column:status;size:20;not null"`
	Reason         string      `json:"reason" gorm:"column:reason;type:text"`
	TransactionID  string      `json:"transaction_id,omitempty" gorm:"column:transaction_id;size:100"`
	RequestedAt    time.Time   `json:"requested_at" gorm:"column:requested_at;not null"`
	ApprovedAt     *time.Time  `json:"approved_at,omitempty" gorm:"column:approved_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty" gorm:"column:completed_at"`
	FailureReason  string      `json:"failure_reason,omitempty" gorm:"column:failure_reason;type:text"`
}

func (Refund) TableName() string {
	return "refunds"
}

// Request validates inputs and builds a new refund in PENDING state.
// The refund amount must be positive and must not exceed the original.
func Request(paymentID string, originalAmount, refundAmount money.Money, reason string, gen idgen.Generator) (*Refund, error) {
	if paymentID == "" {
		return nil, errors.NewValidationFieldError("payment_id", "payment_id is required", errors.ErrCodeValidationFailed)
	}
	if !originalAmount.IsPositive() {
		return nil, errors.NewValidationFieldError("original_amount", "original_amount must be positive", errors.ErrCodeInvalidAmount)
	}
	if !refundAmount.IsPositive() {
		return nil, errors.NewValidationFieldError("refund_amount", "refund_amount must be positive", errors.ErrCodeInvalidAmount)
	}
	exceeds, err := refundAmount.IsGreaterThan(originalAmount)
	if err != nil {
		return nil, err
	}
	if exceeds {
		return nil, errors.NewValidationFieldError("refund_amount",
			fmt.Sprintf("refund amount %s exceeds original amount %s", refundAmount, originalAmount),
			errors.ErrCodeInvalidAmount)
	}
	if reason == "" {
		return nil, errors.NewValidationFieldError("reason", "reason is required", errors.ErrCodeValidationFailed)
	}

	return &Refund{
		ID:             "REF-" + strconv.FormatInt(gen.NextID(), 10),
		PaymentID:      paymentID,
		OriginalAmount: originalAmount,
		RefundAmount:   refundAmount,
		Status:         StatusPending,
		Reason:         reason,
		RequestedAt:    time.Now(),
	}, nil
}

// Approve moves PENDING -> APPROVED.
func (r *Refund) Approve() error {
	if r.Status != StatusPending {
		return errors.NewStateConflictError(
			fmt.Sprintf("only a PENDING refund can be approved, current status: %s", r.Status),
			errors.ErrCodeInvalidRefundStatus)
	}

	now := time.Now()
	r.Status = StatusApproved
	r.ApprovedAt = &now
	return nil
}

// Complete moves APPROVED -> COMPLETED with the gateway transaction id.
func (r *Refund) Complete(transactionID string) error {
	if r.Status != StatusApproved {
		return errors.NewStateConflictError(
			fmt.Sprintf("only an APPROVED refund can be completed, current status: %s", r.Status),
			errors.ErrCodeInvalidRefundStatus)
	}
	if transactionID == "" {
		return errors.NewValidationFieldError("transaction_id", "transaction_id is required", errors.ErrCodeValidationFailed)
	}

	now := time.Now()
	r.Status = StatusCompleted
	r.TransactionID = transactionID
	r.CompletedAt = &now
	return nil
}

// Fail marks the refund FAILED with a reason. Completed refunds cannot fail.
func (r *Refund) Fail(failureReason string) error {
	if r.Status == StatusCompleted {
		return errors.NewStateConflictError(
			"a completed refund cannot be marked failed",
			errors.ErrCodeInvalidRefundStatus)
	}
	if failureReason == "" {
		return errors.NewValidationFieldError("failure_reason", "failure_reason is required", errors.ErrCodeValidationFailed)
	}

	r.Status = StatusFailed
	r.FailureReason = failureReason
	return nil
}

func (r *Refund) IsCompleted() bool {
	return r.Status == StatusCompleted
}
