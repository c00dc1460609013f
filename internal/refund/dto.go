package refund

import (
	"time"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/common/validation"
	refundDatamodel "github.com/staybook/payment-service/internal/core/datamodel/refund"
)

type RequestRefundDTO struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

func (d *RequestRefundDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("payment_id", d.PaymentID).Required().MaxLength(50)
	v.Field("reason", d.Reason).Required().MaxLength(500)
	return v.Validate()
}

type RefundResponseDTO struct {
	RefundID       string     `json:"refund_id"`
	PaymentID      string     `json:"payment_id"`
	OriginalAmount int64      `json:"original_amount"`
	RefundAmount   int64      `json:"refund_amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	Reason         string     `json:"reason"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	RequestedAt    time.Time  `json:"requested_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
}

func ToResponseDTO(ref *refundDatamodel.Refund) *RefundResponseDTO {
	return &RefundResponseDTO{
		RefundID:       ref.ID,
		PaymentID:      ref.PaymentID,
		OriginalAmount: ref.OriginalAmount.Int64(),
		RefundAmount:   ref.RefundAmount.Int64(),
		Currency:       ref.RefundAmount.Currency,
		Status:         string(ref.Status),
		Reason:         ref.Reason,
		TransactionID:  ref.TransactionID,
		RequestedAt:    ref.RequestedAt,
		CompletedAt:    ref.CompletedAt,
		FailureReason:  ref.FailureReason,
	}
}
