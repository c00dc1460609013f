package outbox

import (
	"time"

	"github.com/staybook/payment-service/internal/core/datamodel/payment"
	"github.com/staybook/payment-service/internal/core/datamodel/refund"
)

// Event payload snapshots, versioned by event type. Field names are part of
// the contract with downstream consumers; amounts travel as plain integers.

type PaymentCompletedPayload struct {
	PaymentID     string     `json:"paymentId"`
	ReservationID string     `json:"reservationId"`
	OrderID       string     `json:"orderId"`
	PaymentKey    string     `json:"paymentKey"`
	Amount        int64      `json:"amount"`
	Method        string     `json:"method,omitempty"`
	PaidAt        *time.Time `json:"paidAt"`
}

func NewPaymentCompletedPayload(p *payment.Payment) PaymentCompletedPayload {
	return PaymentCompletedPayload{
		PaymentID:     p.ID,
		ReservationID: p.ReservationID,
		OrderID:       p.OrderID,
		PaymentKey:    p.PaymentKey,
		Amount:        p.Amount.Int64(),
		Method:        string(p.Method),
		PaidAt:        p.PaidAt,
	}
}

type PaymentCancelledPayload struct {
	PaymentID     string     `json:"paymentId"`
	ReservationID string     `json:"reservationId"`
	OrderID       string     `json:"orderId"`
	Amount        int64      `json:"amount"`
	CancelledAt   *time.Time `json:"cancelledAt"`
}

func NewPaymentCancelledPayload(p *payment.Payment) PaymentCancelledPayload {
	return PaymentCancelledPayload{
		PaymentID:     p.ID,
		ReservationID: p.ReservationID,
		OrderID:       p.OrderID,
		Amount:        p.Amount.Int64(),
		CancelledAt:   p.CancelledAt,
	}
}

type RefundCompletedPayload struct {
	RefundID       string     `json:"refundId"`
	PaymentID      string     `json:"paymentId"`
	OriginalAmount int64      `json:"originalAmount"`
	RefundAmount   int64      `json:"refundAmount"`
	Reason         string     `json:"reason"`
	CompletedAt    *time.Time `json:"completedAt"`
}

func NewRefundCompletedPayload(r *refund.Refund) RefundCompletedPayload {
	return RefundCompletedPayload{
		RefundID:       r.ID,
		PaymentID:      r.PaymentID,
		OriginalAmount: r.OriginalAmount.Int64(),
		RefundAmount:   r.RefundAmount.Int64(),
		Reason:         r.Reason,
		CompletedAt:    r.CompletedAt,
	}
}
