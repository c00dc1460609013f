package payment

import (
	"time"

	errors "github.com/staybook/payment-service/internal"
	"github.com/staybook/payment-service/internal/core/common/validation"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
)

type PrepareRequestDTO struct {
	ReservationID string    `json:"reservation_id"`
	Amount        int64     `json:"amount"`
	CheckInDate   time.Time `json:"check_in_date"`
}

func (d *PrepareRequestDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("reservation_id", d.ReservationID).Required().MaxLength(50)
	v.Field("amount", d.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	v.Field("check_in_date", d.CheckInDate).Required()
	return v.Validate()
}

type ConfirmRequestDTO struct {
	PaymentID  string `json:"payment_id"`
	OrderID    string `json:"order_id"`
	PaymentKey string `json:"payment_key"`
	Amount     int64  `json:"amount"`
}

func (d *ConfirmRequestDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("payment_id", d.PaymentID).Required()
	v.Field("order_id", d.OrderID).Required().MaxLength(100)
	v.Field("payment_key", d.PaymentKey).Required().MaxLength(200)
	v.Field("amount", d.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	return v.Validate()
}

type CancelRequestDTO struct {
	Reason string `json:"reason"`
}

func (d *CancelRequestDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("reason", d.Reason).Required().MaxLength(500)
	return v.Validate()
}

type PaymentResponseDTO struct {
	PaymentID     string     `json:"payment_id"`
	ReservationID string     `json:"reservation_id"`
	OrderID       string     `json:"order_id,omitempty"`
	PaymentKey    string     `json:"payment_key,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Method        string     `json:"method,omitempty"`
	Status        string     `json:"status"`
	CheckInDate   time.Time  `json:"check_in_date"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

func ToResponseDTO(pay *paymentDatamodel.Payment) *PaymentResponseDTO {
	return &PaymentResponseDTO{
		PaymentID:     pay.ID,
		ReservationID: pay.ReservationID,
		OrderID:       pay.OrderID,
		PaymentKey:    pay.PaymentKey,
		TransactionID: pay.TransactionID,
		Amount:        pay.Amount.Int64(),
		Currency:      pay.Amount.Currency,
		Method:        string(pay.Method),
		Status:        string(pay.Status),
		CheckInDate:   pay.CheckInDate,
		CreatedAt:     pay.CreatedAt,
		PaidAt:        pay.PaidAt,
		CancelledAt:   pay.CancelledAt,
	}
}
