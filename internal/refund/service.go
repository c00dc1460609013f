package refund

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	errors "github.com/staybook/payment-service/internal"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	refundDatamodel "github.com/staybook/payment-service/internal/core/datamodel/refund"
	"github.com/staybook/payment-service/internal/core/idgen"
	"github.com/staybook/payment-service/internal/gateway"
	"github.com/staybook/payment-service/internal/outbox"
)

// Repository interface defines the data access methods for refunds
type Repository interface {
	Create(ref *refundDatamodel.Refund) error
	Update(tx *gorm.DB, ref *refundDatamodel.Refund) error
	GetByID(id string) (*refundDatamodel.Refund, error)
	GetByPaymentID(paymentID string) ([]*refundDatamodel.Refund, error)
}

// PaymentRepository is the slice of the payment store the refund flow needs.
type PaymentRepository interface {
	Update(tx *gorm.DB, pay *paymentDatamodel.Payment) error
	GetByID(id string) (*paymentDatamodel.Payment, error)
}

// TxManager runs a function inside one database transaction.
type TxManager interface {
	Do(fn func(tx *gorm.DB) error) error
}

// Service orchestrates the refund flow: policy decides the amount, the
// gateway moves the money, and the payment is cancelled alongside the
// completed refund.
type Service struct {
	refunds   Repository
	payments  PaymentRepository
	gateway   gateway.Client
	publisher *outbox.Publisher
	txManager TxManager
	idGen     idgen.Generator
	logger    *slog.Logger
}

func NewService(refunds Repository, payments PaymentRepository, gw gateway.Client, publisher *outbox.Publisher, txManager TxManager, idGen idgen.Generator, logger *slog.Logger) *Service {
	return &Service{
		refunds:   refunds,
		payments:  payments,
		gateway:   gw,
		publisher: publisher,
		txManager: txManager,
		idGen:     idGen,
		logger:    logger,
	}
}

// RequestRefund runs the whole refund for a COMPLETED payment. The tier
// policy computes the amount from the days left until check-in. A gateway
// failure marks the refund FAILED and leaves the payment COMPLETED so the
// guest can retry later.
func (s *Service) RequestRefund(ctx context.Context, paymentID, reason string) (*refundDatamodel.Refund, error) {
	s.logger.Info("processing refund", "payment_id", paymentID, "reason", reason)

	pay, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if err := pay.ValidateRefundable(); err != nil {
		return nil, err
	}

	policy, err := refundDatamodel.NewPolicy(pay.CheckInDate, time.Now())
	if err != nil {
		return nil, err
	}
	refundAmount, err := policy.CalculateRefundAmount(pay.Amount)
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund amount calculated",
		"payment_id", paymentID,
		"original_amount", pay.Amount.Int64(),
		"refund_amount", refundAmount.Int64(),
		"refund_rate", policy.RefundRate())

	ref, err := refundDatamodel.Request(paymentID, pay.Amount, refundAmount, reason, s.idGen)
	if err != nil {
		return nil, err
	}
	if err := ref.Approve(); err != nil {
		return nil, err
	}
	if err := s.refunds.Create(ref); err != nil {
		return nil, err
	}

	cancelled, err := s.gateway.Cancel(ctx, pay.PaymentKey, refundAmount.Int64(), reason)
	if err != nil {
		return nil, s.failRefund(ref, err)
	}

	// The closure mutates both aggregates before writing them. Snapshot
	// first: on rollback the in-memory refund would read COMPLETED and
	// could no longer be marked FAILED.
	refSnapshot := *ref
	paySnapshot := *pay

	err = s.txManager.Do(func(tx *gorm.DB) error {
		if err := ref.Complete(cancelled.TransactionID); err != nil {
			return err
		}
		if err := pay.Cancel(); err != nil {
			return err
		}
		if err := s.refunds.Update(tx, ref); err != nil {
			return err
		}
		if err := s.payments.Update(tx, pay); err != nil {
			return err
		}
		if err := s.publisher.StageRefundCompleted(tx, ref); err != nil {
			return err
		}
		return s.publisher.StagePaymentCancelled(tx, pay)
	})
	if err != nil {
		*ref = refSnapshot
		*pay = paySnapshot
		return nil, s.failRefund(ref, err)
	}

	s.logger.Info("refund completed",
		"refund_id", ref.ID,
		"payment_id", paymentID,
		"transaction_id", ref.TransactionID,
		"refund_amount", ref.RefundAmount.Int64())
	return ref, nil
}

// failRefund records the failure on the refund row. The payment is left
// untouched; only the refund carries the error.
func (s *Service) failRefund(ref *refundDatamodel.Refund, cause error) error {
	s.logger.Error("refund failed", "refund_id", ref.ID, "payment_id", ref.PaymentID, "error", cause)

	if err := ref.Fail(cause.Error()); err != nil {
		s.logger.Error("failed to mark refund failed", "refund_id", ref.ID, "error", err)
		return cause
	}
	err := s.txManager.Do(func(tx *gorm.DB) error {
		return s.refunds.Update(tx, ref)
	})
	if err != nil {
		s.logger.Error("failed to persist refund failure", "refund_id", ref.ID, "error", err)
	}

	return errors.NewUnprocessableError(
		"refund processing failed for payment "+ref.PaymentID,
		errors.ErrCodeRefundFailed).WithCause(cause)
}

// GetRefund is a plain lookup.
func (s *Service) GetRefund(refundID string) (*refundDatamodel.Refund, error) {
	return s.refunds.GetByID(refundID)
}

// GetRefundsForPayment lists every refund attempt recorded for a payment.
func (s *Service) GetRefundsForPayment(paymentID string) ([]*refundDatamodel.Refund, error) {
	if _, err := s.payments.GetByID(paymentID); err != nil {
		return nil, err
	}
	return s.refunds.GetByPaymentID(paymentID)
}
