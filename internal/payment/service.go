package payment

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	errors "github.com/staybook/payment-service/internal"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	"github.com/staybook/payment-service/internal/core/idgen"
	"github.com/staybook/payment-service/internal/core/money"
	"github.com/staybook/payment-service/internal/gateway"
	"github.com/staybook/payment-service/internal/outbox"
)

// Repository interface defines the data access methods for payments
type Repository interface {
	Create(tx *gorm.DB, pay *paymentDatamodel.Payment) error
	Update(tx *gorm.DB, pay *paymentDatamodel.Payment) error
	GetByID(id string) (*paymentDatamodel.Payment, error)
	GetByReservationID(reservationID string) (*paymentDatamodel.Payment, error)
}

// TxManager runs a function inside one database transaction.
type TxManager interface {
	Do(fn func(tx *gorm.DB) error) error
}

// Service owns the payment lifecycle: idempotent preparation, gateway
// confirmation and full cancellation.
type Service struct {
	repo      Repository
	gateway   gateway.Client
	publisher *outbox.Publisher
	txManager TxManager
	idGen     idgen.Generator
	logger    *slog.Logger
}

func NewService(repo Repository, gw gateway.Client, publisher *outbox.Publisher, txManager TxManager, idGen idgen.Generator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		txManager: txManager,
		idGen:     idGen,
		logger:    logger,
	}
}

// PreparePayment creates the PREPARED payment for a reservation, or returns
// the existing one. Both the HTTP path and the reservation-event path land
// here concurrently; the unique constraint on reservation_id is the only
// barrier, and a constraint violation means the other caller won the race,
// so their row is adopted.
func (s *Service) PreparePayment(reservationID string, amount int64, checkInDate time.Time) (*paymentDatamodel.Payment, error) {
	s.logger.Info("preparing payment", "reservation_id", reservationID, "amount", amount)

	existing, err := s.repo.GetByReservationID(reservationID)
	if err == nil {
		s.logger.Info("reservation already has a payment",
			"reservation_id", reservationID,
			"payment_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, errors.ErrPaymentNotFound) {
		return nil, err
	}

	value, err := money.New(amount)
	if err != nil {
		return nil, err
	}

	pay, err := paymentDatamodel.Prepare(reservationID, value, checkInDate, s.idGen)
	if err != nil {
		return nil, err
	}

	err = s.txManager.Do(func(tx *gorm.DB) error {
		return s.repo.Create(tx, pay)
	})
	if err != nil {
		if errors.Is(err, errors.ErrDuplicateReservation) {
			return s.adoptExistingPayment(reservationID)
		}
		return nil, err
	}

	s.logger.Info("payment prepared", "payment_id", pay.ID, "reservation_id", reservationID)
	return pay, nil
}

// adoptExistingPayment handles the lost side of the creation race. The
// uniqueness violation proves a committed row exists, so a miss here is a
// store-level inconsistency, not a caller error.
func (s *Service) adoptExistingPayment(reservationID string) (*paymentDatamodel.Payment, error) {
	s.logger.Warn("concurrent payment creation detected, adopting existing row",
		"reservation_id", reservationID)

	existing, err := s.repo.GetByReservationID(reservationID)
	if err != nil {
		s.logger.Error("uniqueness violation without a matching row",
			"reservation_id", reservationID,
			"error", err)
		return nil, errors.ErrFatalPersistence.WithDetails(map[string]string{
			"reservation_id": reservationID,
		})
	}
	return existing, nil
}

// ConfirmPayment validates the requested amount, confirms with the gateway
// and completes the payment. A gateway failure aborts before any state
// change, leaving the payment PREPARED for a client retry.
func (s *Service) ConfirmPayment(ctx context.Context, paymentID, orderID, paymentKey string, amount int64) (*paymentDatamodel.Payment, error) {
	s.logger.Info("confirming payment", "payment_id", paymentID, "order_id", orderID, "amount", amount)

	pay, err := s.repo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}

	requested, err := money.New(amount)
	if err != nil {
		return nil, err
	}
	if err := pay.ValidateAmount(requested); err != nil {
		return nil, err
	}

	confirmed, err := s.gateway.Confirm(ctx, paymentKey, orderID, amount)
	if err != nil {
		return nil, err
	}

	err = s.txManager.Do(func(tx *gorm.DB) error {
		method := paymentDatamodel.ParseMethod(confirmed.Method)
		if err := pay.Complete(orderID, paymentKey, confirmed.TransactionID, method); err != nil {
			return err
		}
		if err := s.repo.Update(tx, pay); err != nil {
			return err
		}
		return s.publisher.StagePaymentCompleted(tx, pay)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment confirmed",
		"payment_id", pay.ID,
		"transaction_id", pay.TransactionID,
		"method", pay.Method)
	return pay, nil
}

// CancelPayment cancels a COMPLETED payment for the full amount. The
// payment is left untouched when the gateway call fails.
func (s *Service) CancelPayment(ctx context.Context, paymentID, reason string) (*paymentDatamodel.Payment, error) {
	s.logger.Info("cancelling payment", "payment_id", paymentID, "reason", reason)

	pay, err := s.repo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if pay.Status != paymentDatamodel.StatusCompleted {
		return nil, errors.NewStateConflictError(
			"only a COMPLETED payment can be cancelled, current status: "+string(pay.Status),
			errors.ErrCodeInvalidPaymentStatus)
	}

	cancelled, err := s.gateway.Cancel(ctx, pay.PaymentKey, pay.Amount.Int64(), reason)
	if err != nil {
		return nil, err
	}

	err = s.txManager.Do(func(tx *gorm.DB) error {
		if err := pay.Cancel(); err != nil {
			return err
		}
		if err := s.repo.Update(tx, pay); err != nil {
			return err
		}
		return s.publisher.StagePaymentCancelled(tx, pay)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment cancelled",
		"payment_id", pay.ID,
		"transaction_id", cancelled.TransactionID)
	return pay, nil
}

// GetPayment is a plain lookup.
func (s *Service) GetPayment(paymentID string) (*paymentDatamodel.Payment, error) {
	return s.repo.GetByID(paymentID)
}
