package postgres

import (
	"gorm.io/gorm"

	errors "github.com/staybook/payment-service/internal"
	paymentDatamodel "github.com/staybook/payment-service/internal/core/datamodel/payment"
	"github.com/staybook/payment-service/internal/payment"
)

// PaymentRepository implements the payment.Repository interface using GORM
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

// Create inserts the payment inside the caller's transaction. A duplicate
// reservation_id surfaces as the typed conflict the service races on;
// gorm's error translation must be enabled on the connection for the
// driver-specific violation to map to ErrDuplicatedKey.
func (r *PaymentRepository) Create(tx *gorm.DB, pay *paymentDatamodel.Payment) error {
	if err := tx.Create(pay).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrDuplicateReservation.WithCause(err)
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) Update(tx *gorm.DB, pay *paymentDatamodel.Payment) error {
	return tx.Save(pay).Error
}

func (r *PaymentRepository) GetByID(id string) (*paymentDatamodel.Payment, error) {
	var pay paymentDatamodel.Payment
	err := r.db.Where("payment_id = ?", id).First(&pay).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, err
	}
	return &pay, nil
}

func (r *PaymentRepository) GetByReservationID(reservationID string) (*paymentDatamodel.Payment, error) {
	var pay paymentDatamodel.Payment
	err := r.db.Where("reservation_id = ?", reservationID).First(&pay).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, err
	}
	return &pay, nil
}
