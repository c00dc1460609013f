package postgres

import (
	"gorm.io/gorm"

	errors "github.com/staybook/payment-service/internal"
	refundDatamodel "github.com/staybook/payment-service/internal/core/datamodel/refund"
	"github.com/staybook/payment-service/internal/refund"
)

// RefundRepository implements the refund.Repository interface using GORM
type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) refund.Repository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ref *refundDatamodel.Refund) error {
	return r.db.Create(ref).Error
}

func (r *RefundRepository) Update(tx *gorm.DB, ref *refundDatamodel.Refund) error {
	return tx.Save(ref).Error
}

func (r *RefundRepository) GetByID(id string) (*refundDatamodel.Refund, error) {
	var ref refundDatamodel.Refund
	err := r.db.Where("refund_id = ?", id).First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRefundNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *RefundRepository) GetByPaymentID(paymentID string) ([]*refundDatamodel.Refund, error) {
	var refunds []*refundDatamodel.Refund
	err := r.db.Where("payment_id = ?", paymentID).
		Order("requested_at ASC").
		Find(&refunds).Error
	return refunds, err
}
