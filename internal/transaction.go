package internal

import (
	"gorm.io/gorm"
)

// GormTxManager runs a function inside one database transaction. Services
// use it to keep an aggregate write and its outbox append atomic.
type GormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) Do(fn func(tx *gorm.DB) error) error {
	return m.db.Transaction(fn)
}
