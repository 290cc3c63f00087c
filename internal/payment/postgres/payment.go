package postgres

import (
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/payment-gateway/internal/payment"
	"gorm.io/gorm"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &LogRepository{
		db: db,
	}
}

func (r *LogRepository) Create(entry *payment.Log) error {
	return r.db.Create(entry).Error
}

func (r *LogRepository) GetByOrderID(orderID string) ([]*payment.Log, error) {
	var logs []*payment.Log
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

func (r *LogRepository) GetLatestByOrderID(orderID string) (*payment.Log, error) {
	var entry payment.Log
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
