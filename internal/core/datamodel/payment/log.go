package payment

import (
	"encoding/json"
	"time"
)

// Log is the persisted audit record of a gateway operation. One row per
// attempt or terminal result; the raw provider payload goes into Payload.
type Log struct {
	ID            int64           `gorm:"primaryKey"`
	Provider      string          `gorm:"column:provider;not null"`
	Operation     string          `gorm:"column:operation;not null"`
	OrderID       string          `gorm:"column:order_id;index"`
	PaymentID     *string         `gorm:"column:payment_id"`
	TransactionID *string         `gorm:"column:transaction_id"`
	Amount        float64         `gorm:"column:amount"`
	Currency      string          `gorm:"column:currency"`
	Status        string          `gorm:"column:status"`
	Success       bool            `gorm:"column:success"`
	Message       *string         `gorm:"column:message"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb"`
	CreatedAt     time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Log) TableName() string {
	return "payment_logs"
}
