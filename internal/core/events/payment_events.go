package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentRefunded  = "payment.refunded"
)

type PaymentCompletedEvent struct {
	BaseEvent
	Provider      string  `json:"provider"`
	OrderID       string  `json:"order_id"`
	PaymentID     string  `json:"payment_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
}

func NewPaymentCompletedEvent(provider, orderID, paymentID, transactionID string, amount float64, currency, status string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"provider":       provider,
				"order_id":       orderID,
				"payment_id":     paymentID,
				"transaction_id": transactionID,
				"amount":         amount,
				"currency":       currency,
				"status":         status,
			},
		},
		Provider:      provider,
		OrderID:       orderID,
		PaymentID:     paymentID,
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
		Status:        status,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	Provider  string `json:"provider"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

func NewPaymentFailedEvent(provider, orderID, paymentID, status, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"provider":   provider,
				"order_id":   orderID,
				"payment_id": paymentID,
				"status":     status,
				"reason":     reason,
			},
		},
		Provider:  provider,
		OrderID:   orderID,
		PaymentID: paymentID,
		Status:    status,
		Reason:    reason,
	}
}

type PaymentRefundedEvent struct {
	BaseEvent
	Provider      string   `json:"provider"`
	PaymentID     string   `json:"payment_id"`
	TransactionID string   `json:"transaction_id"`
	Amount        *float64 `json:"amount,omitempty"`
}

// NewPaymentRefundedEvent carries a nil amount for full refunds.
func NewPaymentRefundedEvent(provider, paymentID, transactionID string, amount *float64) *PaymentRefundedEvent {
	data := map[string]interface{}{
		"provider":       provider,
		"payment_id":     paymentID,
		"transaction_id": transactionID,
	}
	if amount != nil {
		data["amount"] = *amount
	}
	return &PaymentRefundedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRefunded,
			Timestamp: time.Now(),
			Data:      data,
		},
		Provider:      provider,
		PaymentID:     paymentID,
		TransactionID: transactionID,
		Amount:        amount,
	}
}
