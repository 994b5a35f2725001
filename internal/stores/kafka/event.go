package kafka

import "time"

const (
	TopicAccountCreated = `user-service.account-created`
	TopicOrderPaid      = `order-service.order-paid`
)

// AccountCreatedEvent is published when a new user registers.
type AccountCreatedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderPaidEvent is published per line item once an order's payment is
// confirmed, so downstream consumers can react to the committed sale.
type OrderPaidEvent struct {
	OrderId   string    `json:"order_id"`
	ProductId string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
