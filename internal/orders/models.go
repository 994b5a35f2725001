package orders

import "time"

type PaymentMethod string

const (
	MethodCreditCard     PaymentMethod = "credit-card"
	MethodDebitCard      PaymentMethod = "debit-card"
	MethodPayPal         PaymentMethod = "paypal"
	MethodCashOnDelivery PaymentMethod = "cash-on-delivery"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodCashOnDelivery:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// Item is a line item frozen at order-creation time. Name, image and price
// are snapshots; later catalog changes never alter past orders.
type Item struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// PaymentMethodDetails is captured from the processor's charge after a
// confirmed payment.
type PaymentMethodDetails struct {
	Brand      string `json:"brand,omitempty"`
	Last4      string `json:"last4,omitempty"`
	ExpMonth   int    `json:"exp_month,omitempty"`
	ExpYear    int    `json:"exp_year,omitempty"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

type Order struct {
	ID                   string                `json:"id"`
	OrderNumber          string                `json:"order_number"`
	UserID               string                `json:"user_id"`
	Items                []Item                `json:"items"`
	ShippingAddress      ShippingAddress       `json:"shipping_address"`
	PaymentMethod        PaymentMethod         `json:"payment_method"`
	PaymentStatus        PaymentStatus         `json:"payment_status"`
	PaymentIntentID      string                `json:"payment_intent_id,omitempty"`
	PaymentMethodDetails *PaymentMethodDetails `json:"payment_method_details,omitempty"`
	Subtotal             float64               `json:"subtotal"`
	Tax                  float64               `json:"tax"`
	ShippingCost         float64               `json:"shipping_cost"`
	Total                float64               `json:"total"`
	Status               Status                `json:"status"`
	Notes                string                `json:"notes,omitempty"`
	PaidAt               *time.Time            `json:"paid_at,omitempty"`
	CancelledAt          *time.Time            `json:"cancelled_at,omitempty"`
	DeliveredAt          *time.Time            `json:"delivered_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

type ListFilter struct {
	Status Status
	Page   int
	Limit  int
}

type Stats struct {
	TotalOrders      int     `json:"total_orders"`
	PendingOrders    int     `json:"pending_orders"`
	ProcessingOrders int     `json:"processing_orders"`
	ShippedOrders    int     `json:"shipped_orders"`
	DeliveredOrders  int     `json:"delivered_orders"`
	CancelledOrders  int     `json:"cancelled_orders"`
	Revenue          float64 `json:"revenue"`
}
