package cart

// Item is a (product, quantity) pair as stored in the cart.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// DetailedItem is a cart item joined with its current product snapshot for
// display. Orders take their own snapshots at creation time and never read
// these fields back.
type DetailedItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}
