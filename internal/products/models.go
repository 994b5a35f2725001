package products

import "time"

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusOutOfStock = "out-of-stock"
)

// Categories the catalog accepts.
var Categories = []string{
	"CPU", "GPU", "Motherboard", "RAM", "Storage",
	"PSU", "Case", "Cooling", "Peripherals", "Accessories",
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Images      []string  `json:"images"`
	Featured    bool      `json:"featured"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FirstImage returns the snapshot image used on order line items.
func (p Product) FirstImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// StatusForQuantity derives the stock-dependent status: out-of-stock exactly
// when quantity is zero, flipping back to active once stock returns. An
// explicit inactive status survives restocking.
func StatusForQuantity(quantity int, current string) string {
	if quantity == 0 {
		return StatusOutOfStock
	}
	if current == StatusOutOfStock {
		return StatusActive
	}
	return current
}

type NewProduct struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Brand       string   `json:"brand" validate:"required"`
	Price       float64  `json:"price" validate:"min=0"`
	Quantity    int      `json:"quantity" validate:"min=0"`
	Images      []string `json:"images"`
	Featured    bool     `json:"featured"`
}

// ListFilter narrows List results; zero values mean "no filter".
type ListFilter struct {
	Search   string
	Category string
	Brand    string
	Status   string
	MinPrice float64
	MaxPrice float64
	Page     int
	Limit    int
}
