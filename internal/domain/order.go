package domain

import "time"

// Order is written once at checkout and never mutated by the storefront
// afterwards; status transitions belong to the back office.
type Order struct {
	OrderUID      string      `json:"order_uid"`
	UserID        string      `json:"user_id,omitempty"`
	CustomerName  string      `json:"customer_name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	Zip           string      `json:"zip"`
	Region        string      `json:"region"`
	Payment       Payment     `json:"payment"`
	Items         []OrderItem `json:"items"`
	DeliveryCost  float64     `json:"delivery_cost"`
	Total         float64     `json:"total"`
	Status        string      `json:"status"`
	DateCreated   time.Time   `json:"date_created"`
}

// OrderItem captures unit price at purchase time, not a live product reference.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Payment struct {
	Method      string `json:"method"`
	Description string `json:"description,omitempty"`
	BkashNumber string `json:"bkash_number,omitempty"`
	TrxID       string `json:"trx_id,omitempty"`
}

const (
	PaymentCOD   = "cod"
	PaymentBkash = "bkash"

	StatusPending = "pending"
)

func (o *Order) ItemsTotal() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
