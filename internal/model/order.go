package model

// OrderItem is one cart line frozen at checkout time.  Price is the unit
// price the product had when the order was placed.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

// Order is a placed purchase.  CreatedAt is epoch milliseconds.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId,omitempty"`
	CreatedAt int64       `json:"createdAt"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
}

// Mail is an outgoing message as kept in the outbox.
type Mail struct {
	ID        string `json:"id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"`
}
