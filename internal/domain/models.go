package domain

import "time"

// Drink позиция каталога напитков бара
type Drink struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Recipe      string    `json:"recipe"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// OrderItem позиция в заказе. Name и Description подтягиваются из каталога
// при чтении; для удалённого напитка остаются пустыми
type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"orderId"`
	DrinkID     int64  `json:"drinkId"`
	Quantity    int64  `json:"quantity"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Order сущность заказа: создаётся в статусе pending, единственный переход —
// pending → completed
type Order struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"customerName"`
	Status       OrderStatus `json:"status"`
	Items        []OrderItem `json:"items,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
