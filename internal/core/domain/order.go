package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypePickup OrderType = "Retirada"
	OrderTypeDineIn OrderType = "Consumo no Local"
)

func (t OrderType) Valid() bool {
	return t == OrderTypePickup || t == OrderTypeDineIn
}

type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "Recebido"
	OrderStatusPreparing OrderStatus = "Em Preparo"
	OrderStatusReady     OrderStatus = "Pronto"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderStatusReceived, OrderStatusPreparing, OrderStatusReady}

type Order struct {
	ID            string
	OrderType     OrderType
	CustomerName  string
	CustomerPhone string // digits only
	TableNumber   *int
	Status        OrderStatus
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	CouponCode    string
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is the price-at-order-time snapshot of one line.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Options     []SelectedOption
	Note        string
	LineTotal   decimal.Decimal
}

type SelectedOption struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// OrderInput is what a customer submits at checkout.
type OrderInput struct {
	RequestID     string
	OrderType     OrderType
	CustomerName  string
	CustomerPhone string
	TableNumber   *int
	CouponCode    string
	Items         []LineRequest
}

// LineRequest references catalog entries; prices are always resolved server side.
type LineRequest struct {
	ProductID string
	OptionIDs []string
	Quantity  int
	Note      string
}

type OrderFilter struct {
	Status    OrderStatus
	OrderType OrderType
	From      *time.Time
	To        *time.Time
	Limit     int
}

const (
	DefaultOrderListLimit = 50
	MaxOrderListLimit     = 100
)

// Active reports whether the order still awaits pickup or serving.
func (o Order) Active() bool {
	return o.Status != OrderStatusReady
}
