package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodToday     Period = "today"
	PeriodLast7Days Period = "last7days"
)

func (p Period) Valid() bool {
	return p == PeriodToday || p == PeriodLast7Days
}

// Days is the fixed divisor used for per-day averages.
func (p Period) Days() int {
	if p == PeriodLast7Days {
		return 7
	}
	return 1
}

type MetricsSummary struct {
	Period              Period          `json:"period"`
	TotalOrders         int             `json:"total_orders"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	AverageOrdersPerDay decimal.Decimal `json:"average_orders_per_day"`
}

type TopProduct struct {
	Position    int             `json:"position"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type CustomerSummary struct {
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	TotalOrders     int             `json:"total_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	LastOrderAt     time.Time       `json:"last_order_at"`
	LastOrderStatus OrderStatus     `json:"last_order_status"`
}

const (
	DefaultTopProductsLimit = 10
	MaxTopProductsLimit     = 50
	DefaultCustomerLimit    = 20
	MaxCustomerLimit        = 50
)
