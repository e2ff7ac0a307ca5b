// Package metrics derives operational reporting from order history. All
// functions are pure; callers supply orders and the reporting window.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// Window is a closed interval [From, To] on CreatedAt.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// WindowFor resolves a period at now. "today" starts at local midnight in loc;
// "last7days" is the trailing 7*24h ending at now.
func WindowFor(p domain.Period, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch p {
	case domain.PeriodToday:
		local := now.In(loc)
		start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		return Window{From: start, To: now}, nil
	case domain.PeriodLast7Days:
		return Window{From: now.Add(-7 * 24 * time.Hour), To: now}, nil
	default:
		return Window{}, fmt.Errorf("unknown period %q", p)
	}
}

// Summarize counts orders and revenue inside w. The per-day average divides by
// the fixed period length, not by elapsed days.
func Summarize(p domain.Period, orders []domain.Order, w Window) domain.MetricsSummary {
	count := 0
	revenue := decimal.Zero
	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		count++
		revenue = revenue.Add(o.Total)
	}

	avg := decimal.NewFromInt(int64(count)).
		DivRound(decimal.NewFromInt(int64(p.Days())), 2)

	return domain.MetricsSummary{
		Period:              p,
		TotalOrders:         count,
		TotalRevenue:        domain.RoundCurrency(revenue),
		AverageOrdersPerDay: avg,
	}
}

// ClampLimit bounds a requested list size.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// TopProducts ranks products sold inside w by quantity, then revenue, then
// product id, and returns at most limit entries with 1-based positions.
func TopProducts(orders []domain.Order, w Window, limit int) []domain.TopProduct {
	limit = ClampLimit(limit, domain.DefaultTopProductsLimit, domain.MaxTopProductsLimit)

	byID := map[string]*domain.TopProduct{}
	lastSeen := map[string]time.Time{}
	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		for _, it := range o.Items {
			tp, ok := byID[it.ProductID]
			if !ok {
				tp = &domain.TopProduct{ProductID: it.ProductID, Revenue: decimal.Zero}
				byID[it.ProductID] = tp
			}
			tp.Quantity += it.Quantity
			tp.Revenue = tp.Revenue.Add(it.LineTotal)
			// the most recent snapshot names the product
			if o.CreatedAt.After(lastSeen[it.ProductID]) || tp.ProductName == "" {
				tp.ProductName = it.ProductName
				lastSeen[it.ProductID] = o.CreatedAt
			}
		}
	}

	ranked := make([]domain.TopProduct, 0, len(byID))
	for _, tp := range byID {
		ranked = append(ranked, *tp)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.ProductID < b.ProductID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Position = i + 1
		ranked[i].Revenue = domain.RoundCurrency(ranked[i].Revenue)
	}
	return ranked
}

// Customers aggregates orders per phone number, most recent customer first.
// An empty term matches everyone. A term matches a customer by name
// (case-insensitive substring) or, when it contains digits, by phone.
func Customers(orders []domain.Order, term string, limit int) []domain.CustomerSummary {
	limit = ClampLimit(limit, domain.DefaultCustomerLimit, domain.MaxCustomerLimit)
	term = strings.TrimSpace(term)

	byPhone := map[string]*domain.CustomerSummary{}
	for _, o := range orders {
		phone := domain.NormalizePhone(o.CustomerPhone)
		cs, ok := byPhone[phone]
		if !ok {
			cs = &domain.CustomerSummary{Phone: phone, TotalSpent: decimal.Zero}
			byPhone[phone] = cs
		}
		cs.TotalOrders++
		cs.TotalSpent = cs.TotalSpent.Add(o.Total)
		if cs.Name == "" || o.CreatedAt.After(cs.LastOrderAt) {
			cs.Name = o.CustomerName
			cs.LastOrderAt = o.CreatedAt
			cs.LastOrderStatus = o.Status
		}
	}

	out := make([]domain.CustomerSummary, 0, len(byPhone))
	for _, cs := range byPhone {
		if matches(*cs, term) {
			out = append(out, *cs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastOrderAt.Equal(out[j].LastOrderAt) {
			return out[i].LastOrderAt.After(out[j].LastOrderAt)
		}
		return out[i].Phone < out[j].Phone
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matches(cs domain.CustomerSummary, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(cs.Name), strings.ToLower(term)) {
		return true
	}
	digits := domain.NormalizePhone(term)
	return digits != "" && strings.Contains(cs.Phone, digits)
}
