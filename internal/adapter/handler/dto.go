package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
)

type LineHTTPRequest struct {
	ProductID string   `json:"product_id"`
	OptionIDs []string `json:"option_ids"`
	Quantity  int      `json:"quantity"`
	Note      string   `json:"note"`
}

type SubmitOrderHTTPRequest struct {
	RequestID     string            `json:"request_id"`
	OrderType     string            `json:"order_type"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	TableNumber   *int              `json:"table_number"`
	CouponCode    string            `json:"coupon_code"`
	Items         []LineHTTPRequest `json:"items"`
}

func (r SubmitOrderHTTPRequest) toInput() domain.OrderInput {
	in := domain.OrderInput{
		RequestID:     r.RequestID,
		OrderType:     domain.OrderType(r.OrderType),
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		TableNumber:   r.TableNumber,
		CouponCode:    r.CouponCode,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, domain.LineRequest{
			ProductID: it.ProductID,
			OptionIDs: it.OptionIDs,
			Quantity:  it.Quantity,
			Note:      it.Note,
		})
	}
	return in
}

type OptionResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AdditionalPrice string `json:"additional_price"`
}

type OrderItemResponse struct {
	ID           string           `json:"id"`
	ProductID    string           `json:"product_id"`
	ProductName  string           `json:"product_name"`
	UnitPrice    string           `json:"unit_price"`
	Quantity     int              `json:"quantity"`
	Options      []OptionResponse `json:"options"`
	Note         string           `json:"note,omitempty"`
	LineTotal    string           `json:"line_total"`
	LineTotalFmt string           `json:"line_total_display"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderType     domain.OrderType    `json:"order_type"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	TableNumber   *int                `json:"table_number"`
	Status        domain.OrderStatus  `json:"status"`
	Subtotal      string              `json:"subtotal"`
	Discount      string              `json:"discount"`
	Total         string              `json:"total"`
	TotalFmt      string              `json:"total_display"`
	CouponCode    string              `json:"coupon_code,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func toOrderResponse(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		OrderType:     o.OrderType,
		CustomerName:  o.CustomerName,
		CustomerPhone: domain.FormatPhone(o.CustomerPhone),
		TableNumber:   o.TableNumber,
		Status:        o.Status,
		Subtotal:      money(o.Subtotal),
		Discount:      money(o.Discount),
		Total:         money(o.Total),
		TotalFmt:      domain.FormatPrice(o.Total),
		CouponCode:    o.CouponCode,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			UnitPrice:    money(it.UnitPrice),
			Quantity:     it.Quantity,
			Options:      make([]OptionResponse, 0, len(it.Options)),
			Note:         it.Note,
			LineTotal:    money(it.LineTotal),
			LineTotalFmt: domain.FormatPrice(it.LineTotal),
		}
		for _, opt := range it.Options {
			item.Options = append(item.Options, OptionResponse{ID: opt.ID, Name: opt.Name, AdditionalPrice: money(opt.AdditionalPrice)})
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

// TrackResponse tells the client whether to open the order directly or let
// the customer pick one.
type TrackResponse struct {
	Next   string          `json:"next"` // "detail" or "select"
	Orders []OrderResponse `json:"orders"`
}

type StatusHTTPRequest struct {
	Status string `json:"status"`
}

type AcceptingHTTPRequest struct {
	Accepting bool `json:"accepting"`
}

type OptionHTTP struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

type OptionGroupHTTP struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	SelectionType string       `json:"selection_type"`
	Options       []OptionHTTP `json:"options"`
}

type ProductHTTP struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Price        decimal.Decimal   `json:"price"`
	PriceFmt     string            `json:"price_display,omitempty"`
	CategoryID   string            `json:"category_id"`
	Status       string            `json:"status"`
	DisplayOrder int               `json:"display_order"`
	Description  string            `json:"description,omitempty"`
	PhotoURL     string            `json:"photo_url,omitempty"`
	OptionGroups []OptionGroupHTTP `json:"option_groups"`
}

func (p ProductHTTP) toDomain() domain.Product {
	out := domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		CategoryID:   p.CategoryID,
		Status:       domain.ProductStatus(p.Status),
		DisplayOrder: p.DisplayOrder,
		Description:  p.Description,
		PhotoURL:     p.PhotoURL,
	}
	for _, g := range p.OptionGroups {
		group := domain.OptionGroup{ID: g.ID, Name: g.Name, SelectionType: domain.SelectionType(g.SelectionType)}
		for _, o := range g.Options {
			group.Options = append(group.Options, domain.Option{ID: o.ID, GroupID: g.ID, Name: o.Name, AdditionalPrice: o.AdditionalPrice})
		}
		out.OptionGroups = append(out.OptionGroups, group)
	}
	return out
}

func toProductHTTP(p domain.Product) ProductHTTP {
	out := ProductHTTP{
		ID:           p.ID,
		Name:         p.Name,
		Price:        domain.RoundCurrency(p.Price),
		PriceFmt:     domain.FormatPrice(p.Price),
		CategoryID:   p.CategoryID,
		Status:       string(p.Status),
		DisplayOrder: p.DisplayOrder,
		Description:  p.Description,
		PhotoURL:     p.PhotoURL,
		OptionGroups: make([]OptionGroupHTTP, 0, len(p.OptionGroups)),
	}
	for _, g := range p.OptionGroups {
		group := OptionGroupHTTP{ID: g.ID, Name: g.Name, SelectionType: string(g.SelectionType), Options: make([]OptionHTTP, 0, len(g.Options))}
		for _, o := range g.Options {
			group.Options = append(group.Options, OptionHTTP{ID: o.ID, Name: o.Name, AdditionalPrice: o.AdditionalPrice})
		}
		out.OptionGroups = append(out.OptionGroups, group)
	}
	return out
}

type CategoryHTTP struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

type CouponHTTP struct {
	Code        string          `json:"code"`
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	ValidFrom   *time.Time      `json:"valid_from"`
	ValidUntil  *time.Time      `json:"valid_until"`
	UsageLimit  int             `json:"usage_limit"`
	UsageCount  int             `json:"usage_count"`
	Active      *bool           `json:"active"`
}

func (c CouponHTTP) toDomain() domain.Coupon {
	active := true
	if c.Active != nil {
		active = *c.Active
	}
	return domain.Coupon{
		Code:        c.Code,
		Kind:        domain.DiscountKind(c.Kind),
		Value:       c.Value,
		MinSubtotal: c.MinSubtotal,
		ValidFrom:   c.ValidFrom,
		ValidUntil:  c.ValidUntil,
		UsageLimit:  c.UsageLimit,
		Active:      active,
	}
}

func toCouponHTTP(c domain.Coupon) CouponHTTP {
	active := c.Active
	return CouponHTTP{
		Code:        c.Code,
		Kind:        string(c.Kind),
		Value:       c.Value,
		MinSubtotal: c.MinSubtotal,
		ValidFrom:   c.ValidFrom,
		ValidUntil:  c.ValidUntil,
		UsageLimit:  c.UsageLimit,
		UsageCount:  c.UsageCount,
		Active:      &active,
	}
}
