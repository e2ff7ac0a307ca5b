// Package cart holds a customer's in-progress selection before checkout.
//
// Lines with the same product, the same set of options (in any order) and the
// same trimmed note are merged by adding quantities, both on Add and when an
// Update makes two lines identical. A Cart is not safe for concurrent use.
package cart

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/pricing"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type Item struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Options     []domain.SelectedOption
	Note        string
	TotalPrice  decimal.Decimal
}

// Changes is a partial update; nil fields are left untouched.
type Changes struct {
	Quantity *int
	Options  *[]domain.SelectedOption
	Note     *string
}

type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

// Add stages a configured product and returns the resulting line, which may
// be an existing line with an increased quantity.
func (c *Cart) Add(item Item) (Item, error) {
	if item.Quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}
	item.Note = strings.TrimSpace(item.Note)
	item.Options = append([]domain.SelectedOption(nil), item.Options...)

	if i := c.indexOfKey(key(item), ""); i >= 0 {
		c.items[i].Quantity += item.Quantity
		reprice(&c.items[i])
		return c.items[i], nil
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	reprice(&item)
	c.items = append(c.items, item)
	return item, nil
}

// Update applies changes to a line and reprices it.
func (c *Cart) Update(id string, ch Changes) (Item, error) {
	i := c.indexOf(id)
	if i < 0 {
		return Item{}, ErrLineNotFound
	}
	if ch.Quantity != nil && *ch.Quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}

	line := c.items[i]
	if ch.Quantity != nil {
		line.Quantity = *ch.Quantity
	}
	if ch.Options != nil {
		line.Options = append([]domain.SelectedOption(nil), (*ch.Options)...)
	}
	if ch.Note != nil {
		line.Note = strings.TrimSpace(*ch.Note)
	}
	reprice(&line)

	if j := c.indexOfKey(key(line), line.ID); j >= 0 {
		c.items[j].Quantity += line.Quantity
		reprice(&c.items[j])
		merged := c.items[j]
		c.items = append(c.items[:i], c.items[i+1:]...)
		return merged, nil
	}

	c.items[i] = line
	return line, nil
}

func (c *Cart) Remove(id string) error {
	i := c.indexOf(id)
	if i < 0 {
		return ErrLineNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// Items returns a copy of the current lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Subtotal is the unrounded sum of line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	lines := make([]decimal.Decimal, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, it.TotalPrice)
	}
	return pricing.Subtotal(lines)
}

// ItemCount is the number of units, not the number of lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool { return len(c.items) == 0 }

// Clear empties the cart. Call it after a successful submission.
func (c *Cart) Clear() {
	c.items = nil
}

// LineRequests converts the cart into checkout input.
func (c *Cart) LineRequests() []domain.LineRequest {
	out := make([]domain.LineRequest, 0, len(c.items))
	for _, it := range c.items {
		ids := make([]string, 0, len(it.Options))
		for _, o := range it.Options {
			ids = append(ids, o.ID)
		}
		out = append(out, domain.LineRequest{
			ProductID: it.ProductID,
			OptionIDs: ids,
			Quantity:  it.Quantity,
			Note:      it.Note,
		})
	}
	return out
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) indexOfKey(k, skipID string) int {
	for i := range c.items {
		if c.items[i].ID != skipID && key(c.items[i]) == k {
			return i
		}
	}
	return -1
}

func reprice(it *Item) {
	it.TotalPrice = pricing.LineTotal(it.UnitPrice, it.Options, it.Quantity)
}

func key(it Item) string {
	ids := make([]string, 0, len(it.Options))
	for _, o := range it.Options {
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)
	return it.ProductID + "|" + strings.Join(ids, ",") + "|" + strings.TrimSpace(it.Note)
}
