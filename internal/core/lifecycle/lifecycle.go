// Package lifecycle governs how an order moves Recebido -> Em Preparo -> Pronto.
//
// Transitions only go forward. Skipping ahead (Recebido -> Pronto) is allowed;
// staying in place or going back is not.
package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// Initial is the status of every newly created order.
const Initial = domain.OrderStatusReceived

// ParseStatus accepts a status label, ignoring case and surrounding space.
func ParseStatus(s string) (domain.OrderStatus, error) {
	s = strings.TrimSpace(s)
	for _, st := range domain.OrderStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, s)
}

func rank(s domain.OrderStatus) int {
	for i, st := range domain.OrderStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no transition leaves s.
func Terminal(s domain.OrderStatus) bool {
	return s == domain.OrderStatusReady
}

// CanAdvance reports whether moving from -> to is permitted.
func CanAdvance(from, to domain.OrderStatus) error {
	rf, rt := rank(from), rank(to)
	if rt < 0 {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, to)
	}
	if rf < 0 {
		return fmt.Errorf("%w: current status %q", domain.ErrInvalidStatus, from)
	}
	if rt <= rf {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

// Advance returns a copy of o moved to status to, with UpdatedAt set to now.
func Advance(o domain.Order, to domain.OrderStatus, now time.Time) (domain.Order, error) {
	if err := CanAdvance(o.Status, to); err != nil {
		return o, err
	}
	o.Status = to
	o.UpdatedAt = now
	return o, nil
}

// TrackResult is the customer-facing answer to a phone lookup.
type TrackResult struct {
	Orders []domain.Order
}

// Found reports whether any active order matched.
func (r TrackResult) Found() bool { return len(r.Orders) > 0 }

// Single returns the order to route straight to its detail view, if exactly
// one matched.
func (r TrackResult) Single() (domain.Order, bool) {
	if len(r.Orders) == 1 {
		return r.Orders[0], true
	}
	return domain.Order{}, false
}

// Select picks one order out of a disambiguation list.
func (r TrackResult) Select(id string) (domain.Order, bool) {
	for _, o := range r.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// Track keeps only active orders, newest first.
func Track(orders []domain.Order) TrackResult {
	active := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !Terminal(o.Status) {
			active = append(active, o)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return TrackResult{Orders: active}
}
