package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrTimeout           = errors.New("store timeout")
	ErrUnavailable       = errors.New("store unavailable")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("not authorized")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrInvalidStatus     = errors.New("unrecognized order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrStoreClosed       = errors.New("store is not accepting orders")
)

// Retryable reports whether the caller should be offered a retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}

// FieldErrors maps an input field to a user-facing message.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Merge copies entries not already present.
func (f FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		f.Add(k, v)
	}
}

func (f FieldErrors) Empty() bool { return len(f) == 0 }

type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type CouponErrorKind string

const (
	CouponNotFound   CouponErrorKind = "not_found"
	CouponIneligible CouponErrorKind = "ineligible"
)

type CouponError struct {
	Kind   CouponErrorKind
	Reason string
}

func (e *CouponError) Error() string {
	if e.Reason == "" {
		return "coupon " + string(e.Kind)
	}
	return fmt.Sprintf("coupon %s: %s", e.Kind, e.Reason)
}

// PersistenceError carries enough context to diagnose a store failure.
// Its message is never shown to customers.
type PersistenceError struct {
	Op  string
	ID  string
	At  time.Time
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
