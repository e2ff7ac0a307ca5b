package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// MySQL server errors that mean "the store did not answer in time".
const (
	erLockWaitTimeout  = 1205
	erQueryTimeout     = 3024
	erQueryInterrupted = 1317
)

// storeError turns driver errors into the domain taxonomy. Not-found,
// coupon and timeout errors pass through typed; everything else becomes a
// PersistenceError carrying op and id.
func storeError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrTimeout) || errors.Is(err, context.Canceled) {
		return err
	}
	var ce *domain.CouponError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erLockWaitTimeout, erQueryTimeout, erQueryInterrupted:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrTimeout, me)
		}
	}
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.PersistenceError{Op: op, ID: id, At: time.Now().UTC(), Err: err}
}

// mappingError reports a row that could not be turned into an entity.
func mappingError(op, id string, err error) error {
	return &domain.PersistenceError{Op: op, ID: id, At: time.Now().UTC(), Err: fmt.Errorf("map row: %w", err)}
}
