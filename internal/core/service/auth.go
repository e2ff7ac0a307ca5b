package service

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// authorize admits admins only and logs every rejection.
func authorize(op string, caller domain.Identity) error {
	err := domain.RequireAdmin(caller)
	if err == nil {
		return nil
	}

	reason := "forbidden"
	if errors.Is(err, domain.ErrUnauthenticated) {
		reason = "unauthenticated"
	}
	log.WithFields(log.Fields{
		"op":      op,
		"user_id": caller.UserID,
		"reason":  reason,
	}).Warn("Authorization rejected")
	return err
}

// logStoreError records store failures with the context needed to diagnose
// them. Timeouts and outages are logged without the full error chain.
func logStoreError(op string, err error) {
	var pe *domain.PersistenceError
	switch {
	case errors.As(err, &pe):
		log.WithFields(log.Fields{
			"op":     pe.Op,
			"id":     pe.ID,
			"at":     pe.At,
			"caller": op,
		}).WithError(pe.Err).Error("Persistence failure")
	case domain.Retryable(err):
		log.WithField("op", op).WithError(err).Warn("Store did not answer")
	}
}
