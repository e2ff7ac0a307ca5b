package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/metrics"
	"github.com/rl1809/cardapio/internal/port"
)

// ReportService serves back-office reporting. Figures may lag recent writes by
// up to the cache TTL.
type ReportService struct {
	db       port.OrderRepository
	cache    port.CacheRepository
	loc      *time.Location
	cacheTTL time.Duration
	now      func() time.Time
}

func NewReportService(db port.OrderRepository, cache port.CacheRepository, loc *time.Location, cacheTTL time.Duration) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		db:       db,
		cache:    cache,
		loc:      loc,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *ReportService) window(p domain.Period) (metrics.Window, error) {
	if !p.Valid() {
		return metrics.Window{}, &domain.ValidationError{Fields: domain.FieldErrors{
			"period": "use today ou last7days",
		}}
	}
	return metrics.WindowFor(p, s.now(), s.loc)
}

func (s *ReportService) GetMetrics(ctx context.Context, caller domain.Identity, p domain.Period) (domain.MetricsSummary, error) {
	if err := authorize("get metrics", caller); err != nil {
		return domain.MetricsSummary{}, err
	}
	w, err := s.window(p)
	if err != nil {
		return domain.MetricsSummary{}, err
	}

	key := string(p) + ":" + w.From.In(s.loc).Format("2006-01-02")
	if cached, err := s.cache.GetMetrics(ctx, key); err != nil {
		log.WithError(err).WithField("key", key).Warn("Metrics cache read failed")
	} else if cached != nil {
		return *cached, nil
	}

	orders, err := s.db.ListOrdersCreatedBetween(ctx, w.From, w.To)
	if err != nil {
		logStoreError("get metrics", err)
		return domain.MetricsSummary{}, err
	}
	summary := metrics.Summarize(p, orders, w)

	if err := s.cache.SetMetrics(ctx, key, summary, s.cacheTTL); err != nil {
		log.WithError(err).WithField("key", key).Warn("Metrics cache write failed")
	}
	return summary, nil
}

func (s *ReportService) GetTopProducts(ctx context.Context, caller domain.Identity, p domain.Period, limit int) ([]domain.TopProduct, error) {
	if err := authorize("get top products", caller); err != nil {
		return nil, err
	}
	w, err := s.window(p)
	if err != nil {
		return nil, err
	}

	orders, err := s.db.ListOrdersCreatedBetween(ctx, w.From, w.To)
	if err != nil {
		logStoreError("get top products", err)
		return nil, err
	}
	return metrics.TopProducts(orders, w, limit), nil
}

// SearchCustomers lists customers matching term by name or phone, most recent
// first. An empty term lists the most recent customers.
func (s *ReportService) SearchCustomers(ctx context.Context, caller domain.Identity, term string, limit int) ([]domain.CustomerSummary, error) {
	if err := authorize("search customers", caller); err != nil {
		return nil, err
	}
	limit = metrics.ClampLimit(limit, domain.DefaultCustomerLimit, domain.MaxCustomerLimit)

	orders, err := s.db.ListOrdersOfRecentCustomers(ctx, term, limit)
	if err != nil {
		logStoreError("search customers", err)
		return nil, err
	}
	// the store already selected matching customers
	return metrics.Customers(orders, "", limit), nil
}
