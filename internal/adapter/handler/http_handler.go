package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/lifecycle"
	"github.com/rl1809/cardapio/internal/core/service"
	"github.com/rl1809/cardapio/internal/telemetry"
)

// OrderAPI is the order surface the transports expose. *service.OrderService satisfies it.
type OrderAPI interface {
	SubmitOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error)
	TrackOrders(ctx context.Context, phone string) (lifecycle.TrackResult, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	AdvanceOrderStatus(ctx context.Context, caller domain.Identity, id, status string) (domain.Order, error)
	ListOrders(ctx context.Context, caller domain.Identity, f domain.OrderFilter) ([]domain.Order, error)
	AcceptingOrders() bool
	SetAcceptingOrders(caller domain.Identity, open bool) error
}

type ReportAPI interface {
	GetMetrics(ctx context.Context, caller domain.Identity, p domain.Period) (domain.MetricsSummary, error)
	GetTopProducts(ctx context.Context, caller domain.Identity, p domain.Period, limit int) ([]domain.TopProduct, error)
	SearchCustomers(ctx context.Context, caller domain.Identity, term string, limit int) ([]domain.CustomerSummary, error)
}

type CatalogAPI interface {
	ListMenu(ctx context.Context) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	SaveCategory(ctx context.Context, caller domain.Identity, c domain.Category) (domain.Category, error)
	SaveProduct(ctx context.Context, caller domain.Identity, p domain.Product) (domain.Product, error)
	SetProductStatus(ctx context.Context, caller domain.Identity, id string, status domain.ProductStatus) error
	SaveCoupon(ctx context.Context, caller domain.Identity, c domain.Coupon) (domain.Coupon, error)
}

var (
	_ OrderAPI   = (*service.OrderService)(nil)
	_ ReportAPI  = (*service.ReportService)(nil)
	_ CatalogAPI = (*service.CatalogService)(nil)
)

type HTTPHandler struct {
	orders  OrderAPI
	reports ReportAPI
	catalog CatalogAPI
	auth    *Authenticator
}

func NewHTTPHandler(orders OrderAPI, reports ReportAPI, catalog CatalogAPI, auth *Authenticator) *HTTPHandler {
	return &HTTPHandler{orders: orders, reports: reports, catalog: catalog, auth: auth}
}

// Router builds the gin engine with every public and admin route.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), telemetry.PrometheusMiddleware())

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", h.auth.Middleware())
	api.GET("/menu", h.ListMenu)
	api.GET("/categories", h.ListCategories)
	api.GET("/store", h.StoreStatus)
	api.POST("/orders", h.SubmitOrder)
	api.GET("/orders/:id", h.GetOrder)
	api.GET("/track", h.TrackOrders)

	admin := api.Group("/admin")
	admin.GET("/orders", h.ListOrders)
	admin.PATCH("/orders/:id/status", h.AdvanceOrderStatus)
	admin.GET("/metrics", h.GetMetrics)
	admin.GET("/top-products", h.GetTopProducts)
	admin.GET("/customers", h.SearchCustomers)
	admin.POST("/products", h.SaveProduct)
	admin.PUT("/products/:id", h.SaveProduct)
	admin.PATCH("/products/:id/status", h.SetProductStatus)
	admin.POST("/categories", h.SaveCategory)
	admin.PUT("/categories/:id", h.SaveCategory)
	admin.PUT("/coupons/:code", h.SaveCoupon)
	admin.PUT("/store/accepting", h.SetAcceptingOrders)

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) StoreStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accepting_orders": h.orders.AcceptingOrders()})
}

func (h *HTTPHandler) SubmitOrder(c *gin.Context) {
	var req SubmitOrderHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	order, err := h.orders.SubmitOrder(c.Request.Context(), req.toInput())
	if err != nil {
		writeError(c, "submit order", err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "get order", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// TrackOrders answers a phone lookup. With order_id set it resolves the
// customer's pick from a previous multi-order answer.
func (h *HTTPHandler) TrackOrders(c *gin.Context) {
	result, err := h.orders.TrackOrders(c.Request.Context(), c.Query("phone"))
	if err != nil {
		writeError(c, "track orders", err)
		return
	}

	if id := c.Query("order_id"); id != "" {
		order, ok := result.Select(id)
		if !ok {
			writeError(c, "track orders", domain.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, TrackResponse{Next: "detail", Orders: []OrderResponse{toOrderResponse(order)}})
		return
	}

	if order, ok := result.Single(); ok {
		c.JSON(http.StatusOK, TrackResponse{Next: "detail", Orders: []OrderResponse{toOrderResponse(order)}})
		return
	}
	c.JSON(http.StatusOK, TrackResponse{Next: "select", Orders: toOrderResponses(result.Orders)})
}

func (h *HTTPHandler) ListOrders(c *gin.Context) {
	f, fields := orderFilter(c)
	if len(fields) > 0 {
		writeError(c, "list orders", &domain.ValidationError{Fields: fields})
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), caller(c), f)
	if err != nil {
		writeError(c, "list orders", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

func orderFilter(c *gin.Context) (domain.OrderFilter, domain.FieldErrors) {
	f := domain.OrderFilter{OrderType: domain.OrderType(c.Query("order_type"))}
	fields := domain.FieldErrors{}

	if s := c.Query("status"); s != "" {
		st, err := lifecycle.ParseStatus(s)
		if err != nil {
			fields.Add("status", "status desconhecido")
		}
		f.Status = st
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		s := c.Query(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			fields.Add(name, "data inválida, use RFC3339")
			continue
		}
		*dst = &t
	}
	f.Limit = queryInt(c, "limit", fields)
	return f, fields
}

func (h *HTTPHandler) AdvanceOrderStatus(c *gin.Context) {
	var req StatusHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	order, err := h.orders.AdvanceOrderStatus(c.Request.Context(), caller(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, "advance order status", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) SetAcceptingOrders(c *gin.Context) {
	var req AcceptingHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.orders.SetAcceptingOrders(caller(c), req.Accepting); err != nil {
		writeError(c, "set accepting orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepting_orders": h.orders.AcceptingOrders()})
}

func (h *HTTPHandler) GetMetrics(c *gin.Context) {
	summary, err := h.reports.GetMetrics(c.Request.Context(), caller(c), period(c))
	if err != nil {
		writeError(c, "get metrics", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *HTTPHandler) GetTopProducts(c *gin.Context) {
	fields := domain.FieldErrors{}
	limit := queryInt(c, "limit", fields)
	if !fields.Empty() {
		writeError(c, "top products", &domain.ValidationError{Fields: fields})
		return
	}

	top, err := h.reports.GetTopProducts(c.Request.Context(), caller(c), period(c), limit)
	if err != nil {
		writeError(c, "top products", err)
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *HTTPHandler) SearchCustomers(c *gin.Context) {
	fields := domain.FieldErrors{}
	limit := queryInt(c, "limit", fields)
	if !fields.Empty() {
		writeError(c, "search customers", &domain.ValidationError{Fields: fields})
		return
	}

	customers, err := h.reports.SearchCustomers(c.Request.Context(), caller(c), c.Query("q"), limit)
	if err != nil {
		writeError(c, "search customers", err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *HTTPHandler) ListMenu(c *gin.Context) {
	menu, err := h.catalog.ListMenu(c.Request.Context())
	if err != nil {
		writeError(c, "list menu", err)
		return
	}
	out := make([]ProductHTTP, 0, len(menu))
	for _, p := range menu {
		out = append(out, toProductHTTP(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) ListCategories(c *gin.Context) {
	cats, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, "list categories", err)
		return
	}
	out := make([]CategoryHTTP, 0, len(cats))
	for _, cat := range cats {
		out = append(out, CategoryHTTP(cat))
	}
	c.JSON(http.StatusOK, out)
}

// SaveProduct serves both create (POST) and update (PUT /:id).
func (h *HTTPHandler) SaveProduct(c *gin.Context) {
	var req ProductHTTP
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	p := req.toDomain()
	p.ID = c.Param("id")

	saved, err := h.catalog.SaveProduct(c.Request.Context(), caller(c), p)
	if err != nil {
		writeError(c, "save product", err)
		return
	}
	status := http.StatusOK
	if p.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, toProductHTTP(saved))
}

func (h *HTTPHandler) SetProductStatus(c *gin.Context) {
	var req StatusHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	err := h.catalog.SetProductStatus(c.Request.Context(), caller(c), c.Param("id"), domain.ProductStatus(req.Status))
	if err != nil {
		writeError(c, "set product status", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) SaveCategory(c *gin.Context) {
	var req CategoryHTTP
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	req.ID = c.Param("id")

	saved, err := h.catalog.SaveCategory(c.Request.Context(), caller(c), domain.Category(req))
	if err != nil {
		writeError(c, "save category", err)
		return
	}
	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, CategoryHTTP(saved))
}

func (h *HTTPHandler) SaveCoupon(c *gin.Context) {
	var req CouponHTTP
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	req.Code = c.Param("code")

	saved, err := h.catalog.SaveCoupon(c.Request.Context(), caller(c), req.toDomain())
	if err != nil {
		writeError(c, "save coupon", err)
		return
	}
	c.JSON(http.StatusOK, toCouponHTTP(saved))
}

func period(c *gin.Context) domain.Period {
	return domain.Period(strings.ToLower(c.DefaultQuery("period", string(domain.PeriodToday))))
}

func queryInt(c *gin.Context, name string, fields domain.FieldErrors) int {
	s := c.Query(name)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		fields.Add(name, "deve ser um número inteiro")
	}
	return n
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "corpo da requisição inválido"})
}

func writeError(c *gin.Context, op string, err error) {
	status, body := httpError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("op", op).Warn("request failed")
	}
	c.JSON(status, body)
}
