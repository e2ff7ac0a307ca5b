package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/adapter/handler"
	"github.com/rl1809/cardapio/internal/core/cart"
	"github.com/rl1809/cardapio/internal/core/domain"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	uniqueRequests  = 50
	repeatedRequest = 20
)

type results struct {
	created   atomic.Int32
	duplicate atomic.Int32
	closed    atomic.Int32
	failed    atomic.Int32
}

func (r *results) record(status int) {
	switch status {
	case http.StatusCreated:
		r.created.Add(1)
	case http.StatusConflict:
		r.duplicate.Add(1)
	case http.StatusServiceUnavailable:
		r.closed.Add(1)
	default:
		r.failed.Add(1)
	}
}

func main() {
	ctx := context.Background()
	baseURL := os.Getenv("CARDAPIO_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(0)

	var menu []handler.ProductHTTP
	resp, err := client.R().SetContext(ctx).SetResult(&menu).Get("/api/menu")
	if err != nil {
		log.WithError(err).Fatal("Failed to load menu")
	}
	if resp.StatusCode() != http.StatusOK {
		log.WithField("status", resp.StatusCode()).Fatal("Failed to load menu")
	}
	if len(menu) == 0 {
		log.Fatal("Menu is empty, seed at least one active product")
	}

	lines := buildCart(menu[0])

	var res results
	var wg sync.WaitGroup
	start := time.Now()

	// Distinct submissions: every one should be created.
	for i := 0; i < uniqueRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res.record(submit(ctx, client, uuid.NewString(), n, lines))
		}(i)
	}

	// A retry storm of one submission: exactly one should be created.
	retryID := uuid.NewString()
	var retried results
	for i := 0; i < repeatedRequest; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			retried.record(submit(ctx, client, retryID, n, lines))
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Product:          %s (%s)\n", menu[0].Name, menu[0].PriceFmt)
	fmt.Printf("Unique Requests:  %d\n", uniqueRequests)
	fmt.Printf("  Created:        %d\n", res.created.Load())
	fmt.Printf("  Closed:         %d\n", res.closed.Load())
	fmt.Printf("  Failed:         %d\n", res.failed.Load())
	fmt.Printf("Repeated Request: %d\n", repeatedRequest)
	fmt.Printf("  Created:        %d\n", retried.created.Load())
	fmt.Printf("  Duplicate:      %d\n", retried.duplicate.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if res.created.Load() == uniqueRequests {
		fmt.Printf("PASS: all %d distinct orders created\n", uniqueRequests)
	} else {
		fmt.Printf("FAIL: expected %d distinct orders, got %d\n", uniqueRequests, res.created.Load())
	}
	if retried.created.Load() == 1 && retried.duplicate.Load() == repeatedRequest-1 {
		fmt.Println("PASS: repeated request created exactly one order")
	} else {
		fmt.Printf("FAIL: expected 1 created/%d duplicate, got %d/%d\n",
			repeatedRequest-1, retried.created.Load(), retried.duplicate.Load())
	}
}

// buildCart stages the product twice with the same configuration so the
// checkout carries one merged line.
func buildCart(p handler.ProductHTTP) []domain.LineRequest {
	var opts []domain.SelectedOption
	for _, g := range p.OptionGroups {
		if len(g.Options) > 0 {
			o := g.Options[0]
			opts = append(opts, domain.SelectedOption{ID: o.ID, Name: o.Name, AdditionalPrice: o.AdditionalPrice})
		}
	}

	c := cart.New()
	for i := 0; i < 2; i++ {
		if _, err := c.Add(cart.Item{ProductID: p.ID, ProductName: p.Name, UnitPrice: p.Price, Quantity: 1, Options: opts}); err != nil {
			log.WithError(err).Fatal("Failed to build cart")
		}
	}
	log.WithFields(log.Fields{"lines": len(c.Items()), "items": c.ItemCount(), "subtotal": c.Subtotal().StringFixed(2)}).Info("Cart ready")
	return c.LineRequests()
}

func submit(ctx context.Context, client *resty.Client, requestID string, n int, lines []domain.LineRequest) int {
	req := handler.SubmitOrderHTTPRequest{
		RequestID:     requestID,
		OrderType:     string(domain.OrderTypePickup),
		CustomerName:  fmt.Sprintf("Cliente %02d", n),
		CustomerPhone: fmt.Sprintf("119%08d", 10000000+n),
	}
	for _, l := range lines {
		req.Items = append(req.Items, handler.LineHTTPRequest{ProductID: l.ProductID, OptionIDs: l.OptionIDs, Quantity: l.Quantity, Note: l.Note})
	}

	var errBody handler.ErrorResponse
	resp, err := client.R().
		SetContext(ctx).
		SetBody(req).
		SetError(&errBody).
		Post("/api/orders")
	if err != nil {
		log.WithError(err).Warn("Request failed")
		return 0
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusConflict {
		log.WithFields(log.Fields{"status": resp.StatusCode(), "error": errBody.Error, "fields": errBody.Fields}).Warn("Order rejected")
	}
	return resp.StatusCode()
}
