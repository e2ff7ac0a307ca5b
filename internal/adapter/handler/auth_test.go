package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/cardapio/internal/core/domain"
)

func TestIdentify(t *testing.T) {
	a := newTestAuth()
	ctx := context.Background()

	id, err := a.Identify(ctx, "")
	require.NoError(t, err)
	assert.False(t, id.Authenticated())

	id, err = a.Identify(ctx, "Bearer "+adminToken)
	require.NoError(t, err)
	assert.Equal(t, "u-admin", id.UserID)
	assert.Equal(t, "dono@cardapio.com", id.Email)
	assert.Equal(t, domain.RoleAdmin, id.Role)

	id, err = a.Identify(ctx, "Bearer "+customerToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, id.Role)
	assert.ErrorIs(t, domain.RequireAdmin(id), domain.ErrForbidden)

	for _, header := range []string{"Bearer ", "Bearer stale", "Token " + adminToken} {
		_, err = a.Identify(ctx, header)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, header)
	}
}

func TestIdentify_NoVerifier(t *testing.T) {
	a := NewAuthenticator(nil, "admin")

	id, err := a.Identify(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, id.Authenticated())

	_, err = a.Identify(context.Background(), "Bearer "+adminToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&domain.ValidationError{Fields: domain.FieldErrors{"items": "carrinho vazio"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("advance: %w", domain.ErrInvalidStatus), http.StatusUnprocessableEntity},
		{fmt.Errorf("get order: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, body := httpError(tt.err)
		assert.Equal(t, tt.status, code, tt.err.Error())
		assert.NotEmpty(t, body.Error)
	}

	_, body := httpError(&domain.CouponError{Kind: domain.CouponIneligible, Reason: "cupom expirado"})
	assert.Equal(t, "cupom inválido: cupom expirado", body.Fields["coupon_code"])
}

func TestGRPCError(t *testing.T) {
	assert.NoError(t, grpcError(nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(grpcError(&domain.ValidationError{Fields: domain.FieldErrors{"items": "x"}})))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(grpcError(domain.ErrTimeout)))
	assert.Equal(t, codes.AlreadyExists, status.Code(grpcError(domain.ErrDuplicateRequest)))
	assert.Equal(t, codes.Internal, status.Code(grpcError(&domain.PersistenceError{Op: "create order", Err: fmt.Errorf("x")})))

	st, _ := status.FromError(grpcError(&domain.ValidationError{Fields: domain.FieldErrors{"items": "carrinho vazio"}}))
	assert.Equal(t, "validation failed: items: carrinho vazio", st.Message())
}
