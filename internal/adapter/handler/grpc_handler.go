package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// JSONCodecName is the content-subtype clients select with
// grpc.CallContentSubtype to talk to the order service.
const JSONCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string { return JSONCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type TrackRequest struct {
	Phone   string `json:"phone"`
	OrderID string `json:"order_id"`
}

type GetOrderRequest struct {
	ID string `json:"id"`
}

type AdvanceStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderServer is the gRPC surface for kiosks and the kitchen display.
type OrderServer interface {
	SubmitOrder(ctx context.Context, req *SubmitOrderHTTPRequest) (*OrderResponse, error)
	TrackOrders(ctx context.Context, req *TrackRequest) (*TrackResponse, error)
	GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error)
	AdvanceOrderStatus(ctx context.Context, req *AdvanceStatusRequest) (*OrderResponse, error)
}

type GRPCHandler struct {
	orders OrderAPI
	auth   *Authenticator
}

func NewGRPCHandler(orders OrderAPI, auth *Authenticator) *GRPCHandler {
	return &GRPCHandler{orders: orders, auth: auth}
}

func (h *GRPCHandler) SubmitOrder(ctx context.Context, req *SubmitOrderHTTPRequest) (*OrderResponse, error) {
	order, err := h.orders.SubmitOrder(ctx, req.toInput())
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (h *GRPCHandler) TrackOrders(ctx context.Context, req *TrackRequest) (*TrackResponse, error) {
	result, err := h.orders.TrackOrders(ctx, req.Phone)
	if err != nil {
		return nil, grpcError(err)
	}
	if req.OrderID != "" {
		order, ok := result.Select(req.OrderID)
		if !ok {
			return nil, grpcError(domain.ErrNotFound)
		}
		return &TrackResponse{Next: "detail", Orders: []OrderResponse{toOrderResponse(order)}}, nil
	}
	if order, ok := result.Single(); ok {
		return &TrackResponse{Next: "detail", Orders: []OrderResponse{toOrderResponse(order)}}, nil
	}
	return &TrackResponse{Next: "select", Orders: toOrderResponses(result.Orders)}, nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	order, err := h.orders.GetOrder(ctx, req.ID)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (h *GRPCHandler) AdvanceOrderStatus(ctx context.Context, req *AdvanceStatusRequest) (*OrderResponse, error) {
	id, err := h.identify(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	order, err := h.orders.AdvanceOrderStatus(ctx, id, req.ID, req.Status)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (h *GRPCHandler) identify(ctx context.Context) (domain.Identity, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	var header string
	if v := md.Get("authorization"); len(v) > 0 {
		header = v[0]
	}
	return h.auth.Identify(ctx, header)
}

// RegisterOrderServer attaches srv to s under the cardapio.OrderService name.
func RegisterOrderServer(s grpc.ServiceRegistrar, srv OrderServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: "cardapio.OrderService",
	HandlerType: (*OrderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitOrder", Handler: unary("SubmitOrder", func(s OrderServer, ctx context.Context, req *SubmitOrderHTTPRequest) (any, error) {
			return s.SubmitOrder(ctx, req)
		})},
		{MethodName: "TrackOrders", Handler: unary("TrackOrders", func(s OrderServer, ctx context.Context, req *TrackRequest) (any, error) {
			return s.TrackOrders(ctx, req)
		})},
		{MethodName: "GetOrder", Handler: unary("GetOrder", func(s OrderServer, ctx context.Context, req *GetOrderRequest) (any, error) {
			return s.GetOrder(ctx, req)
		})},
		{MethodName: "AdvanceOrderStatus", Handler: unary("AdvanceOrderStatus", func(s OrderServer, ctx context.Context, req *AdvanceStatusRequest) (any, error) {
			return s.AdvanceOrderStatus(ctx, req)
		})},
	},
	Streams: []grpc.StreamDesc{},
}

// unary adapts a typed method to the grpc.MethodDesc handler shape, running
// any configured interceptor.
func unary[Req any](method string, call func(OrderServer, context.Context, *Req) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/cardapio.OrderService/" + method}
		return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
			return call(srv.(OrderServer), ctx, r.(*Req))
		})
	}
}
