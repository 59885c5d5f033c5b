package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/core/service"
)

const orderServiceName = "livemart.v1.OrderService"

// JSONCodec carries the gRPC messages as JSON so the service needs no
// generated protobuf types.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return "json" }

type PlaceOrderRequest struct {
	CustomerID     int64              `json:"customerId"`
	RetailerID     int64              `json:"retailerId"`
	TotalAmount    float64            `json:"totalAmount"`
	PaymentMode    string             `json:"paymentMode"`
	Items          []OrderItemRequest `json:"items"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
}

type PlaceOrderResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Order   OrderDTO `json:"order"`
}

type UpdateOrderStatusRequest struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type UpdateOrderStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ListOrdersRequest struct {
	ID int64 `json:"id"`
}

type ListOrdersResponse struct {
	Orders []OrderDTO `json:"orders"`
}

type OrderServiceServer interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error)
	UpdateOrderStatus(ctx context.Context, req *UpdateOrderStatusRequest) (*UpdateOrderStatusResponse, error)
	ListByCustomer(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error)
	ListByRetailer(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error)
}

type GRPCHandler struct {
	orderService *service.OrderService
}

func NewGRPCHandler(orderService *service.OrderService) *GRPCHandler {
	return &GRPCHandler{orderService: orderService}
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	key := req.IdempotencyKey
	if key == "" {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("idempotency-key"); len(v) > 0 {
				key = v[0]
			}
		}
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, domain.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, PriceAtPurchase: it.PriceAtPurchase})
	}

	order, err := h.orderService.PlaceOrder(ctx, service.PlaceOrderRequest{
		CustomerID:     req.CustomerID,
		RetailerID:     req.RetailerID,
		TotalAmount:    req.TotalAmount,
		PaymentMode:    req.PaymentMode,
		Items:          lines,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, grpcError(err)
	}

	return &PlaceOrderResponse{
		Success: true,
		Message: fmt.Sprintf("Order placed successfully. ID: %d", order.ID),
		Order:   toOrderDTO(*order),
	}, nil
}

func (h *GRPCHandler) UpdateOrderStatus(ctx context.Context, req *UpdateOrderStatusRequest) (*UpdateOrderStatusResponse, error) {
	if err := h.orderService.UpdateOrderStatus(ctx, req.OrderID, req.Status); err != nil {
		return nil, grpcError(err)
	}
	return &UpdateOrderStatusResponse{Success: true, Message: "Order status updated to " + req.Status}, nil
}

func (h *GRPCHandler) ListByCustomer(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	orders, err := h.orderService.ListByCustomer(ctx, req.ID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListOrdersResponse{Orders: mapSlice(orders, toOrderDTO)}, nil
}

func (h *GRPCHandler) ListByRetailer(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	orders, err := h.orderService.ListByRetailer(ctx, req.ID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListOrdersResponse{Orders: mapSlice(orders, toOrderDTO)}, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// NewGRPCServer returns a server with the order service registered and
// request logging installed.
func NewGRPCServer(h OrderServiceServer, log zerolog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(JSONCodec{}),
		grpc.ChainUnaryInterceptor(unaryLogger(log.With().Str("component", "grpc").Logger())),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterOrderServiceServer(s, h)
	return s
}

func unaryLogger(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		ev := log.Info()
		if code := status.Code(err); code == codes.Internal || code == codes.Unknown {
			ev = log.Error().Err(err)
		}
		ev.Str("method", info.FullMethod).Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).Msg("rpc")
		return resp, err
	}
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "UpdateOrderStatus", Handler: updateOrderStatusHandler},
		{MethodName: "ListByCustomer", Handler: listByCustomerHandler},
		{MethodName: "ListByRetailer", Handler: listByRetailerHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "livemart/v1/order_service",
}

// unary adapts a typed method to the descriptor's handler signature.
func unary[Req, Resp any](method string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + orderServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	placeOrderHandler        = unary("PlaceOrder", OrderServiceServer.PlaceOrder)
	updateOrderStatusHandler = unary("UpdateOrderStatus", OrderServiceServer.UpdateOrderStatus)
	listByCustomerHandler    = unary("ListByCustomer", OrderServiceServer.ListByCustomer)
	listByRetailerHandler    = unary("ListByRetailer", OrderServiceServer.ListByRetailer)
)

// OrderServiceClient calls the order service over a connection that uses JSONCodec.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(JSONCodec{})}, opts...)
	return c.cc.Invoke(ctx, "/"+orderServiceName+"/"+method, in, out, opts...)
}

func (c *OrderServiceClient) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := new(PlaceOrderResponse)
	if err := c.invoke(ctx, "PlaceOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) UpdateOrderStatus(ctx context.Context, in *UpdateOrderStatusRequest, opts ...grpc.CallOption) (*UpdateOrderStatusResponse, error) {
	out := new(UpdateOrderStatusResponse)
	if err := c.invoke(ctx, "UpdateOrderStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) ListByCustomer(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	if err := c.invoke(ctx, "ListByCustomer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) ListByRetailer(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	if err := c.invoke(ctx, "ListByRetailer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
