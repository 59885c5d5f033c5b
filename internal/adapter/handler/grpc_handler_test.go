package handler

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/livemart/internal/core/domain"
)

func newGRPCClient(t *testing.T, s *testStack) *OrderServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(s.grpc, zerolog.Nop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewOrderServiceClient(conn)
}

func TestGRPC_OrderLifecycle(t *testing.T) {
	s := newTestStack(t)
	customer, retailer, product := s.seed(t, s.http.Routes(nil), 4)
	client := newGRPCClient(t, s)
	ctx := context.Background()

	resp, err := client.PlaceOrder(ctx, &PlaceOrderRequest{
		CustomerID:  customer,
		RetailerID:  retailer,
		TotalAmount: 110,
		PaymentMode: "COD",
		Items:       []OrderItemRequest{{ProductID: product, Quantity: 2, PriceAtPurchase: 55}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.OrderStatusPlaced, resp.Order.OrderStatus)
	require.Len(t, resp.Order.Items, 1)

	upd, err := client.UpdateOrderStatus(ctx, &UpdateOrderStatusRequest{OrderID: resp.Order.ID, Status: domain.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, "Order status updated to delivered", upd.Message)

	byCustomer, err := client.ListByCustomer(ctx, &ListOrdersRequest{ID: customer})
	require.NoError(t, err)
	require.Len(t, byCustomer.Orders, 1)
	assert.Equal(t, domain.OrderStatusDelivered, byCustomer.Orders[0].OrderStatus)

	byRetailer, err := client.ListByRetailer(ctx, &ListOrdersRequest{ID: retailer})
	require.NoError(t, err)
	assert.Len(t, byRetailer.Orders, 1)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	s := newTestStack(t)
	customer, retailer, product := s.seed(t, s.http.Routes(nil), 1)
	client := newGRPCClient(t, s)
	ctx := context.Background()

	order := &PlaceOrderRequest{
		CustomerID: customer,
		RetailerID: retailer,
		Items:      []OrderItemRequest{{ProductID: product, Quantity: 1}},
	}
	keyed := metadata.AppendToOutgoingContext(ctx, "idempotency-key", "grpc-1")
	_, err := client.PlaceOrder(keyed, order)
	require.NoError(t, err)

	_, err = client.PlaceOrder(keyed, order)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.PlaceOrder(ctx, order)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err), "stock exhausted")

	_, err = client.PlaceOrder(ctx, &PlaceOrderRequest{CustomerID: customer, RetailerID: retailer})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.UpdateOrderStatus(ctx, &UpdateOrderStatusRequest{OrderID: 999, Status: domain.OrderStatusPacked})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCError(t *testing.T) {
	assert.Equal(t, codes.NotFound, status.Code(grpcError(domain.NotFound("order", 1))))
	assert.Equal(t, codes.InvalidArgument, status.Code(grpcError(domain.ErrInvalidOTP)))
	assert.Equal(t, codes.FailedPrecondition, status.Code(grpcError(domain.ErrAlreadyProcessed)))
	assert.Equal(t, codes.AlreadyExists, status.Code(grpcError(domain.ErrEmailTaken)))

	st, _ := status.FromError(grpcError(errors.New("connection reset")))
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}
