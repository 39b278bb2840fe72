package bookings_service_api

import (
	"context"
	"net"
	"testing"

	"github.com/Domenick1991/airinventory/internal/api/apierror"
	"github.com/Domenick1991/airinventory/internal/api/rpcstruct"
	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/booking"
	"github.com/Domenick1991/airinventory/internal/service/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type MockBookingUseCase struct {
	mock.Mock
	booking.BookingUseCase
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListCustomerBookings(ctx context.Context, customerID string) ([]domain.Booking, error) {
	args := m.Called(customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockPaymentUseCase struct {
	mock.Mock
	payments.PaymentUseCase
}

func (m *MockPaymentUseCase) RecordAttempt(ctx context.Context, input payments.RecordAttemptInput) (*domain.PaymentTransaction, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentUseCase) ReportOutcome(ctx context.Context, transactionID string, outcome domain.PaymentStatus) (*domain.PaymentTransaction, error) {
	args := m.Called(transactionID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func dial(t *testing.T, srv BookingsServiceServer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(rpcstruct.ErrorInterceptor()))
	RegisterBookingsServiceServer(server, srv)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(t *testing.T, conn *grpc.ClientConn, method string, req map[string]interface{}) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), "/"+ServiceName+"/"+method, in, out)
	return out, err
}

func TestServer_CreateBooking(t *testing.T) {
	bookings := &MockBookingUseCase{}
	conn := dial(t, NewServer(bookings, &MockPaymentUseCase{}))

	bookings.On("CreateBooking", booking.CreateBookingInput{
		CustomerID: "C1", FlightID: "WB101", IdempotencyKey: "k1",
	}).Return(&domain.Booking{ID: "B1", CustomerID: "C1", FlightID: "WB101", Status: domain.BookingStatusPending}, nil)

	out, err := call(t, conn, "CreateBooking", map[string]interface{}{
		"customer_id": "C1", "flight_id": "WB101", "idempotency_key": "k1",
	})
	require.NoError(t, err)
	assert.Equal(t, "B1", out.GetFields()["id"].GetStringValue())
	assert.Equal(t, "PENDING", out.GetFields()["status"].GetStringValue())
	bookings.AssertExpectations(t)
}

func TestServer_CreateBooking_NoCapacity(t *testing.T) {
	bookings := &MockBookingUseCase{}
	conn := dial(t, NewServer(bookings, &MockPaymentUseCase{}))

	bookings.On("CreateBooking", mock.Anything).Return(nil, domain.ErrNoCapacity)

	_, err := call(t, conn, "CreateBooking", map[string]interface{}{"customer_id": "C1", "flight_id": "WB101", "idempotency_key": "k1"})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Equal(t, apierror.ReasonNoCapacity, apierror.Reason(st))
}

func TestServer_CancelBooking_Quarantined(t *testing.T) {
	bookings := &MockBookingUseCase{}
	conn := dial(t, NewServer(bookings, &MockPaymentUseCase{}))

	bookings.On("CancelBooking", "B1").Return(nil, domain.ErrFlightQuarantined)

	_, err := call(t, conn, "CancelBooking", map[string]interface{}{"id": "B1"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, apierror.ReasonFlightQuarantined, apierror.Reason(st))
}

func TestServer_ListCustomerBookings(t *testing.T) {
	bookings := &MockBookingUseCase{}
	conn := dial(t, NewServer(bookings, &MockPaymentUseCase{}))

	bookings.On("ListCustomerBookings", "C1").Return([]domain.Booking{{ID: "B1"}, {ID: "B2"}}, nil)

	out, err := call(t, conn, "ListCustomerBookings", map[string]interface{}{"customer_id": "C1"})
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["bookings"].GetListValue().GetValues(), 2)
}

func TestServer_Payments(t *testing.T) {
	pay := &MockPaymentUseCase{}
	conn := dial(t, NewServer(&MockBookingUseCase{}, pay))

	pay.On("RecordAttempt", payments.RecordAttemptInput{
		BookingID: "B1", Method: domain.PaymentMethodCash, AmountCents: 12_500, IdempotencyKey: "p1",
	}).Return(&domain.PaymentTransaction{ID: "P1", Status: domain.PaymentStatusPending}, nil)
	pay.On("ReportOutcome", "P1", domain.PaymentStatusCompleted).
		Return(&domain.PaymentTransaction{ID: "P1", Status: domain.PaymentStatusCompleted}, nil)

	out, err := call(t, conn, "RecordPayment", map[string]interface{}{
		"booking_id": "B1", "method": "CASH", "amount_cents": 12500, "idempotency_key": "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, "P1", out.GetFields()["id"].GetStringValue())

	out, err = call(t, conn, "ReportPaymentOutcome", map[string]interface{}{"transaction_id": "P1", "status": "COMPLETED"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", out.GetFields()["status"].GetStringValue())
	pay.AssertExpectations(t)
}

func TestServer_MalformedRequest(t *testing.T) {
	conn := dial(t, NewServer(&MockBookingUseCase{}, &MockPaymentUseCase{}))

	_, err := call(t, conn, "RecordPayment", map[string]interface{}{"amount_cents": "lots"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
}
