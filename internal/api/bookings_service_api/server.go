package bookings_service_api

import (
	"context"

	"github.com/Domenick1991/airinventory/internal/api/rpcstruct"
	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/booking"
	"github.com/Domenick1991/airinventory/internal/service/payments"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "airinventory.v1.BookingsService"

type BookingsServiceServer interface {
	CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	IssueTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListCustomerBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RecordPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReportPaymentOutcome(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpcstruct.Unary(ServiceName, "CreateBooking", func(s BookingsServiceServer) rpcstruct.Method { return s.CreateBooking }),
		rpcstruct.Unary(ServiceName, "GetBooking", func(s BookingsServiceServer) rpcstruct.Method { return s.GetBooking }),
		rpcstruct.Unary(ServiceName, "CancelBooking", func(s BookingsServiceServer) rpcstruct.Method { return s.CancelBooking }),
		rpcstruct.Unary(ServiceName, "IssueTicket", func(s BookingsServiceServer) rpcstruct.Method { return s.IssueTicket }),
		rpcstruct.Unary(ServiceName, "ListCustomerBookings", func(s BookingsServiceServer) rpcstruct.Method { return s.ListCustomerBookings }),
		rpcstruct.Unary(ServiceName, "RecordPayment", func(s BookingsServiceServer) rpcstruct.Method { return s.RecordPayment }),
		rpcstruct.Unary(ServiceName, "ReportPaymentOutcome", func(s BookingsServiceServer) rpcstruct.Method { return s.ReportPaymentOutcome }),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterBookingsServiceServer(s grpc.ServiceRegistrar, srv BookingsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server exposes the booking flow and payment reconciliation over gRPC.
type Server struct {
	bookings booking.BookingUseCase
	payments payments.PaymentUseCase
}

func NewServer(bookings booking.BookingUseCase, payments payments.PaymentUseCase) *Server {
	return &Server{bookings: bookings, payments: payments}
}

func (s *Server) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input booking.CreateBookingInput
	if err := rpcstruct.Decode(req, &input); err != nil {
		return nil, err
	}
	created, err := s.bookings.CreateBooking(ctx, input)
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(created)
}

func (s *Server) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := s.bookings.GetBooking(ctx, rpcstruct.String(req, "id"))
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(b)
}

func (s *Server) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := s.bookings.CancelBooking(ctx, rpcstruct.String(req, "id"))
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(b)
}

func (s *Server) IssueTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ticket, err := s.bookings.IssueTicket(ctx, rpcstruct.String(req, "booking_id"))
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(ticket)
}

func (s *Server) ListCustomerBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.bookings.ListCustomerBookings(ctx, rpcstruct.String(req, "customer_id"))
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Booking{}
	}
	return rpcstruct.Encode(map[string]interface{}{"bookings": list})
}

func (s *Server) RecordPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input payments.RecordAttemptInput
	if err := rpcstruct.Decode(req, &input); err != nil {
		return nil, err
	}
	payment, err := s.payments.RecordAttempt(ctx, input)
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(payment)
}

func (s *Server) ReportPaymentOutcome(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	payment, err := s.payments.ReportOutcome(ctx,
		rpcstruct.String(req, "transaction_id"),
		domain.PaymentStatus(rpcstruct.String(req, "status")),
	)
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(payment)
}
