package flights_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/airinventory/internal/api/rpcstruct"
	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/flights"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "airinventory.v1.FlightsService"

type FlightsServiceServer interface {
	SearchFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpcstruct.Unary(ServiceName, "SearchFlights", func(s FlightsServiceServer) rpcstruct.Method { return s.SearchFlights }),
		rpcstruct.Unary(ServiceName, "GetFlight", func(s FlightsServiceServer) rpcstruct.Method { return s.GetFlight }),
		rpcstruct.Unary(ServiceName, "GetAvailability", func(s FlightsServiceServer) rpcstruct.Method { return s.GetAvailability }),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterFlightsServiceServer(s grpc.ServiceRegistrar, srv FlightsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server exposes flight search and availability over gRPC.
type Server struct {
	flights flights.FlightUseCase
}

func NewServer(flights flights.FlightUseCase) *Server {
	return &Server{flights: flights}
}

type searchRequest struct {
	From          string    `json:"from"`
	To            string    `json:"to"`
	Term          string    `json:"term"`
	DepartAfter   time.Time `json:"depart_after"`
	DepartBefore  time.Time `json:"depart_before"`
	OnlyAvailable bool      `json:"only_available"`
	SortBy        string    `json:"sort_by"`
	Order         string    `json:"order"`
}

func (s *Server) SearchFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in searchRequest
	if err := rpcstruct.Decode(req, &in); err != nil {
		return nil, err
	}
	list, err := s.flights.SearchFlights(ctx, flights.SearchFilter{
		From:          in.From,
		To:            in.To,
		Term:          in.Term,
		DepartAfter:   in.DepartAfter,
		DepartBefore:  in.DepartBefore,
		OnlyAvailable: in.OnlyAvailable,
		SortBy:        in.SortBy,
		Order:         in.Order,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.FlightSummary{}
	}
	return rpcstruct.Encode(map[string]interface{}{"flights": list})
}

func (s *Server) GetFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.flights.GetFlight(ctx, rpcstruct.String(req, "id"))
	if err != nil {
		return nil, err
	}
	return rpcstruct.Encode(summary)
}

func (s *Server) GetAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := rpcstruct.String(req, "id")
	available, err := s.flights.GetAvailability(ctx, id)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{
		"flight_id":       id,
		"available_seats": available,
	})
}
