// Package rpcstruct builds gRPC services whose messages are google.protobuf.Struct
// values, so handlers can be registered through a hand-written grpc.ServiceDesc.
package rpcstruct

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/airinventory/internal/api/apierror"
	"github.com/Domenick1991/airinventory/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Method is one unary RPC.
type Method func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Unary describes method name of service, resolved on the registered server S by pick.
func Unary[S any](service, name string, pick func(S) Method) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			method := pick(srv.(S))
			if interceptor == nil {
				return method(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return method(ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ErrorInterceptor turns domain errors returned by handlers into gRPC statuses.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, apierror.Err(err)
		}
		return resp, nil
	}
}

// Encode converts v to a Struct through its JSON form.
func Encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(fields)
}

// Decode fills v from the JSON form of req.
func Decode(req *structpb.Struct, v interface{}) error {
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return domain.ValidationError("malformed request: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.ValidationError("malformed request: %v", err)
	}
	return nil
}

func String(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}
