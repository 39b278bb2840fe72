// Package apierror maps domain errors onto gRPC status codes. The HTTP API derives its
// status codes from the same table so both transports report a failure identically.
package apierror

import (
	"context"
	"errors"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const Domain = "airinventory"

const (
	ReasonValidation         = "VALIDATION"
	ReasonNotFound           = "NOT_FOUND"
	ReasonNoCapacity         = "NO_CAPACITY"
	ReasonConflict           = "CONFLICT"
	ReasonInvalidTransition  = "INVALID_STATE_TRANSITION"
	ReasonInvalidState       = "INVALID_BOOKING_STATE"
	ReasonAlreadyIssued      = "ALREADY_ISSUED"
	ReasonTokenSpent         = "TOKEN_SPENT"
	ReasonPaymentFailure     = "PAYMENT_FAILURE"
	ReasonFlightQuarantined  = "FLIGHT_QUARANTINED"
	ReasonSeatPoolExhausted  = "SEAT_POOL_EXHAUSTED"
	ReasonInvariantViolation = "INVARIANT_VIOLATION"
	ReasonDeadline           = "DEADLINE_EXCEEDED"
	ReasonCanceled           = "CANCELED"
	ReasonInternal           = "INTERNAL"
)

type mapping struct {
	target error
	code   codes.Code
	reason string
}

// Order matters: the quarantine and seat pool sentinels wrap ErrInvariantViolation and
// must match before it.
var table = []mapping{
	{domain.ErrFlightQuarantined, codes.Internal, ReasonFlightQuarantined},
	{domain.ErrSeatPoolExhausted, codes.Internal, ReasonSeatPoolExhausted},
	{domain.ErrInvariantViolation, codes.Internal, ReasonInvariantViolation},
	{domain.ErrValidation, codes.InvalidArgument, ReasonValidation},
	{domain.ErrNotFound, codes.NotFound, ReasonNotFound},
	{domain.ErrNoCapacity, codes.FailedPrecondition, ReasonNoCapacity},
	{domain.ErrAlreadyIssued, codes.AlreadyExists, ReasonAlreadyIssued},
	{domain.ErrConflict, codes.AlreadyExists, ReasonConflict},
	{domain.ErrInvalidStateTransition, codes.Aborted, ReasonInvalidTransition},
	{domain.ErrInvalidBookingState, codes.FailedPrecondition, ReasonInvalidState},
	{domain.ErrTokenSpent, codes.FailedPrecondition, ReasonTokenSpent},
	{domain.ErrPaymentFailure, codes.FailedPrecondition, ReasonPaymentFailure},
	{context.DeadlineExceeded, codes.DeadlineExceeded, ReasonDeadline},
	{context.Canceled, codes.Canceled, ReasonCanceled},
}

// Classify returns the gRPC code and machine-readable reason for err.
func Classify(err error) (codes.Code, string) {
	if err == nil {
		return codes.OK, ""
	}
	for _, m := range table {
		if errors.Is(err, m.target) {
			return m.code, m.reason
		}
	}
	return codes.Internal, ReasonInternal
}

// Message is the text shown to callers. Internal faults are not described beyond
// their reason.
func Message(err error) string {
	code, _ := Classify(err)
	if code == codes.Internal {
		return "internal error"
	}
	return err.Error()
}

// Status converts err into a gRPC status carrying an errdetails.ErrorInfo.
func Status(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	if st, ok := status.FromError(err); ok {
		return st
	}
	code, reason := Classify(err)
	st := status.New(code, Message(err))
	if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: Domain}); derr == nil {
		return detailed
	}
	return st
}

// Err is Status(err).Err(), or nil for a nil err.
func Err(err error) error {
	if err == nil {
		return nil
	}
	return Status(err).Err()
}

// HTTPStatus returns the HTTP status grpc-gateway would use for err.
func HTTPStatus(err error) int {
	code, _ := Classify(err)
	return runtime.HTTPStatusFromCode(code)
}

// Reason extracts the ErrorInfo reason from a status, if any.
func Reason(st *status.Status) string {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.Reason
		}
	}
	return ""
}
