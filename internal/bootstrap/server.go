package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/airinventory/config"
	bookingsapi "github.com/Domenick1991/airinventory/internal/api/bookings_service_api"
	flightsapi "github.com/Domenick1991/airinventory/internal/api/flights_service_api"
	"github.com/Domenick1991/airinventory/internal/api/rpcstruct"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log logger.Logger) error {
	s := newServers(cfg, svc, log)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("grpc server listening", "address", cfg.GRPC.Address)
		return s.grpcServer.Serve(lis)
	})
	g.Go(func() error {
		log.Info("http server listening", "address", cfg.HTTP.Address)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("servers stopped")
		return nil
	})
	return g.Wait()
}

func newServers(cfg *config.Config, svc Services, log logger.Logger) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(rpcstruct.ErrorInterceptor()))
	flightsapi.RegisterFlightsServiceServer(grpcSrv, flightsapi.NewServer(svc.Flights))
	bookingsapi.RegisterBookingsServiceServer(grpcSrv, bookingsapi.NewServer(svc.Bookings, svc.Payments))

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           NewRouter(cfg, svc, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}
