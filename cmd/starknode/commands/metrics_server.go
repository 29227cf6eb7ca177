package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/libs/service"
)

const metricsShutdownTimeout = 5 * time.Second

// metricsServer serves the default Prometheus registry under /metrics.
type metricsServer struct {
	service.BaseService
	logger log.Logger
	server *http.Server
	addr   string
}

func newMetricsServer(logger log.Logger, addr string) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &metricsServer{
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.BaseService = *service.NewBaseService(logger, "MetricsServer", s)
	return s
}

// OnStart binds the listen address before returning, so that an unusable
// address fails the start.
func (s *metricsServer) OnStart(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	s.addr = ln.Addr().String()

	go func() {
		s.logger.Info("serving metrics", "addr", s.addr, "endpoint", "/metrics")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "err", err)
		}
	}()
	return nil
}

func (s *metricsServer) OnStop() {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server shutdown", "err", err)
	}
}
