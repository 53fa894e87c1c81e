package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/casperlabs/casper-go/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
	wg          sync.WaitGroup
}

// NewService configures logger and returns a new service instance.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Name returns the service name.
func (ms *Service) Name() string {
	return ms.serviceType
}

// Start runs http service with the exposed endpoint on the configured port.
// Listeners are bound synchronously, so bind errors are returned to the caller.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	for i, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			ms.shutdown(ms.http[:i])
			return err
		}
		srv.Addr = ln.Addr().String()
		ms.log.Info("service is running", zap.String("endpoint", srv.Addr))
		ms.wg.Add(1)
		go func(srv *http.Server) {
			defer ms.wg.Done()
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to serve", zap.String("endpoint", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
	return nil
}

// Addresses returns the endpoints the service listens on. Addresses with zero
// ports are resolved once the service is started.
func (ms *Service) Addresses() []string {
	addrs := make([]string, len(ms.http))
	for i, srv := range ms.http {
		addrs[i] = srv.Addr
	}
	return addrs
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	ms.shutdown(ms.http)
	ms.wg.Wait()
}

func (ms *Service) shutdown(srvs []*http.Server) {
	for _, srv := range srvs {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
}
