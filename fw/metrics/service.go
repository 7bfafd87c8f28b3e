package metrics

import (
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultPath = "/metrics"
)

type options struct {
	path string
}

type Option func(*options)

// PathOption sets the HTTP path metrics are served on.
func PathOption(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// Service serves the metrics of a Prometheus gatherer over HTTP.
type Service struct {
	s  *http.Server
	ln net.Listener
}

// NewService listens on addr and prepares to serve the metrics of gatherer.
func NewService(network, addr string, gatherer prometheus.Gatherer, opts ...Option) (*Service, error) {
	if network == "" {
		network = "tcp"
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}

	var options options
	for _, opt := range opts {
		opt(&options)
	}
	if options.path == "" {
		options.path = DefaultPath
	}

	mux := http.NewServeMux()
	mux.Handle(options.path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Service{
		s: &http.Server{
			Handler: mux,
		},
		ln: ln,
	}, nil
}

func (s *Service) String() string {
	return "metrics-service"
}

// Serve blocks until the service is closed. Closing is not an error.
func (s *Service) Serve() error {
	if err := s.s.Serve(s.ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Service) Close() error {
	return s.s.Close()
}
