package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/store"
)

const (
	// ProbeTimeout bounds each service health probe.
	ProbeTimeout = 2 * time.Second

	StatusUp   = "up"
	StatusDown = "down"
)

// HealthChecker reports whether a dependency answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SubscriberCounter counts live display subscriptions.
type SubscriberCounter interface {
	Subscribers() int
}

// Dashboard is the admin overview.
type Dashboard struct {
	TotalServices     int    `json:"total_services"`
	ActiveUsers       int    `json:"active_users"`
	RequestsPerMinute int    `json:"requests_per_minute"`
	TurnsTotal        int    `json:"turns_total"`
	TurnsFailed       int    `json:"turns_failed"`
	AvgLatencyMs      int64  `json:"avg_latency_ms"`
	Assistant         string `json:"assistant"`
}

// ServiceStatus is one probed service.
type ServiceStatus struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Service computes admin widgets from live state.
type Service struct {
	services   []config.ServiceConfig
	turns      store.TurnStore
	subs       SubscriberCounter
	assistant  HealthChecker
	httpClient *http.Client
	now        func() time.Time
	log        *zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient overrides the client used for service probes.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the admin service. assistant may be nil.
func NewService(services []config.ServiceConfig, turns store.TurnStore, subs SubscriberCounter, assistant HealthChecker, logger *zerolog.Logger, opts ...Option) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Service{
		services:   services,
		turns:      turns,
		subs:       subs,
		assistant:  assistant,
		httpClient: &http.Client{Timeout: ProbeTimeout},
		now:        time.Now,
		log:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard collects the overview widgets.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()

	lastMinute, err := s.turns.TurnStats(ctx, now.Add(-time.Minute))
	if err != nil {
		return Dashboard{}, fmt.Errorf("turn stats last minute: %w", err)
	}
	allTime, err := s.turns.TurnStats(ctx, time.UnixMilli(0))
	if err != nil {
		return Dashboard{}, fmt.Errorf("turn stats: %w", err)
	}

	d := Dashboard{
		TotalServices:     len(s.services),
		RequestsPerMinute: lastMinute.Total,
		TurnsTotal:        allTime.Total,
		TurnsFailed:       allTime.Failed,
		AvgLatencyMs:      allTime.AvgLatency.Milliseconds(),
		Assistant:         StatusUp,
	}
	if s.subs != nil {
		d.ActiveUsers = s.subs.Subscribers()
	}
	if s.assistant != nil {
		probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
		defer cancel()
		if err := s.assistant.Health(probeCtx); err != nil {
			s.log.Debug().Err(err).Msg("assistant health probe failed")
			d.Assistant = StatusDown
		}
	}
	return d, nil
}

// Services probes every configured service concurrently. Order follows config.
func (s *Service) Services(ctx context.Context) []ServiceStatus {
	out := make([]ServiceStatus, len(s.services))

	g, gctx := errgroup.WithContext(ctx)
	for i, svc := range s.services {
		g.Go(func() error {
			out[i] = s.probe(gctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Service) probe(ctx context.Context, svc config.ServiceConfig) ServiceStatus {
	status := ServiceStatus{Name: svc.Name, URL: svc.URL, Status: StatusDown}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	start := s.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := s.httpClient.Do(req)
	status.LatencyMs = s.now().Sub(start).Milliseconds()
	if err != nil {
		status.Error = err.Error()
		s.log.Debug().Err(err).Str("service", svc.Name).Msg("service probe failed")
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		status.Status = StatusUp
	} else {
		status.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return status
}
