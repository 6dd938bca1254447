package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/fedsearch/types"
)

// Prober performs a liveness check against a node endpoint. The federation
// node client implements this; the indirection keeps registry free of any
// dependency on the dispatch layer.
type Prober interface {
	Probe(ctx context.Context, node *types.Node) (time.Duration, error)
}

// DiscovererConfig configures auto-discovery.
type DiscovererConfig struct {
	// Concurrency bounds parallel admission health checks.
	Concurrency int `json:"concurrency"`
	// AdmissionTimeout bounds each admission health check.
	AdmissionTimeout time.Duration `json:"admission_timeout"`
	// FetchTimeout bounds the discovery endpoint request.
	FetchTimeout time.Duration `json:"fetch_timeout"`
}

// DefaultDiscovererConfig returns sensible defaults.
func DefaultDiscovererConfig() DiscovererConfig {
	return DiscovererConfig{
		Concurrency:      4,
		AdmissionTimeout: 5 * time.Second,
		FetchTimeout:     10 * time.Second,
	}
}

// Discoverer pulls node descriptors from a discovery endpoint and admits
// each one into the registry only after a successful health check.
type Discoverer struct {
	config     DiscovererConfig
	registry   *Registry
	prober     Prober
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(config DiscovererConfig, reg *Registry, prober Prober, httpClient *http.Client, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultDiscovererConfig()
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.AdmissionTimeout <= 0 {
		config.AdmissionTimeout = defaults.AdmissionTimeout
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = defaults.FetchTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.FetchTimeout}
	}
	return &Discoverer{
		config:     config,
		registry:   reg,
		prober:     prober,
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "discovery")),
	}
}

// discoveryResponse is the wire shape served by a discovery endpoint.
type discoveryResponse struct {
	Nodes []types.Node `json:"nodes"`
}

// Discover fetches descriptors from the discovery endpoint, health-checks
// each candidate concurrently, and registers the ones that respond. It
// returns the admitted nodes. Candidates that fail their admission check are
// skipped, not errors.
func (d *Discoverer) Discover(ctx context.Context, endpoint string) ([]*types.Node, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.config.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewError(types.ErrDiscoveryFailed, "invalid discovery endpoint").WithCause(err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrDiscoveryFailed, "discovery endpoint unreachable").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrDiscoveryFailed,
			fmt.Sprintf("discovery endpoint returned status %d", resp.StatusCode)).WithRetryable(true)
	}

	var payload discoveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewError(types.ErrDiscoveryFailed, "malformed discovery response").WithCause(err)
	}

	d.logger.Info("discovery fetched candidates",
		zap.String("endpoint", endpoint),
		zap.Int("candidates", len(payload.Nodes)))

	admitted := make([]*types.Node, len(payload.Nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Concurrency)
	for i := range payload.Nodes {
		g.Go(func() error {
			node := payload.Nodes[i].Clone()
			if node.ID == "" {
				node.ID = uuid.NewString()
			}
			if err := node.Validate(); err != nil {
				d.logger.Warn("discovered node rejected", zap.String("endpoint", node.Endpoint), zap.Error(err))
				return nil
			}

			probeCtx, cancel := context.WithTimeout(gctx, d.config.AdmissionTimeout)
			defer cancel()

			latency, err := d.prober.Probe(probeCtx, node)
			if err != nil {
				d.logger.Warn("discovered node failed admission check",
					zap.String("node_id", node.ID), zap.Error(err))
				return nil
			}

			node.Available = true
			node.LastLatency = latency
			if err := d.registry.Register(node); err != nil {
				if !types.IsCode(err, types.ErrNodeExists) {
					d.logger.Warn("discovered node registration failed",
						zap.String("node_id", node.ID), zap.Error(err))
				}
				return nil
			}
			admitted[i] = node
			return nil
		})
	}
	// Workers never return errors; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*types.Node, 0, len(admitted))
	for _, n := range admitted {
		if n != nil {
			out = append(out, n)
		}
	}

	d.logger.Info("discovery complete",
		zap.String("endpoint", endpoint),
		zap.Int("admitted", len(out)))
	return out, nil
}
