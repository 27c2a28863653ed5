package server

import (
	"context"
	"fmt"

	"github.com/vanshika/fintrace/ringwatch/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphProbe reports the graph store as unhealthy when it cannot be reached.
// A nil client means persistence is disabled and the probe always passes.
type GraphProbe struct {
	Client graph.Client
}

// Probe implements HealthService.
func (p GraphProbe) Probe(ctx context.Context) error {
	if p.Client == nil {
		return nil
	}
	if err := p.Client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph store: %w", err)
	}
	return nil
}
