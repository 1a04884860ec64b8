package check

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/domain"
)

// Check is implemented by any monitoring probe (availability, login flow,
// TLS expiry, ...). A well-formed check converts its own failures into a
// FAIL Result; a non-nil error from Run is treated as run-fatal by the
// executor.
type Check interface {
	Name() string
	Category() string
	Critical() bool
	Run(ctx context.Context) (domain.Result, error)
}

// Factory builds a fresh Check instance for one run.
type Factory func(cfg *config.Config, log *zap.Logger) (Check, error)

// Options control how a registered check participates in runs.
type Options struct {
	Enabled bool
	Order   int
}

type registration struct {
	factory Factory
	opts    Options
	seq     int
}

// Registry holds the ordered, enable-flagged check factories. It is
// constructed explicitly and injected; there is no package-level instance.
type Registry struct {
	entries []registration
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a factory. Ordering across runs is ascending Options.Order
// with registration sequence breaking ties.
func (r *Registry) Register(f Factory, opts Options) {
	r.entries = append(r.entries, registration{factory: f, opts: opts, seq: len(r.entries)})
}

// Build instantiates the enabled checks in run order. A factory error fails
// the whole build; nothing is silently skipped.
func (r *Registry) Build(cfg *config.Config, log *zap.Logger) ([]Check, error) {
	enabled := make([]registration, 0, len(r.entries))
	for _, e := range r.entries {
		if e.opts.Enabled {
			enabled = append(enabled, e)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].opts.Order < enabled[j].opts.Order
	})

	out := make([]Check, 0, len(enabled))
	for _, e := range enabled {
		c, err := e.factory(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("build check (order %d): %w", e.opts.Order, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Len reports how many checks are registered, enabled or not.
func (r *Registry) Len() int { return len(r.entries) }
