// Package pass turns an approved visitor request into a PDF gate pass.
//
// Rendering is a two-tier strategy: a full-fidelity headless-Chrome capture
// of the frontend pass page, and a direct-drawing fallback that only needs
// the record itself. The orchestrator guarantees callers always get bytes
// for a valid record; primary failures are logged, never propagated.
package pass

import (
	"context"
	"fmt"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

// Strategy renders a visitor request into PDF bytes.
type Strategy interface {
	Name() string
	Render(ctx context.Context, req *visitor.Request) ([]byte, error)
}

// Renderer orchestrates the primary and fallback strategies.
type Renderer struct {
	primary  Strategy // may be nil when no frontend is configured
	fallback Strategy
	logger   *logging.ChanneledLogger
}

// NewRenderer creates the rendering orchestrator. The fallback strategy is
// mandatory; primary may be nil.
func NewRenderer(primary, fallback Strategy, logger *logging.ChanneledLogger) *Renderer {
	return &Renderer{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Render produces the pass PDF. It errors only on record-level invalidity;
// any primary-path failure degrades to the fallback strategy.
func (r *Renderer) Render(ctx context.Context, req *visitor.Request) ([]byte, error) {
	if req == nil || req.Name == "" || req.VisitorCode == "" {
		return nil, fmt.Errorf("visitor record is missing fields required for a pass")
	}

	if r.primary != nil {
		pdf, err := r.primary.Render(ctx, req)
		if err == nil && len(pdf) > 0 {
			r.logger.Render().Info("Pass rendered",
				"strategy", r.primary.Name(), "visitorId", req.ID, "bytes", len(pdf))
			return pdf, nil
		}
		r.logger.Render().Warn("Primary pass rendering failed, falling back",
			"strategy", r.primary.Name(), "visitorId", req.ID, "error", err)
	}

	pdf, err := r.fallback.Render(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fallback pass rendering failed: %w", err)
	}

	r.logger.Render().Info("Pass rendered",
		"strategy", r.fallback.Name(), "visitorId", req.ID, "bytes", len(pdf))
	return pdf, nil
}
