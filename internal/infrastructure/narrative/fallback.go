package narrative

import (
	"context"

	proposalapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"go.uber.org/zap"
)

// FallbackGenerator tries the primary generator and uses the secondary one
// when it fails
type FallbackGenerator struct {
	primary   proposalapp.NarrativeGenerator
	secondary proposalapp.NarrativeGenerator
	logger    *zap.Logger
}

// NewFallbackGenerator creates a FallbackGenerator
func NewFallbackGenerator(primary, secondary proposalapp.NarrativeGenerator, logger *zap.Logger) *FallbackGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackGenerator{primary: primary, secondary: secondary, logger: logger}
}

// Generate implements proposalapp.NarrativeGenerator
func (g *FallbackGenerator) Generate(ctx context.Context, req proposalapp.NarrativeRequest) (string, error) {
	text, err := g.primary.Generate(ctx, req)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	g.logger.Info("Using template narrative", zap.Error(err))
	return g.secondary.Generate(ctx, req)
}

// NewGenerator builds the generator selected by configuration. An empty
// endpoint selects the template narrative alone.
func NewGenerator(cfg config.NarrativeConfig, logger *zap.Logger) proposalapp.NarrativeGenerator {
	tmpl := NewTemplateGenerator()
	if cfg.Endpoint == "" {
		return tmpl
	}
	remote := NewHTTPGenerator(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout, logger)
	return NewFallbackGenerator(remote, tmpl, logger)
}
