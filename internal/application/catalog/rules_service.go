package catalog

import (
	"context"
	"slices"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/rules"
	"go.uber.org/zap"
)

// RuleSource exposes the active rule set
type RuleSource interface {
	Active() *rules.RuleSet
	Reload() error
}

// RulesService shows and checks verification rule sets
type RulesService struct {
	source RuleSource
	logger *zap.Logger
}

// NewRulesService creates a new RulesService
func NewRulesService(source RuleSource, log *zap.Logger) *RulesService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RulesService{source: source, logger: log}
}

// Show describes the active rule set in evaluation order
func (s *RulesService) Show(_ context.Context) *RuleSetResponse {
	return describeRuleSet(s.source.Active())
}

// Validate parses and compiles a candidate rules document without
// activating it. Structural problems are returned as errors; unreachable
// appliesIf preconditions come back as warnings.
func (s *RulesService) Validate(_ context.Context, data []byte) (*RuleCheckResult, error) {
	set, err := rules.Build("request", data)
	if err != nil {
		return nil, err
	}
	warnings := set.Warnings()
	if warnings == nil {
		warnings = []verification.RuleConfigurationWarning{}
	}
	return &RuleCheckResult{
		Valid:    true,
		Rules:    len(set.Document.Rules),
		Warnings: warnings,
	}, nil
}

// Reload re-reads the configured rules file. The previous rule set stays
// active when the file is invalid.
func (s *RulesService) Reload(_ context.Context) (*RuleSetResponse, error) {
	if err := s.source.Reload(); err != nil {
		return nil, err
	}
	active := s.source.Active()
	s.logger.Info("Verification rules reloaded", zap.String("source", active.Source))
	return describeRuleSet(active), nil
}

func describeRuleSet(set *rules.RuleSet) *RuleSetResponse {
	engineRules := set.Engine.Rules()
	out := make([]RuleResponse, 0, len(engineRules))
	for _, r := range engineRules {
		out = append(out, RuleResponse{
			ID:          r.ID,
			Description: r.Description,
			Priority:    r.Priority,
			AppliesIf:   slices.Clone(r.AppliesIf),
			Effect:      describeEffect(r.Effect),
		})
	}
	warnings := set.Warnings()
	if warnings == nil {
		warnings = []verification.RuleConfigurationWarning{}
	}
	return &RuleSetResponse{
		Source:        set.Source,
		Version:       set.Document.Version,
		MandatoryTags: set.Engine.MandatoryTags(),
		Rules:         out,
		Warnings:      warnings,
	}
}

func describeEffect(e verification.Effect) string {
	switch e.Kind {
	case verification.EffectTag:
		return "tag:" + e.Label
	case verification.EffectReject:
		return "reject:" + e.Reason
	case verification.EffectNormalizeField:
		return "normalize:" + e.Field + ":" + e.TransformName
	}
	return string(e.Kind)
}
