package rules

import (
	"fmt"
	"os"
	"sync"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"go.uber.org/zap"
)

// SourceDefault names the embedded rule set
const SourceDefault = "embedded:default.yaml"

// RuleSet is a compiled, ready-to-use document
type RuleSet struct {
	Source   string
	Document *Document
	Engine   *verification.Engine
}

// Warnings returns the static configuration warnings of the rule set
func (r *RuleSet) Warnings() []verification.RuleConfigurationWarning {
	return r.Engine.Warnings()
}

// Build parses and compiles a document from raw bytes
func Build(source string, data []byte) (*RuleSet, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	engine, err := doc.Engine()
	if err != nil {
		return nil, err
	}
	return &RuleSet{Source: source, Document: doc, Engine: engine}, nil
}

// Provider holds the active rule set. It loads from a file when a path is
// configured and falls back to the embedded default otherwise.
type Provider struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
	active *RuleSet
}

// NewProvider creates a provider and loads its rule set
func NewProvider(path string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{path: path, logger: logger}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Active returns the current rule set
func (p *Provider) Active() *RuleSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Engine returns the engine of the current rule set
func (p *Provider) Engine() *verification.Engine {
	return p.Active().Engine
}

// Reload re-reads the configured rules file. On failure the previous rule
// set stays active.
func (p *Provider) Reload() error {
	source, data := SourceDefault, defaultRules
	if p.path != "" {
		b, err := os.ReadFile(p.path)
		if err != nil {
			return fmt.Errorf("read rules file %s: %w", p.path, err)
		}
		source, data = p.path, b
	}

	set, err := Build(source, data)
	if err != nil {
		p.logger.Error("Failed to load verification rules",
			zap.String("source", source),
			zap.Error(err),
		)
		return err
	}

	for _, w := range set.Warnings() {
		p.logger.Warn("Rule configuration warning",
			zap.String("source", source),
			zap.String("rule_id", w.RuleID),
			zap.String("tag", w.Tag),
			zap.String("message", w.Message),
		)
	}
	p.logger.Info("Verification rules loaded",
		zap.String("source", source),
		zap.Int("rules", len(set.Document.Rules)),
		zap.Strings("mandatory_tags", set.Document.MandatoryTags),
	)

	p.mu.Lock()
	p.active = set
	p.mu.Unlock()
	return nil
}
