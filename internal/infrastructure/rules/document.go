// Package rules loads verification rule sets from YAML or JSON documents and
// compiles them into a verification.Engine.
package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default.yaml
var defaultRules []byte

const schemaURL = "rules.json"

// Scalar is a YAML scalar read as its literal text, so `gt: 0` and
// `gt: "0"` decode the same way
type Scalar string

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*s = Scalar(node.Value)
	return nil
}

// Document is a rule set as written by an operator
type Document struct {
	Version       int        `yaml:"version" json:"version"`
	MandatoryTags []string   `yaml:"mandatoryTags" json:"mandatoryTags"`
	Rules         []RuleSpec `yaml:"rules" json:"rules"`
}

// RuleSpec describes one rule
type RuleSpec struct {
	ID          string     `yaml:"id" json:"id"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    int        `yaml:"priority" json:"priority"`
	AppliesIf   []string   `yaml:"appliesIf,omitempty" json:"appliesIf,omitempty"`
	When        *Condition `yaml:"when,omitempty" json:"when,omitempty"`
	Effect      EffectSpec `yaml:"effect" json:"effect"`
}

// EffectSpec holds exactly one of its fields
type EffectSpec struct {
	Tag       string         `yaml:"tag,omitempty" json:"tag,omitempty"`
	Reject    string         `yaml:"reject,omitempty" json:"reject,omitempty"`
	Normalize *NormalizeSpec `yaml:"normalize,omitempty" json:"normalize,omitempty"`
}

// NormalizeSpec rewrites a field through a chain of named transforms
type NormalizeSpec struct {
	Field      string   `yaml:"field" json:"field"`
	Transforms []string `yaml:"transforms" json:"transforms"`
}

// Condition is a predicate over a single field, a tag, or a combination of
// nested conditions. All set checks must hold.
type Condition struct {
	Field     string      `yaml:"field,omitempty" json:"field,omitempty"`
	Present   *bool       `yaml:"present,omitempty" json:"present,omitempty"`
	Equals    *Scalar     `yaml:"equals,omitempty" json:"equals,omitempty"`
	In        []Scalar    `yaml:"in,omitempty" json:"in,omitempty"`
	Matches   string      `yaml:"matches,omitempty" json:"matches,omitempty"`
	Numeric   *bool       `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	GT        *Scalar     `yaml:"gt,omitempty" json:"gt,omitempty"`
	GTE       *Scalar     `yaml:"gte,omitempty" json:"gte,omitempty"`
	LT        *Scalar     `yaml:"lt,omitempty" json:"lt,omitempty"`
	LTE       *Scalar     `yaml:"lte,omitempty" json:"lte,omitempty"`
	MinLength *int        `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength *int        `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	HasTag    string      `yaml:"hasTag,omitempty" json:"hasTag,omitempty"`
	All       []Condition `yaml:"all,omitempty" json:"all,omitempty"`
	Any       []Condition `yaml:"any,omitempty" json:"any,omitempty"`
	Not       *Condition  `yaml:"not,omitempty" json:"not,omitempty"`
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Parse decodes a YAML or JSON rules document and validates it against the
// rules schema. Structural problems are reported as RULE_CONFIGURATION_INVALID.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, configError("", "rules document is empty")
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, configError("", fmt.Sprintf("parse rules document: %v", err))
	}

	// the schema validator wants JSON-shaped values
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, configError("", fmt.Sprintf("rules document is not JSON-compatible: %v", err))
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, configError("", fmt.Sprintf("rules document is not JSON-compatible: %v", err))
	}

	schema, err := documentSchema()
	if err != nil {
		return nil, fmt.Errorf("compile rules schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, configError("", fmt.Sprintf("rules document does not match schema: %v", err))
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configError("", fmt.Sprintf("decode rules document: %v", err))
	}
	return &doc, nil
}

// Default returns the embedded default rule set
func Default() *Document {
	doc, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded default rules are invalid: %v", err))
	}
	return doc
}

// DefaultYAML returns the embedded default rules document
func DefaultYAML() []byte {
	return bytes.Clone(defaultRules)
}

func configError(ruleID, reason string) *shared.DomainError {
	err := shared.NewDomainError(shared.CodeRuleConfiguration, reason)
	if ruleID != "" {
		err = err.WithDetail("rule_id", ruleID)
	}
	return err
}
